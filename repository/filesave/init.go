package filesave

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"autograph-ds-builder/utils"
)

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
}

func GenerateTestConfig() *Config {
	return &Config{
		Endpoint:  "http://localhost:9000",
		Region:    "us-east-1",
		Bucket:    "ds-builder-test",
		Prefix:    "test",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}
}

/*
Putter 是 *s3.Client 中上传所需的部分，测试中可以替换。
*/
type Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func NewS3Client(ctx context.Context, cfg *Config) (*s3.Client, error) {
	options := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.Endpoint != "" {
		options = append(options, config.WithBaseEndpoint(cfg.Endpoint))
	}
	if cfg.AccessKey != "" {
		options = append(options, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, utils.WrapError(err, "load aws config fail")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client, nil
}

var _ Putter = (*s3.Client)(nil)
