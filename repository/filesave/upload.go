package filesave

import (
	"context"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"autograph-ds-builder/utils"
)

/*
Uploader 把一次构建的输出目录上传到 S3，键为 <Prefix>/<runKey>/<相对路径>。
*/
type Uploader struct {
	client Putter
	config *Config
	logger *logrus.Logger
}

func NewUploader(client Putter, cfg *Config, logger *logrus.Logger) *Uploader {
	return &Uploader{client: client, config: cfg, logger: logger}
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".jsonl":
		return "application/x-ndjson"
	case ".tsv":
		return "text/tab-separated-values"
	case ".txt":
		return "text/plain"
	}
	if typ := mime.TypeByExtension(filepath.Ext(name)); typ != "" {
		return typ
	}
	return "application/octet-stream"
}

func (u *Uploader) key(runKey, rel string) string {
	return path.Join(u.config.Prefix, runKey, filepath.ToSlash(rel))
}

func (u *Uploader) UploadFile(ctx context.Context, runKey, dir, rel string) (string, error) {
	file, err := os.Open(filepath.Join(dir, rel))
	if err != nil {
		return "", utils.WrapErrorf(err, "open [%s] fail", rel)
	}
	defer file.Close()

	key := u.key(runKey, rel)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.config.Bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType(rel)),
	})
	if err != nil {
		return "", utils.WrapErrorf(err, "upload [%s] to s3 fail", key)
	}
	return key, nil
}

/*
UploadDir 上传 dir 下除隐藏文件外的所有普通文件（按相对路径排序），返回上传的对象键。
*/
func (u *Uploader) UploadDir(ctx context.Context, runKey, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, utils.WrapErrorf(err, "walk [%s] fail", dir)
	}
	sort.Strings(files)

	keys := make([]string, 0, len(files))
	for _, rel := range files {
		key, err := u.UploadFile(ctx, runKey, dir, rel)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
		u.logger.WithField("key", key).Debug("uploaded")
	}

	u.logger.WithFields(logrus.Fields{
		"bucket": u.config.Bucket,
		"files":  len(keys),
	}).Info("output uploaded")
	return keys, nil
}
