package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"autograph-ds-builder/config"
	"autograph-ds-builder/domain/linkqueue"
	"autograph-ds-builder/domain/pipeline"
	"autograph-ds-builder/logging"
	"autograph-ds-builder/repository/filesave"
	"autograph-ds-builder/repository/metadata"
	"autograph-ds-builder/repository/neograph"
	"autograph-ds-builder/utils"
	"autograph-ds-builder/utils/email"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ds-builder",
	Short: "Build distant-supervision relation-extraction corpora from a knowledge base and raw text",
	Long: `ds-builder aligns a knowledge base of entities and relations with a raw text corpus
and writes train/dev/test evidence bags for multi-instance relation extraction.

Stages: link -> align -> build. "run" executes all of them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		logging.SetDefaultConfig(loggingConf())
		email.Init(emailConf())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (DSB_* environment variables override it)")
}

func parseLevel(level string, fallback logrus.Level) logrus.Level {
	ret, err := logrus.ParseLevel(level)
	if err != nil {
		return fallback
	}
	return ret
}

func loggingConf() *logging.Config {
	return &logging.Config{
		FileLevel:    parseLevel(cfg.Logging.FileLevel, logrus.DebugLevel),
		ConsoleLevel: parseLevel(cfg.Logging.ConsoleLevel, logrus.InfoLevel),
		FileDir:      cfg.Logging.FileDir,
		DisableFile:  cfg.Logging.DisableFile,
	}
}

func emailConf() *email.Config {
	if !cfg.Email.Enabled {
		return &email.Config{}
	}

	return &email.Config{SMTP: email.SMTPConfig{
		Identity: cfg.Email.SMTP.Identity,
		Host:     cfg.Email.SMTP.Host,
		Port:     cfg.Email.SMTP.Port,
		UserName: cfg.Email.SMTP.UserName,
		Password: cfg.Email.SMTP.Password,
	}}
}

func metadataConf() *metadata.Config {
	return &metadata.Config{
		Logger: logging.NewLogger(),
		Driver: cfg.Metadata.Driver,
		MySQL: metadata.MySQLConfig{
			User:     cfg.Metadata.MySQL.User,
			Password: cfg.Metadata.MySQL.Pwd,
			Host:     cfg.Metadata.MySQL.Host,
			Port:     cfg.Metadata.MySQL.Port,
			Database: cfg.Metadata.MySQL.DB,
		},
		SQLitePath:     cfg.Metadata.SQLitePath,
		CheckMigration: cfg.Metadata.CheckMigration,
	}
}

func neographConf() *neograph.Config {
	return &neograph.Config{
		Logger: logging.NewLogger(),
		Neo4j: neograph.Neo4jConfig{
			Host: cfg.Neo4j.Host,
			Port: cfg.Neo4j.Port,
			User: cfg.Neo4j.User,
			Pwd:  cfg.Neo4j.Pwd,
		},
	}
}

func filesaveConf() *filesave.Config {
	return &filesave.Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		Bucket:    cfg.S3.Bucket,
		Prefix:    cfg.S3.Prefix,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
	}
}

func linkqueueConf() linkqueue.Config {
	return linkqueue.Config{
		Logger: logging.NewLogger(),
		RabbitMQConfig: linkqueue.MQConnectionConfig{
			User: cfg.RabbitMQ.User,
			Pwd:  cfg.RabbitMQ.Pwd,
			Host: cfg.RabbitMQ.Host,
			Port: cfg.RabbitMQ.Port,
		},
	}
}

/*
openServices 按配置连接外部服务，返回的 closer 释放全部连接。
*/
func openServices(ctx context.Context) (pipeline.Services, func(), error) {
	var services pipeline.Services
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	logger := logging.NewLogger()

	if cfg.Metadata.Enabled {
		store, err := metadata.Open(metadataConf())
		if err != nil {
			return services, closeAll, err
		}
		services.Metadata = store
		closers = append(closers, func() {
			if err := store.Close(); err != nil {
				logger.WithError(err).Warn("close metadata fail")
			}
		})
	}

	if cfg.Neo4j.Enabled {
		client, err := neograph.NewClient(neographConf())
		if err != nil {
			return services, closeAll, err
		}
		services.Neo4j = client
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				logger.WithError(err).Warn("close neo4j fail")
			}
		})
	}

	if cfg.S3.Enabled {
		client, err := filesave.NewS3Client(ctx, filesaveConf())
		if err != nil {
			return services, closeAll, err
		}
		services.Uploader = filesave.NewUploader(client, filesaveConf(), logger)
	}

	if cfg.Email.Enabled {
		services.NotifyTo = cfg.Email.To
	}

	return services, closeAll, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Default().WithError(err).Errorf("ds-builder fail:\n%+v", utils.WrapError(err, "execute command fail"))
		os.Exit(1)
	}
}
