package linkqueue

import (
	"github.com/sirupsen/logrus"
)

const (
	QueueLinkInput  = "ds_link_input"
	QueueLinkOutput = "ds_link_output"
)

type Config struct {
	Logger         *logrus.Logger
	RabbitMQConfig MQConnectionConfig
}

func (c *Config) queues() []string {
	return []string{
		QueueLinkInput,
		QueueLinkOutput,
	}
}
