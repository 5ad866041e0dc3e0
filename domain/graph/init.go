package graph

import (
	"github.com/sirupsen/logrus"

	"autograph-ds-builder/repository/neograph"
)

const DefaultBatchSize = 1000

/*
Executor 执行一条带参数的 Cypher 语句，由 neograph.Client 实现。
*/
type Executor interface {
	Execute(cypher string, params map[string]interface{}) (*neograph.Summary, error)
}

type KGSetting struct {
	Logger    *logrus.Logger
	BatchSize int
}

func (s *KGSetting) batchSize() int {
	if s.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return s.BatchSize
}
