package tagger

import (
	"github.com/sirupsen/logrus"

	"autograph-ds-builder/domain/vocab"
)

type IndexSetting struct {
	Logger        *logrus.Logger
	CaseSensitive bool
	Boundary      Boundary
	DFA           bool
}

var globalSetting IndexSetting

func Init(setting *IndexSetting) {
	globalSetting = *setting
}

/*
NewEntityIndexFromGraph 使用 Init 设置的参数，以 graph 中全部表面形式构建 EntityIndex。
*/
func NewEntityIndexFromGraph(graph *vocab.Graph) (*EntityIndex, error) {
	return newEntityIndexFromGraph(&globalSetting, graph)
}
