package graph

import (
	"bytes"
	"encoding/csv"

	"github.com/sirupsen/logrus"

	"autograph-ds-builder/utils"
)

/*
TransKGToCSV 把图谱转换为 entities.csv（run,name）和 relations.csv（run,split,head,rel,tail）两份内容。
*/
func TransKGToCSV(setting *KGSetting, kg *KG) ([]byte, []byte, error) {
	builder := &csvBuilder{
		kg:     kg,
		logger: setting.Logger,
	}

	if err := builder.buildCSV(); err != nil {
		return nil, nil, utils.WrapError(err, "build csv fail")
	}

	return builder.entityCSV.Bytes(), builder.relationCSV.Bytes(), nil
}

type csvBuilder struct {
	// input
	kg     *KG
	logger *logrus.Logger

	// output
	entityCSV   bytes.Buffer
	relationCSV bytes.Buffer
}

func (b *csvBuilder) buildCSV() error {
	entityWriter := csv.NewWriter(&b.entityCSV)
	relationWriter := csv.NewWriter(&b.relationCSV)

	// 写文件头
	if err := entityWriter.Write([]string{"run", "name"}); err != nil {
		return utils.WrapError(err, "write entity header fail")
	}
	if err := relationWriter.Write([]string{"run", "split", "head", "rel", "tail"}); err != nil {
		return utils.WrapError(err, "write relation header fail")
	}

	for _, name := range b.kg.Entities {
		if err := entityWriter.Write([]string{b.kg.RunKey, name}); err != nil {
			return utils.WrapErrorf(err, "record entity [%#v] fail", name)
		}
	}

	for _, edge := range b.kg.Edges {
		if err := relationWriter.Write([]string{b.kg.RunKey, edge.Split, edge.Head, edge.Rel, edge.Tail}); err != nil {
			return utils.WrapErrorf(err, "record spo <%#v, %#v, %#v> fail", edge.Head, edge.Rel, edge.Tail)
		}
	}

	entityWriter.Flush()
	relationWriter.Flush()
	if err := entityWriter.Error(); err != nil {
		return utils.WrapError(err, "flush entity csv fail")
	}
	if err := relationWriter.Error(); err != nil {
		return utils.WrapError(err, "flush relation csv fail")
	}

	b.logger.WithFields(logrus.Fields{
		"entities":  len(b.kg.Entities),
		"relations": len(b.kg.Edges),
	}).Info("kg csv built")
	return nil
}
