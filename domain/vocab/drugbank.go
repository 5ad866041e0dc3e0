package vocab

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"autograph-ds-builder/utils"
)

var ErrMalformedLine = errors.New("malformed vocabulary line")

const (
	drugBankPredicateName        = "NAME"
	drugBankPredicateSynonym     = "SYNONYM"
	drugBankPredicateInteraction = "DRUG_INTERACTION"
)

func readTSV(r io.Reader, fields int, fn func(cols []string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}

		cols := strings.Split(line, "\t")
		if len(cols) != fields {
			return utils.WrapErrorf(ErrMalformedLine, "line [%d] expect [%d] fields, got [%d]", lineNo, fields, len(cols))
		}
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		fn(cols)
	}
	return scanner.Err()
}

/*
LoadDrugBank 从 DrugBank 导出的两份 TSV 构建 Graph。

meta 每行为 "cui\tpredicate\talias"，只取 NAME 与 SYNONYM；
ddi 每行为 "src\tpredicate\ttgt\tdescription"，只取 DRUG_INTERACTION，描述文本作为关系标签。

每个别名还会以下划线替换为空格的形式再登记一次。
*/
func LoadDrugBank(meta, ddi io.Reader, logger *logrus.Logger) (*Graph, error) {
	builder := NewBuilder()

	err := readTSV(meta, 3, func(cols []string) {
		cui, predicate, alias := cols[0], cols[1], cols[2]
		if predicate != drugBankPredicateName && predicate != drugBankPredicateSynonym {
			return
		}
		if !builder.AddAlias(cui, alias) {
			return
		}
		builder.addAlias(strings.ReplaceAll(cui, "_", " "), strings.ReplaceAll(alias, "_", " "))
	})
	if err != nil {
		return nil, utils.WrapError(err, "read drugbank concepts fail")
	}

	err = readTSV(ddi, 4, func(cols []string) {
		src, predicate, tgt, label := cols[0], cols[1], cols[2], cols[3]
		if predicate != drugBankPredicateInteraction {
			return
		}
		builder.AddRelation(label, src, tgt)
	})
	if err != nil {
		return nil, utils.WrapError(err, "read drugbank interactions fail")
	}

	graph := builder.Build()
	stats := graph.Stats()
	logger.Infof("collected %d CUIs, %d entity texts, %d relations, %d triples over %d groups",
		stats.CUIs, stats.Texts, stats.Relations, stats.Triples, stats.Groups)

	return graph, nil
}
