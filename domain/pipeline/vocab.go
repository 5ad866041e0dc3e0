package pipeline

import (
	"io"
	"os"

	"autograph-ds-builder/domain/vocab"
	"autograph-ds-builder/utils"
)

/*
Vocab 加载知识库图。配置了 DrugBank 的两份 TSV 时从中解析，并把结果保存到 vocab.path；
否则直接读取 vocab.path。
*/
func (p *Pipeline) Vocab() (*vocab.Graph, error) {
	cfg := p.cfg.Vocab
	if cfg.DrugBankMeta == "" || cfg.DrugBankDDI == "" {
		var graph *vocab.Graph
		err := readFile(cfg.Path, func(r io.Reader) error {
			var err error
			graph, err = vocab.Load(r)
			return err
		})
		if err != nil {
			return nil, utils.WrapError(err, "load vocab fail")
		}
		p.logStats(graph)
		return graph, nil
	}

	meta, err := os.Open(cfg.DrugBankMeta)
	if err != nil {
		return nil, utils.WrapErrorf(err, "open [%s] fail", cfg.DrugBankMeta)
	}
	defer meta.Close()

	ddi, err := os.Open(cfg.DrugBankDDI)
	if err != nil {
		return nil, utils.WrapErrorf(err, "open [%s] fail", cfg.DrugBankDDI)
	}
	defer ddi.Close()

	graph, err := vocab.LoadDrugBank(meta, ddi, p.logger)
	if err != nil {
		return nil, utils.WrapError(err, "load drugbank fail")
	}
	p.logStats(graph)

	if cfg.Path != "" {
		if err := writeFile(cfg.Path, graph.Save); err != nil {
			return nil, utils.WrapError(err, "save vocab fail")
		}
		p.logger.Infof("vocab saved to %s", cfg.Path)
	}
	return graph, nil
}

func (p *Pipeline) logStats(graph *vocab.Graph) {
	s := graph.Stats()
	p.logger.WithField("cuis", s.CUIs).
		WithField("texts", s.Texts).
		WithField("relations", s.Relations).
		WithField("triples", s.Triples).
		WithField("groups", s.Groups).
		Info("vocab loaded")
}
