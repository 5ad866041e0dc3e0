package pipeline

import (
	"context"
	"io"
	"os"

	"autograph-ds-builder/domain/linking"
	"autograph-ds-builder/domain/linkqueue"
	"autograph-ds-builder/domain/stats"
	"autograph-ds-builder/domain/tagger"
	"autograph-ds-builder/domain/vocab"
	"autograph-ds-builder/utils"
)

func (p *Pipeline) IndexSetting() (*tagger.IndexSetting, error) {
	boundary, err := tagger.ParseBoundary(p.cfg.Link.Boundary)
	if err != nil {
		return nil, err
	}
	return &tagger.IndexSetting{
		Logger:        p.logger,
		CaseSensitive: p.cfg.Link.CaseSensitive,
		Boundary:      boundary,
		DFA:           p.cfg.Link.DFA,
	}, nil
}

func (p *Pipeline) filter() *linking.SentenceFilter {
	return linking.NewSentenceFilter(p.cfg.Link.MinSentLen, p.cfg.Link.MaxSentLen, []rune(p.cfg.Link.Separators))
}

/*
Link 把语料中的句子与知识库实体对齐，写出 linked.jsonl。link.distributed 为 true 时句子经 RabbitMQ
分发给 link-worker 处理，否则在本进程内并行标注。
*/
func (p *Pipeline) Link(ctx context.Context, graph *vocab.Graph) error {
	corpus, err := os.Open(p.cfg.Link.Corpus)
	if err != nil {
		return utils.WrapErrorf(err, "open corpus [%s] fail", p.cfg.Link.Corpus)
	}
	defer corpus.Close()

	var counters *stats.Counters
	if p.cfg.Link.Distributed {
		err = writeFile(p.path(FileLinked), func(w io.Writer) error {
			counters, err = linkqueue.Dispatch(ctx, &linkqueue.DispatchSetting{
				Config: linkqueue.Config{
					Logger: p.logger,
					RabbitMQConfig: linkqueue.MQConnectionConfig{
						User: p.cfg.RabbitMQ.User,
						Pwd:  p.cfg.RabbitMQ.Pwd,
						Host: p.cfg.RabbitMQ.Host,
						Port: p.cfg.RabbitMQ.Port,
					},
				},
				Filter:    p.filter(),
				BatchSize: p.cfg.Link.BatchSize,
			}, corpus, w)
			return err
		})
		p.record(counters)
		return err
	}

	setting, err := p.IndexSetting()
	if err != nil {
		return err
	}
	index, err := tagger.NewEntityIndex(setting, graph.SurfaceForms())
	if err != nil {
		return utils.WrapError(err, "build entity index fail")
	}
	defer index.Close()
	p.logger.Infof("entity index built with %d patterns", index.Size())

	err = writeFile(p.path(FileLinked), func(w io.Writer) error {
		counters, err = linking.LinkCorpus(ctx, &linking.LinkSetting{
			Logger:        p.logger,
			Filter:        p.filter(),
			Workers:       p.cfg.Link.Workers,
			BatchSize:     p.cfg.Link.BatchSize,
			ProgressEvery: p.cfg.ProgressEvery,
		}, index, corpus, w)
		return err
	})
	p.record(counters)
	return err
}
