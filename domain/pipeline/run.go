package pipeline

import (
	"context"
	"errors"

	"autograph-ds-builder/config"
	"autograph-ds-builder/domain/align"
	"autograph-ds-builder/domain/split"
	"autograph-ds-builder/repository/metadata"
	"autograph-ds-builder/utils"
)

var ErrUnknownStage = errors.New("unknown stage")

/*
Run 执行 stage 对应的阶段：

	link  标注语料，写出 linked.jsonl；
	align 对齐样本，写出 groups.jsonl；
	build 从已有的 groups.jsonl 恢复样本集合，完成剪枝、证据包和划分；
	run   依次执行以上全部阶段；

配置了 Metadata 时，运行的开始、结束、各阶段计数器以及关系和划分的统计都会被记录。
*/
func (p *Pipeline) Run(ctx context.Context, stage string) (*BuildResult, error) {
	var run *metadata.Run
	if p.services.Metadata != nil {
		var err error
		run, err = p.services.Metadata.CreateRun(p.runKey, stage, p.cfg.Seed, p.cfg.OutputDir, p.snapshot())
		if err != nil {
			return nil, err
		}
	}

	p.logger.WithField("run", p.runKey).WithField("stage", stage).Info("run started")
	result, err := p.run(ctx, stage)

	if run != nil {
		if recordErr := p.finish(run.ID, result, err); recordErr != nil {
			p.logger.WithError(recordErr).Error("record run fail")
			if err == nil {
				err = recordErr
			}
		}
	}
	if err != nil {
		p.logger.WithError(err).WithField("run", p.runKey).Error("run failed")
		return nil, err
	}

	if result != nil {
		if err := p.notify(result); err != nil {
			p.logger.WithError(err).Warn("send build report fail")
		}
	}
	p.logger.WithField("run", p.runKey).Info("run finished")
	return result, nil
}

// runSnapshot is the part of the configuration that determines the outputs; credentials are left out.
type runSnapshot struct {
	Seed  uint64             `json:"seed"`
	Vocab config.VocabConfig `json:"vocab"`
	Link  config.LinkConfig  `json:"link"`
	Prune config.PruneConfig `json:"prune"`
	Bag   config.BagConfig   `json:"bag"`
	Split config.SplitConfig `json:"split"`
}

func (p *Pipeline) snapshot() *runSnapshot {
	return &runSnapshot{
		Seed:  p.cfg.Seed,
		Vocab: p.cfg.Vocab,
		Link:  p.cfg.Link,
		Prune: p.cfg.Prune,
		Bag:   p.cfg.Bag,
		Split: p.cfg.Split,
	}
}

func (p *Pipeline) run(ctx context.Context, stage string) (*BuildResult, error) {
	switch stage {
	case metadata.StageLink, metadata.StageAlign, metadata.StageBuild, metadata.StageRun:
	default:
		return nil, utils.WrapErrorf(ErrUnknownStage, "run stage [%s] fail", stage)
	}
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	graph, err := p.Vocab()
	if err != nil {
		return nil, err
	}

	if stage == metadata.StageLink || stage == metadata.StageRun {
		if err := p.Link(ctx, graph); err != nil {
			return nil, utils.WrapError(err, "link stage fail")
		}
		if stage == metadata.StageLink {
			return nil, nil
		}
	}

	var sets *align.GroupSets
	if stage == metadata.StageBuild {
		sets, err = p.Resume()
	} else {
		sets, err = p.Align(graph)
	}
	if err != nil {
		return nil, utils.WrapError(err, "align stage fail")
	}
	defer func() {
		if err := CloseSets(sets); err != nil {
			p.logger.WithError(err).Warn("close group sets fail")
		}
	}()

	if stage == metadata.StageAlign {
		return nil, nil
	}
	return p.Build(ctx, graph, sets)
}

func (p *Pipeline) finish(runID uint, result *BuildResult, cause error) error {
	store := p.services.Metadata
	if cause != nil {
		return store.FailRun(runID, cause)
	}

	if result != nil {
		if err := store.SaveRelations(runID, result.Prune.RelationGroups, result.Prune.Dropped); err != nil {
			return err
		}
		rows := make([]metadata.RunSplit, 0, 3)
		for _, s := range result.splits() {
			rows = append(rows, splitRow(s))
		}
		if err := store.SaveSplits(runID, rows); err != nil {
			return err
		}
	}
	return store.FinishRun(runID, p.Counters())
}

func splitRow(s *split.Split) metadata.RunSplit {
	return metadata.RunSplit{
		Name:      s.Name,
		Triples:   len(s.Triples),
		Lines:     len(s.Lines),
		Sentences: s.Sentences(),
	}
}
