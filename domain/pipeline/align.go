package pipeline

import (
	"io"

	"autograph-ds-builder/domain/align"
	"autograph-ds-builder/domain/stats"
	"autograph-ds-builder/domain/vocab"
	"autograph-ds-builder/utils"
)

const (
	setKnown     = "known"
	setPositives = "positives"
	setNegatives = "negatives"
)

func (p *Pipeline) openSets() (*align.GroupSets, error) {
	pos, err := p.groups(setPositives)
	if err != nil {
		return nil, utils.WrapError(err, "open positive set fail")
	}
	neg, err := p.groups(setNegatives)
	if err != nil {
		_ = pos.Close()
		return nil, utils.WrapError(err, "open negative set fail")
	}
	return &align.GroupSets{Pos: pos, Neg: neg}, nil
}

// CloseSets releases both sets returned by Align or Resume.
func CloseSets(sets *align.GroupSets) error {
	errPos := sets.Pos.Close()
	errNeg := sets.Neg.Close()
	if errPos != nil {
		return errPos
	}
	return errNeg
}

/*
Align 读取 linked.jsonl，为每句生成正负样本组合，写出 groups.jsonl，并返回全局正负样本集合。
调用方负责 CloseSets。
*/
func (p *Pipeline) Align(graph *vocab.Graph) (*align.GroupSets, error) {
	known, err := p.groups(setKnown)
	if err != nil {
		return nil, utils.WrapError(err, "open known set fail")
	}
	defer known.Close()

	if err := align.KnownGroups(graph, known); err != nil {
		return nil, err
	}
	size, err := known.Len()
	if err != nil {
		return nil, utils.WrapError(err, "count known groups fail")
	}
	p.logger.Infof("known groups: %d", size)

	sets, err := p.openSets()
	if err != nil {
		return nil, err
	}

	setting := &align.AlignSetting{
		Logger:        p.logger,
		Rand:          p.rand(streamAlign),
		ProgressEvery: p.cfg.ProgressEvery,
	}
	var counters *stats.Counters
	err = readFile(p.path(FileLinked), func(r io.Reader) error {
		return writeFile(p.path(FileGroups), func(w io.Writer) error {
			counters, err = align.AlignCorpus(setting, known, sets, r, w)
			return err
		})
	})
	p.record(counters)
	if err != nil {
		_ = CloseSets(sets)
		return nil, err
	}
	return sets, nil
}

/*
Resume 从已有的 groups.jsonl 重建全局正负样本集合，跳过标注和对齐阶段。调用方负责 CloseSets。
*/
func (p *Pipeline) Resume() (*align.GroupSets, error) {
	sets, err := p.openSets()
	if err != nil {
		return nil, err
	}

	var counters *stats.Counters
	err = readFile(p.path(FileGroups), func(r io.Reader) error {
		counters, err = align.CollectGroups(p.logger, sets, r)
		return err
	})
	p.record(counters)
	if err != nil {
		_ = CloseSets(sets)
		return nil, err
	}
	return sets, nil
}
