package align

import (
	"io"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/domain/stats"
	"autograph-ds-builder/repository/groupstore"
	"autograph-ds-builder/utils"
)

const (
	CounterSentences = "sentences"
	CounterGrounded  = "grounded"
	CounterEmitted   = "emitted"
	CounterPositives = "positives"
	CounterNegatives = "negatives"
)

type AlignSetting struct {
	Logger        *logrus.Logger
	Rand          *rand.Rand
	ProgressEvery int
}

// GroupSets global positive and negative group keys observed over a corpus.
type GroupSets struct {
	Pos groupstore.Set
	Neg groupstore.Set
}

/*
AlignCorpus 读取 {"sent","matches"} 记录，为每句生成正负样本，把同时含有正负样本的句子写为
{"sent","matches","groups"} 记录。

本句出现的所有正样本都会加入 sets.Pos（不论句子是否被输出）；只有被输出的负样本加入 sets.Neg。
*/
func AlignCorpus(setting *AlignSetting, known groupstore.Set, sets *GroupSets, in io.Reader, out io.Writer) (*stats.Counters, error) {
	sampler := NewSampler(known, setting.Rand)
	writer := record.NewJSONLWriter(out)
	counters := stats.NewCounters("align")

	err := record.ReadJSONL(in, func(line int, rec *record.LinkedSentence) error {
		counters.Inc(CounterSentences)
		if setting.ProgressEvery > 0 && line%setting.ProgressEvery == 0 {
			setting.Logger.Infof("processed %d linked sentences", line)
		}

		sample, err := sampler.Sample(rec.Matches)
		if err != nil {
			return utils.WrapErrorf(err, "sample line [%d] fail", line)
		}
		if len(sample.Common) != 0 {
			counters.Inc(CounterGrounded)
		}
		for _, key := range sample.Common {
			if err := sets.Pos.Add(key); err != nil {
				return utils.WrapError(err, "add positive group fail")
			}
		}

		if !sample.Emit() {
			return nil
		}
		for _, key := range sample.Groups.N {
			if err := sets.Neg.Add(key); err != nil {
				return utils.WrapError(err, "add negative group fail")
			}
		}

		counters.Inc(CounterEmitted)
		return writer.Write(&record.GroupLinkedSentence{
			Sent:    rec.Sent,
			Matches: rec.Matches,
			Groups:  sample.Groups,
		})
	})
	if err != nil {
		return counters, utils.WrapError(err, "align groups to sentences fail")
	}
	if err := writer.Flush(); err != nil {
		return counters, err
	}

	if err := countSets(counters, sets); err != nil {
		return counters, err
	}
	counters.Report(setting.Logger)
	return counters, nil
}

func countSets(counters *stats.Counters, sets *GroupSets) error {
	pos, err := sets.Pos.Len()
	if err != nil {
		return utils.WrapError(err, "count positive groups fail")
	}
	neg, err := sets.Neg.Len()
	if err != nil {
		return utils.WrapError(err, "count negative groups fail")
	}
	counters.Add(CounterPositives, int64(pos))
	counters.Add(CounterNegatives, int64(neg))
	return nil
}

/*
CollectGroups 从已有的 {"sent","matches","groups"} 文件重建全局正负样本集合，用于跳过对齐阶段重新运行。
*/
func CollectGroups(logger *logrus.Logger, sets *GroupSets, in io.Reader) (*stats.Counters, error) {
	counters := stats.NewCounters("align")

	err := record.ReadJSONL(in, func(line int, rec *record.GroupLinkedSentence) error {
		counters.Inc(CounterEmitted)
		for _, key := range rec.Groups.P {
			if err := sets.Pos.Add(key); err != nil {
				return err
			}
		}
		for _, key := range rec.Groups.N {
			if err := sets.Neg.Add(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return counters, utils.WrapError(err, "collect groups fail")
	}

	if err := countSets(counters, sets); err != nil {
		return counters, err
	}
	counters.Report(logger)
	return counters, nil
}
