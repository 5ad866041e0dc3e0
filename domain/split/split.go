package split

import (
	"math/rand/v2"
	"sort"

	"github.com/sirupsen/logrus"

	"autograph-ds-builder/domain/evidence"
	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/domain/sampling"
)

const (
	DefaultTestPercent = 20
	DefaultDevPercent  = 10
)

type SplitSetting struct {
	Logger      *logrus.Logger
	Rand        *rand.Rand
	MaxBagSize  int
	KTag        bool
	ExpandRels  bool
	TestPercent int
	DevPercent  int
}

func (s *SplitSetting) directional() bool {
	return s.ExpandRels || !s.KTag
}

type Split struct {
	Name    string
	Triples []record.Triple
	Lines   []record.EvidenceLine
}

func (s *Split) Sentences() int {
	n := 0
	for _, line := range s.Lines {
		n += len(line.Sentences)
	}
	return n
}

func (s *Split) report(logger *logrus.Logger, stage string) {
	logger.WithFields(logrus.Fields{
		"split":     s.Name,
		"groups":    len(s.Lines),
		"sentences": s.Sentences(),
		"triples":   len(s.Triples),
	}).Info(stage)
}

type Splits struct {
	Train Split
	Dev   Split
	Test  Split

	// Relations final relation labels; direction-suffixed when relations are expanded.
	Relations []string
}

/*
Lines 把三元组展开为证据行：每个实体对的每个方向的证据包，按包内属于 triples 的每个关系各生成一行。
关系按方向展开时，非 NA 关系加上 "(e1,e2)" 或 "(e2,e1)" 后缀。
*/
func Lines(triples []record.Triple, bags map[evidence.BagKey]*evidence.Bag, directional, expandRels bool) []record.EvidenceLine {
	groups := make(map[[2]string]map[string]struct{})
	for _, triple := range triples {
		group := [2]string{triple.Src, triple.Tgt}
		if groups[group] == nil {
			groups[group] = make(map[string]struct{})
		}
		groups[group][triple.Relation] = struct{}{}
	}
	ordered := make([][2]string, 0, len(groups))
	for group := range groups {
		ordered = append(ordered, group)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i][0] != ordered[j][0] {
			return ordered[i][0] < ordered[j][0]
		}
		return ordered[i][1] < ordered[j][1]
	})

	dirs := []int{evidence.DirNone}
	if directional {
		dirs = []int{evidence.DirBackward, evidence.DirForward}
	}

	var ret []record.EvidenceLine
	for _, group := range ordered {
		for _, dir := range dirs {
			bag, ok := bags[evidence.BagKey{Src: group[0], Tgt: group[1], Dir: dir}]
			if !ok {
				continue
			}
			for _, relation := range bag.Relations {
				if _, ok := groups[group][relation]; !ok {
					continue
				}
				if expandRels && relation != record.NARelation {
					if dir == evidence.DirForward {
						relation += record.ForwardSuffix
					} else {
						relation += record.BackwardSuffix
					}
				}
				ret = append(ret, record.EvidenceLine{
					Group:     group,
					Relation:  relation,
					Sentences: append([]string(nil), bag.Sentences...),
					E1:        bag.E1,
					E2:        bag.E2,
					RelDir:    dir,
				})
			}
		}
	}
	return ret
}

/*
RemoveOverlap 从 train 的证据包中删除在 held 中出现过的句子（比较时去掉标记字符），
删空的行被丢弃，其余行重新调整为 size 句。
*/
func RemoveOverlap(rng *rand.Rand, train, held []record.EvidenceLine, size int) []record.EvidenceLine {
	heldSentences := make(map[string]struct{})
	for _, line := range held {
		for _, sent := range line.Sentences {
			heldSentences[evidence.StripMarkers(sent)] = struct{}{}
		}
	}

	ret := make([]record.EvidenceLine, 0, len(train))
	for _, line := range train {
		kept := make([]string, 0, len(line.Sentences))
		for _, sent := range line.Sentences {
			if _, ok := heldSentences[evidence.StripMarkers(sent)]; !ok {
				kept = append(kept, sent)
			}
		}
		if len(kept) == 0 {
			continue
		}
		line.Sentences = sampling.Normalize(rng, kept, size)
		ret = append(ret, line)
	}
	return ret
}

// lineTriples derives triples from lines, oriented (e1, relation, e2) when byRole is set.
func lineTriples(lines []record.EvidenceLine, byRole bool) []record.Triple {
	ret := make([]record.Triple, 0, len(lines))
	for _, line := range lines {
		triple := record.Triple{Src: line.Group[0], Relation: line.Relation, Tgt: line.Group[1]}
		if byRole && line.E1 != nil && line.E2 != nil {
			triple.Src, triple.Tgt = *line.E1, *line.E2
		}
		ret = append(ret, triple)
	}
	return dedupTriples(ret)
}

/*
Build 将带证据的三元组按关系分层划分为 train/dev/test（test 取 TestPercent%，dev 取余下部分的 DevPercent%），
展开为证据行，并先后以 test、dev 为准从 train 中去除重叠句子。各划分的行在返回前被打乱。
*/
func Build(setting *SplitSetting, result *evidence.Result) *Splits {
	rng := setting.Rand
	trainDev, test := Stratified(rng, result.Triples, setting.TestPercent)
	train, dev := Stratified(rng, trainDev, setting.DevPercent)

	ret := Splits{
		Train: Split{Name: "train", Triples: train},
		Dev:   Split{Name: "dev", Triples: dev},
		Test:  Split{Name: "test", Triples: test},
	}
	setting.Logger.Infof("train triples: %d, dev triples: %d, test triples: %d", len(train), len(dev), len(test))

	directional := setting.directional()
	ret.Train.Lines = Lines(train, result.Bags, directional, setting.ExpandRels)
	ret.Dev.Lines = Lines(dev, result.Bags, directional, setting.ExpandRels)
	ret.Test.Lines = Lines(test, result.Bags, directional, setting.ExpandRels)

	ret.Train.report(setting.Logger, "before removing overlapping sentences")
	ret.Train.Lines = RemoveOverlap(rng, ret.Train.Lines, ret.Test.Lines, setting.MaxBagSize)
	ret.Train.Lines = RemoveOverlap(rng, ret.Train.Lines, ret.Dev.Lines, setting.MaxBagSize)
	ret.Train.Triples = lineTriples(ret.Train.Lines, false)
	ret.Train.report(setting.Logger, "after removing overlapping sentences")

	relations := make(map[string]struct{})
	if setting.ExpandRels {
		for _, split := range []*Split{&ret.Train, &ret.Dev, &ret.Test} {
			split.Triples = lineTriples(split.Lines, true)
			for _, line := range split.Lines {
				relations[line.Relation] = struct{}{}
			}
		}
	} else {
		for _, triple := range result.Triples {
			relations[triple.Relation] = struct{}{}
		}
	}
	ret.Relations = make([]string, 0, len(relations))
	for relation := range relations {
		ret.Relations = append(ret.Relations, relation)
	}
	sort.Strings(ret.Relations)

	for _, split := range []*Split{&ret.Train, &ret.Dev, &ret.Test} {
		sampling.Shuffle(rng, split.Lines)
		split.report(setting.Logger, "final")
	}
	return &ret
}
