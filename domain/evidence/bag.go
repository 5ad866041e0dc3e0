package evidence

import (
	"io"
	"math/rand/v2"
	"sort"

	"github.com/sirupsen/logrus"

	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/domain/sampling"
	"autograph-ds-builder/domain/stats"
	"autograph-ds-builder/utils"
)

const DefaultMaxBagSize = 32

const (
	CounterRecords   = "records"
	CounterTagged    = "tagged"
	CounterUnordered = "unordered"
	CounterBags      = "bags"
)

type BagSetting struct {
	Logger        *logrus.Logger
	Rand          *rand.Rand
	MaxBagSize    int
	KTag          bool
	ExpandRels    bool
	ProgressEvery int
}

// Directional reports whether bags are kept apart per direction.
func (s *BagSetting) Directional() bool {
	return s.ExpandRels || !s.KTag
}

// BagKey identifies one bag; Dir is DirNone when both directions share a bag.
type BagKey struct {
	Src string
	Tgt string
	Dir int
}

type Bag struct {
	Relations []string
	Sentences []string

	// E1 and E2 are set on directional bags only.
	E1 *string
	E2 *string
}

type Result struct {
	// Triples restricted to groups with at least one bag, sorted.
	Triples []record.Triple
	Bags    map[BagKey]*Bag
}

type groupEvidence struct {
	dirs  []int
	byDir map[int][]string
}

func (g *groupEvidence) add(dir int, sent string) {
	if _, ok := g.byDir[dir]; !ok {
		g.dirs = append(g.dirs, dir)
	}
	g.byDir[dir] = append(g.byDir[dir], sent)
}

type bagger struct {
	// inputs
	setting *BagSetting

	// state
	groupRelations map[string][]string
	evidence       map[string]*groupEvidence
	counters       *stats.Counters

	// outputs
	result Result
}

func (b *bagger) index(triples []record.Triple) {
	relationSets := make(map[string]map[string]struct{})
	for _, triple := range triples {
		key := triple.Group()
		set, ok := relationSets[key]
		if !ok {
			set = make(map[string]struct{})
			relationSets[key] = set
		}
		set[triple.Relation] = struct{}{}
	}

	b.groupRelations = make(map[string][]string, len(relationSets))
	for key, set := range relationSets {
		relations := make([]string, 0, len(set))
		for relation := range set {
			relations = append(relations, relation)
		}
		sort.Strings(relations)
		b.groupRelations[key] = relations
	}
}

func (b *bagger) scan(line int, rec *record.GroupLinkedSentence) error {
	b.counters.Inc(CounterRecords)
	if b.setting.ProgressEvery > 0 && line%b.setting.ProgressEvery == 0 {
		b.setting.Logger.Infof("processed %d lines for linking to triples", line)
	}

	candidates := make(map[string]struct{}, len(rec.Groups.P)+len(rec.Groups.N))
	for _, list := range [][]string{rec.Groups.P, rec.Groups.N} {
		for _, key := range list {
			if _, ok := b.groupRelations[key]; ok {
				candidates[key] = struct{}{}
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	common := make([]string, 0, len(candidates))
	for key := range candidates {
		common = append(common, key)
	}
	sort.Strings(common)

	for _, key := range common {
		src, tgt, ok := record.SplitGroup(key)
		if !ok {
			return utils.WrapErrorf(record.ErrMalformedRecord, "group [%q] is not a pair", key)
		}

		tagged, dir, ok, err := Tag(rec.Sent, rec.Matches, src, tgt, b.setting.KTag)
		if err != nil {
			return utils.WrapErrorf(err, "tag line [%d] fail", line)
		}
		if !ok {
			b.counters.Inc(CounterUnordered)
			continue
		}
		b.counters.Inc(CounterTagged)

		ev, exist := b.evidence[key]
		if !exist {
			ev = &groupEvidence{byDir: make(map[int][]string)}
			b.evidence[key] = ev
		}
		ev.add(dir, tagged)
	}
	return nil
}

func (b *bagger) normalize() {
	keys := make([]string, 0, len(b.evidence))
	for key := range b.evidence {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	b.result.Bags = make(map[BagKey]*Bag)
	size := b.setting.MaxBagSize
	for _, key := range keys {
		src, tgt, _ := record.SplitGroup(key)
		ev := b.evidence[key]
		relations := b.groupRelations[key]

		if !b.setting.Directional() {
			var merged []string
			for _, dir := range ev.dirs {
				merged = append(merged, ev.byDir[dir]...)
			}
			b.result.Bags[BagKey{Src: src, Tgt: tgt, Dir: DirNone}] = &Bag{
				Relations: relations,
				Sentences: sampling.Normalize(b.setting.Rand, merged, size),
			}
			continue
		}

		for _, dir := range ev.dirs {
			e1, e2 := src, tgt
			if dir == DirBackward {
				e1, e2 = tgt, src
			}
			b.result.Bags[BagKey{Src: src, Tgt: tgt, Dir: dir}] = &Bag{
				Relations: relations,
				Sentences: sampling.Normalize(b.setting.Rand, ev.byDir[dir], size),
				E1:        utils.StringToPtr(e1),
				E2:        utils.StringToPtr(e2),
			}
		}
	}

	for _, key := range keys {
		src, tgt, _ := record.SplitGroup(key)
		for _, relation := range b.groupRelations[key] {
			b.result.Triples = append(b.result.Triples, record.Triple{Src: src, Relation: relation, Tgt: tgt})
		}
	}
	sort.Slice(b.result.Triples, func(i, j int) bool {
		return b.result.Triples[i].Less(b.result.Triples[j])
	})
	b.counters.Add(CounterBags, int64(len(b.result.Bags)))
}

/*
Collect 重新扫描 {"sent","matches","groups"} 记录，为属于 triples 的实体对收集标注后的句子，
并把每个证据包调整为恰好 MaxBagSize 句。
*/
func Collect(setting *BagSetting, triples []record.Triple, in io.Reader) (*Result, *stats.Counters, error) {
	b := bagger{
		setting:  setting,
		evidence: make(map[string]*groupEvidence),
		counters: stats.NewCounters("evidence"),
	}
	b.index(triples)

	if err := record.ReadJSONL(in, b.scan); err != nil {
		return nil, b.counters, utils.WrapError(err, "collect evidence fail")
	}
	b.normalize()

	b.counters.Report(setting.Logger)
	setting.Logger.Infof("no. of triples after filtering: %d", len(b.result.Triples))
	return &b.result, b.counters, nil
}
