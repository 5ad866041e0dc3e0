package prune

import (
	"math/rand/v2"
	"sort"

	"github.com/sirupsen/logrus"

	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/domain/sampling"
	"autograph-ds-builder/domain/vocab"
	"autograph-ds-builder/repository/groupstore"
	"autograph-ds-builder/utils"
)

const (
	DefaultMinRelGroup = 10
	DefaultMaxRelGroup = 1500

	// NegativePercent share of pruned positives kept as NA groups.
	DefaultNegativePercent = 70
)

type PruneSetting struct {
	Logger          *logrus.Logger
	Rand            *rand.Rand
	MinRelGroup     int
	MaxRelGroup     int
	NegativePercent int
}

type Result struct {
	// Triples sorted by (src, relation, tgt), NA included.
	Triples []record.Triple

	// RelationGroups surviving relation -> number of supported groups.
	RelationGroups map[string]int

	// Dropped relation -> number of supported groups, for relations outside the bounds.
	Dropped map[string]int

	Positives int
	Negatives int
	Entities  int
}

type pruner struct {
	// inputs
	setting *PruneSetting
	graph   *vocab.Graph
	pos     groupstore.Set
	neg     groupstore.Set

	// outputs
	relationToGroups map[string]map[string]struct{}
	result           Result
}

// supportedGroups maps each relation to the grounded surface groups of its CUI pairs.
func (p *pruner) supportedGroups() error {
	p.relationToGroups = make(map[string]map[string]struct{})

	groupRelations := p.graph.GroupRelations()
	pairs := make([]vocab.Pair, 0, len(groupRelations))
	for pair := range groupRelations {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Less(pairs[j])
	})

	for idx, pair := range pairs {
		if idx%1000000 == 0 && idx != 0 {
			p.setting.Logger.Infof("mapped %d of %d CUI groups", idx, len(pairs))
		}

		tgtTexts := p.graph.Texts(pair.Tgt)
		for _, src := range p.graph.Texts(pair.Src) {
			for _, tgt := range tgtTexts {
				key := record.JoinGroup(src, tgt)
				ok, err := p.pos.Has(key)
				if err != nil {
					return utils.WrapError(err, "check positive group fail")
				}
				if !ok {
					continue
				}
				for _, label := range groupRelations[pair] {
					groups, exist := p.relationToGroups[label]
					if !exist {
						groups = make(map[string]struct{})
						p.relationToGroups[label] = groups
					}
					groups[key] = struct{}{}
				}
			}
		}
	}
	return nil
}

func (p *pruner) pruneRelations() {
	p.setting.Logger.Infof("no. of relations before pruning: %d", len(p.relationToGroups))

	p.result.Dropped = make(map[string]int)
	p.result.RelationGroups = make(map[string]int)
	for label, groups := range p.relationToGroups {
		n := len(groups)
		if n < p.setting.MinRelGroup || n > p.setting.MaxRelGroup {
			p.result.Dropped[label] = n
			delete(p.relationToGroups, label)
			continue
		}
		p.result.RelationGroups[label] = n
	}

	dropped := make([]string, 0, len(p.result.Dropped))
	for label := range p.result.Dropped {
		dropped = append(dropped, label)
	}
	sort.Strings(dropped)
	for _, label := range dropped {
		p.setting.Logger.Infof("relation [%s] pruned with %d groups outside [%d, %d]",
			label, p.result.Dropped[label], p.setting.MinRelGroup, p.setting.MaxRelGroup)
	}
	p.setting.Logger.Infof("no. of relations after pruning: %d", len(p.relationToGroups))
}

func (p *pruner) sampleNegatives(positives map[string]struct{}, entities map[string]struct{}) ([]string, error) {
	var candidates []string
	err := p.neg.Each(func(key string) error {
		src, tgt, ok := record.SplitGroup(key)
		if !ok {
			return utils.WrapErrorf(record.ErrMalformedRecord, "negative group [%q] is not a pair", key)
		}
		if _, ok := positives[key]; ok {
			return nil
		}
		_, srcOK := entities[src]
		_, tgtOK := entities[tgt]
		if srcOK && tgtOK {
			candidates = append(candidates, key)
		}
		return nil
	})
	if err != nil {
		return nil, utils.WrapError(err, "filter negative groups fail")
	}
	p.setting.Logger.Infof("negative groups within surviving entities: %d", len(candidates))

	sampling.Shuffle(p.setting.Rand, candidates)
	limit := len(positives) * p.setting.NegativePercent / 100
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (p *pruner) run() error {
	if err := p.supportedGroups(); err != nil {
		return err
	}
	p.pruneRelations()

	positives := make(map[string]struct{})
	entities := make(map[string]struct{})
	for label, groups := range p.relationToGroups {
		for key := range groups {
			positives[key] = struct{}{}
			src, tgt, _ := record.SplitGroup(key)
			entities[src] = struct{}{}
			entities[tgt] = struct{}{}
			p.result.Triples = append(p.result.Triples, record.Triple{Src: src, Relation: label, Tgt: tgt})
		}
	}
	p.setting.Logger.Infof("positive groups after pruning: %d, entities: %d", len(positives), len(entities))

	negatives, err := p.sampleNegatives(positives, entities)
	if err != nil {
		return err
	}
	for _, key := range negatives {
		src, tgt, _ := record.SplitGroup(key)
		p.result.Triples = append(p.result.Triples, record.Triple{Src: src, Relation: record.NARelation, Tgt: tgt})
	}

	sort.Slice(p.result.Triples, func(i, j int) bool {
		return p.result.Triples[i].Less(p.result.Triples[j])
	})
	p.result.Positives = len(positives)
	p.result.Negatives = len(negatives)
	p.result.Entities = len(entities)
	p.setting.Logger.Infof("no. of triples (including NA): %d", len(p.result.Triples))
	return nil
}

/*
Prune 依据全局正样本集合统计每个关系的有效组合数，删除组合数不在 [MinRelGroup, MaxRelGroup] 内的关系，
再从两端都属于剩余实体的负样本中随机保留 floor(NegativePercent% × 正样本组合数) 个，标注为 NA。
*/
func Prune(setting *PruneSetting, graph *vocab.Graph, pos, neg groupstore.Set) (*Result, error) {
	p := pruner{
		setting: setting,
		graph:   graph,
		pos:     pos,
		neg:     neg,
	}
	if err := p.run(); err != nil {
		return nil, utils.WrapError(err, "prune relations fail")
	}
	return &p.result, nil
}
