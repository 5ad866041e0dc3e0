package align

import (
	"math/rand/v2"
	"sort"

	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/domain/sampling"
	"autograph-ds-builder/repository/groupstore"
	"autograph-ds-builder/utils"
)

const (
	corruptTarget = 0
	corruptSource = 1
)

/*
Sampler 为一个已标注实体的句子生成正负样本对。

正样本：句中两两实体组成的有序对中，出现在知识库已知组合里的那些。
负样本：对每个正样本 (src, tgt) 掷硬币，替换 tgt（或 src）为句中与保留一端共现的其他实体，
且替换结果不能是本句的正样本。
*/
type Sampler struct {
	known groupstore.Set
	rng   *rand.Rand
}

func NewSampler(known groupstore.Set, rng *rand.Rand) *Sampler {
	return &Sampler{
		known: known,
		rng:   rng,
	}
}

type Sample struct {
	Groups record.Groups

	// Common holds every grounded pair of the sentence, emitted or not.
	Common []string
}

func (s *Sample) Emit() bool {
	return len(s.Groups.P) != 0 && len(s.Groups.N) != 0
}

func (s *Sampler) Sample(matches map[string]record.Span) (*Sample, error) {
	texts := make([]string, 0, len(matches))
	for text := range matches {
		texts = append(texts, text)
	}
	sort.Strings(texts)

	// texts are sorted and distinct, so both adjacency lists come out sorted.
	lhs2rhs := make(map[string][]string, len(texts))
	rhs2lhs := make(map[string][]string, len(texts))
	common := make(map[string]struct{})
	var commonKeys []string

	for _, src := range texts {
		for _, tgt := range texts {
			if src == tgt {
				continue
			}
			lhs2rhs[src] = append(lhs2rhs[src], tgt)
			rhs2lhs[tgt] = append(rhs2lhs[tgt], src)

			key := record.JoinGroup(src, tgt)
			ok, err := s.known.Has(key)
			if err != nil {
				return nil, utils.WrapError(err, "check known group fail")
			}
			if ok {
				common[key] = struct{}{}
				commonKeys = append(commonKeys, key)
			}
		}
	}

	negatives := make(map[string]struct{})
	for _, key := range commonKeys {
		src, tgt, _ := record.SplitGroup(key)

		if sampling.Coin(s.rng) == corruptTarget {
			for _, corrupt := range lhs2rhs[src] {
				negative := record.JoinGroup(src, corrupt)
				if _, ok := common[negative]; !ok {
					negatives[negative] = struct{}{}
				}
			}
		} else {
			for _, corrupt := range rhs2lhs[tgt] {
				negative := record.JoinGroup(corrupt, tgt)
				if _, ok := common[negative]; !ok {
					negatives[negative] = struct{}{}
				}
			}
		}
	}

	ret := Sample{Common: commonKeys}
	if len(commonKeys) == 0 || len(negatives) == 0 {
		return &ret, nil
	}

	n := make([]string, 0, len(negatives))
	for key := range negatives {
		n = append(n, key)
	}
	sort.Strings(n)
	sampling.Shuffle(s.rng, n)
	if len(n) > len(commonKeys) {
		n = n[:len(commonKeys)]
	}

	ret.Groups = record.Groups{
		P: append([]string(nil), commonKeys...),
		N: n,
	}
	return &ret, nil
}
