package split

import (
	"math/rand/v2"
	"sort"

	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/domain/sampling"
)

/*
heldOutQuota 计算每个关系划入 held-out 的数量：总数为 ceil(n × percent / 100)，
先按比例向下取整，余下的名额按小数部分从大到小分配，小数部分相同时按关系名排序。
*/
func heldOutQuota(classes []string, counts map[string]int, n, percent int) map[string]int {
	total := (n*percent + 99) / 100

	type remainder struct {
		class string
		frac  int
	}

	quota := make(map[string]int, len(classes))
	remainders := make([]remainder, 0, len(classes))
	assigned := 0
	for _, class := range classes {
		scaled := counts[class] * total
		quota[class] = scaled / n
		assigned += quota[class]
		remainders = append(remainders, remainder{class: class, frac: scaled % n})
	}

	sort.SliceStable(remainders, func(i, j int) bool {
		return remainders[i].frac > remainders[j].frac
	})
	for i := 0; assigned < total && i < len(remainders); i++ {
		class := remainders[i].class
		if quota[class] < counts[class] {
			quota[class]++
			assigned++
		}
	}
	return quota
}

/*
Stratified 按关系分层划分三元组，held-out 部分约占 percent%，各关系在两部分中的比例一致。
相同的 rng 状态与输入总是得到相同的结果；两部分都按 (src, relation, tgt) 排序。
*/
func Stratified(rng *rand.Rand, triples []record.Triple, percent int) (rest, held []record.Triple) {
	if len(triples) == 0 {
		return nil, nil
	}

	byClass := make(map[string][]record.Triple)
	for _, triple := range triples {
		byClass[triple.Relation] = append(byClass[triple.Relation], triple)
	}

	classes := make([]string, 0, len(byClass))
	counts := make(map[string]int, len(byClass))
	for class, members := range byClass {
		classes = append(classes, class)
		counts[class] = len(members)
	}
	sort.Strings(classes)

	quota := heldOutQuota(classes, counts, len(triples), percent)
	for _, class := range classes {
		members := byClass[class]
		sortTriples(members)
		sampling.Shuffle(rng, members)

		held = append(held, members[:quota[class]]...)
		rest = append(rest, members[quota[class]:]...)
	}

	sortTriples(rest)
	sortTriples(held)
	return rest, held
}

func sortTriples(triples []record.Triple) {
	sort.Slice(triples, func(i, j int) bool {
		return triples[i].Less(triples[j])
	})
}

// dedupTriples sorts and removes duplicates in place.
func dedupTriples(triples []record.Triple) []record.Triple {
	sortTriples(triples)
	ret := triples[:0]
	for _, triple := range triples {
		if len(ret) > 0 && ret[len(ret)-1] == triple {
			continue
		}
		ret = append(ret, triple)
	}
	return ret
}
