package graph

import (
	"sort"

	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/domain/split"
)

/*
Edge 图谱中的一条边，Split 表示该三元组所属的划分。
*/
type Edge struct {
	Split string
	Head  string
	Rel   string
	Tail  string
}

/*
KG 由一次构建的 train/dev/test 三元组得到的图谱，NA 三元组不产生边和实体。

	RunKey 构建的标识，写入每个节点和边的 run 属性；
	Entities 有序、去重的实体名；
	Edges 按 (Split, Head, Rel, Tail) 排序；
*/
type KG struct {
	RunKey   string
	Entities []string
	Edges    []Edge
}

func Collect(runKey string, splits ...*split.Split) *KG {
	entities := make(map[string]struct{})
	kg := &KG{RunKey: runKey}

	for _, s := range splits {
		for _, triple := range s.Triples {
			if triple.Relation == record.NARelation {
				continue
			}
			entities[triple.Src] = struct{}{}
			entities[triple.Tgt] = struct{}{}
			kg.Edges = append(kg.Edges, Edge{Split: s.Name, Head: triple.Src, Rel: triple.Relation, Tail: triple.Tgt})
		}
	}

	kg.Entities = make([]string, 0, len(entities))
	for name := range entities {
		kg.Entities = append(kg.Entities, name)
	}
	sort.Strings(kg.Entities)

	sort.Slice(kg.Edges, func(i, j int) bool {
		a, b := kg.Edges[i], kg.Edges[j]
		if a.Split != b.Split {
			return a.Split < b.Split
		}
		if a.Head != b.Head {
			return a.Head < b.Head
		}
		if a.Rel != b.Rel {
			return a.Rel < b.Rel
		}
		return a.Tail < b.Tail
	})
	return kg
}
