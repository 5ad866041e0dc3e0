package vocab

import (
	"sort"
	"unicode/utf8"
)

// MinAliasLen aliases no longer than this many characters are dropped as noise.
const MinAliasLen = 2

type Pair struct {
	Src string
	Tgt string
}

func (p Pair) Less(o Pair) bool {
	if p.Src != o.Src {
		return p.Src < o.Src
	}
	return p.Tgt < o.Tgt
}

type set map[string]struct{}

func (s set) add(v string) {
	s[v] = struct{}{}
}

func (s set) sorted() []string {
	ret := make([]string, 0, len(s))
	for v := range s {
		ret = append(ret, v)
	}
	sort.Strings(ret)
	return ret
}

/*
Graph 知识库词表：CUI 与其表面形式之间的双向映射，以及关系标签到 (CUI, CUI) 对的映射。

Graph 构建后不可修改，可在多个 goroutine 间只读共享。所有返回切片的方法都返回排好序的副本。
*/
type Graph struct {
	cuiToTexts map[string]set
	textToCUIs map[string]set
	relations  map[string]map[Pair]struct{}
}

// CUIs returns every concept id in ascending order.
func (g *Graph) CUIs() []string {
	ret := make([]string, 0, len(g.cuiToTexts))
	for cui := range g.cuiToTexts {
		ret = append(ret, cui)
	}
	sort.Strings(ret)
	return ret
}

// SurfaceForms returns every alias of every concept in ascending order.
func (g *Graph) SurfaceForms() []string {
	ret := make([]string, 0, len(g.textToCUIs))
	for text := range g.textToCUIs {
		ret = append(ret, text)
	}
	sort.Strings(ret)
	return ret
}

func (g *Graph) Texts(cui string) []string {
	return g.cuiToTexts[cui].sorted()
}

func (g *Graph) CUIsOf(text string) []string {
	return g.textToCUIs[text].sorted()
}

func (g *Graph) HasText(text string) bool {
	_, ok := g.textToCUIs[text]
	return ok
}

func (g *Graph) Relations() []string {
	ret := make([]string, 0, len(g.relations))
	for label := range g.relations {
		ret = append(ret, label)
	}
	sort.Strings(ret)
	return ret
}

func (g *Graph) Pairs(label string) []Pair {
	pairs := g.relations[label]
	ret := make([]Pair, 0, len(pairs))
	for p := range pairs {
		ret = append(ret, p)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Less(ret[j])
	})
	return ret
}

/*
GroupRelations 返回 CUI 对到关系标签列表的映射，标签按字典序排列。
*/
func (g *Graph) GroupRelations() map[Pair][]string {
	ret := make(map[Pair][]string)
	for _, label := range g.Relations() {
		for p := range g.relations[label] {
			ret[p] = append(ret[p], label)
		}
	}
	return ret
}

type Stats struct {
	CUIs      int
	Texts     int
	Relations int
	Triples   int
	Groups    int
}

func (g *Graph) Stats() Stats {
	groups := make(map[Pair]struct{})
	triples := 0
	for _, pairs := range g.relations {
		triples += len(pairs)
		for p := range pairs {
			groups[p] = struct{}{}
		}
	}
	return Stats{
		CUIs:      len(g.cuiToTexts),
		Texts:     len(g.textToCUIs),
		Relations: len(g.relations),
		Triples:   triples,
		Groups:    len(groups),
	}
}

/*
Builder 用于构建 Graph，不是并发安全的。Build 之后不应再使用该 Builder。
*/
type Builder struct {
	graph *Graph
}

func NewBuilder() *Builder {
	return &Builder{
		graph: &Graph{
			cuiToTexts: make(map[string]set),
			textToCUIs: make(map[string]set),
			relations:  make(map[string]map[Pair]struct{}),
		},
	}
}

// AddAlias registers text as a surface form of cui. Returns false when the alias is too short.
func (b *Builder) AddAlias(cui, text string) bool {
	if utf8.RuneCountInString(text) <= MinAliasLen {
		return false
	}
	b.addAlias(cui, text)
	return true
}

func (b *Builder) addAlias(cui, text string) {
	texts, ok := b.graph.cuiToTexts[cui]
	if !ok {
		texts = make(set)
		b.graph.cuiToTexts[cui] = texts
	}
	texts.add(text)

	cuis, ok := b.graph.textToCUIs[text]
	if !ok {
		cuis = make(set)
		b.graph.textToCUIs[text] = cuis
	}
	cuis.add(cui)
}

func (b *Builder) AddRelation(label, src, tgt string) {
	pairs, ok := b.graph.relations[label]
	if !ok {
		pairs = make(map[Pair]struct{})
		b.graph.relations[label] = pairs
	}
	pairs[Pair{Src: src, Tgt: tgt}] = struct{}{}
}

func (b *Builder) Build() *Graph {
	ret := b.graph
	b.graph = nil
	return ret
}
