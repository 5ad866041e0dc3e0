package prune

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/domain/sampling"
	"autograph-ds-builder/domain/vocab"
	"autograph-ds-builder/logging"
	"autograph-ds-builder/repository/groupstore"
)

func ent(i int) string {
	return fmt.Sprintf("ent%02d", i)
}

type fixture struct {
	graph *vocab.Graph
	pos   groupstore.Set
	neg   groupstore.Set
}

func newFixture(t *testing.T) *fixture {
	builder := vocab.NewBuilder()
	for i := 0; i < 20; i++ {
		builder.AddAlias(fmt.Sprintf("c%02d", i), ent(i))
	}

	pos := groupstore.NewMemorySet()
	relate := func(label string, pairs [][2]int, grounded bool) {
		for _, p := range pairs {
			builder.AddRelation(label, fmt.Sprintf("c%02d", p[0]), fmt.Sprintf("c%02d", p[1]))
			if grounded {
				require.Nil(t, pos.Add(record.JoinGroup(ent(p[0]), ent(p[1]))))
			}
		}
	}
	relate("r_small", [][2]int{{0, 1}, {2, 3}}, true)
	relate("r_ok", [][2]int{{4, 5}, {5, 6}, {6, 7}}, true)
	relate("r_ok2", [][2]int{{4, 6}, {4, 7}, {5, 7}, {7, 4}}, true)
	relate("r_ok2", [][2]int{{15, 16}}, false)
	relate("r_big", [][2]int{{8, 9}, {9, 10}, {10, 11}, {11, 12}, {12, 13}, {13, 14}}, true)

	neg := groupstore.NewMemorySet()
	for _, p := range [][2]int{{5, 4}, {6, 4}, {6, 5}, {7, 5}, {7, 6}, {4, 5}, {4, 0}, {8, 9}, {18, 19}} {
		require.Nil(t, neg.Add(record.JoinGroup(ent(p[0]), ent(p[1]))))
	}

	return &fixture{graph: builder.Build(), pos: pos, neg: neg}
}

func newSetting(t *testing.T, seed uint64) *PruneSetting {
	return &PruneSetting{
		Logger:          logging.NewLoggerWithConfig(logging.GenerateTestConfig(t)),
		Rand:            sampling.NewRand(seed),
		MinRelGroup:     3,
		MaxRelGroup:     5,
		NegativePercent: DefaultNegativePercent,
	}
}

func TestPrune(t *testing.T) {
	f := newFixture(t)

	result, err := Prune(newSetting(t, 1), f.graph, f.pos, f.neg)
	require.Nil(t, err)

	assert.Equal(t, map[string]int{"r_ok": 3, "r_ok2": 4}, result.RelationGroups)
	assert.Equal(t, map[string]int{"r_small": 2, "r_big": 6}, result.Dropped)
	assert.Equal(t, 7, result.Positives)
	assert.Equal(t, 4, result.Negatives)
	assert.Equal(t, 4, result.Entities)
	require.Len(t, result.Triples, 11)

	assert.True(t, sort.SliceIsSorted(result.Triples, func(i, j int) bool {
		return result.Triples[i].Less(result.Triples[j])
	}))

	surviving := map[string]struct{}{ent(4): {}, ent(5): {}, ent(6): {}, ent(7): {}}
	positives := map[string]struct{}{}
	counts := map[string]int{}
	for _, triple := range result.Triples {
		counts[triple.Relation]++
		if triple.Relation != record.NARelation {
			positives[triple.Group()] = struct{}{}
		}
	}
	for _, triple := range result.Triples {
		if triple.Relation != record.NARelation {
			continue
		}
		assert.Contains(t, surviving, triple.Src)
		assert.Contains(t, surviving, triple.Tgt)
		assert.NotContains(t, positives, triple.Group())
	}
	assert.Equal(t, map[string]int{"r_ok": 3, "r_ok2": 4, record.NARelation: 4}, counts)
}

func TestPrune_Deterministic(t *testing.T) {
	f := newFixture(t)
	first, err := Prune(newSetting(t, 42), f.graph, f.pos, f.neg)
	require.Nil(t, err)

	f = newFixture(t)
	second, err := Prune(newSetting(t, 42), f.graph, f.pos, f.neg)
	require.Nil(t, err)

	assert.Equal(t, first.Triples, second.Triples)
}

func TestPrune_NegativeFloor(t *testing.T) {
	builder := vocab.NewBuilder()
	pos := groupstore.NewMemorySet()
	neg := groupstore.NewMemorySet()
	for i := 0; i < 30; i++ {
		src, tgt := fmt.Sprintf("s%03d", i), fmt.Sprintf("t%03d", i)
		builder.AddAlias("S"+src, src)
		builder.AddAlias("T"+tgt, tgt)
		builder.AddRelation("rel", "S"+src, "T"+tgt)
		require.Nil(t, pos.Add(record.JoinGroup(src, tgt)))
		require.Nil(t, neg.Add(record.JoinGroup(tgt, src)))
	}

	setting := newSetting(t, 3)
	setting.MinRelGroup = DefaultMinRelGroup
	setting.MaxRelGroup = DefaultMaxRelGroup

	result, err := Prune(setting, builder.Build(), pos, neg)
	require.Nil(t, err)
	assert.Equal(t, 30, result.Positives)
	assert.Equal(t, 21, result.Negatives)
}
