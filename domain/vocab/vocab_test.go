package vocab

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autograph-ds-builder/logging"
)

func buildTestGraph() *Graph {
	builder := NewBuilder()
	builder.AddAlias("C1", "Drug X")
	builder.AddAlias("C1", "DX")
	builder.AddAlias("C2", "Drug Y")
	builder.AddAlias("C2", "drugy")
	builder.AddRelation("increases_toxicity", "C1", "C2")
	builder.AddRelation("decreases_effect", "C2", "C1")
	return builder.Build()
}

func TestBuilder_ShortAliasDropped(t *testing.T) {
	graph := buildTestGraph()

	assert.Equal(t, []string{"Drug X"}, graph.Texts("C1"))
	assert.False(t, graph.HasText("DX"))
	assert.Equal(t, []string{"Drug X", "Drug Y", "drugy"}, graph.SurfaceForms())
	assert.Equal(t, []string{"C2"}, graph.CUIsOf("drugy"))
	assert.Empty(t, graph.CUIsOf("missing"))
}

func TestGraph_GroupRelations(t *testing.T) {
	graph := buildTestGraph()

	assert.Equal(t, []string{"decreases_effect", "increases_toxicity"}, graph.Relations())
	assert.Equal(t, []Pair{{Src: "C1", Tgt: "C2"}}, graph.Pairs("increases_toxicity"))

	groups := graph.GroupRelations()
	assert.Equal(t, []string{"increases_toxicity"}, groups[Pair{Src: "C1", Tgt: "C2"}])
	assert.Equal(t, []string{"decreases_effect"}, groups[Pair{Src: "C2", Tgt: "C1"}])

	stats := graph.Stats()
	assert.Equal(t, Stats{CUIs: 2, Texts: 3, Relations: 2, Triples: 2, Groups: 2}, stats)
}

func TestGraph_SaveLoad(t *testing.T) {
	graph := buildTestGraph()

	var buf bytes.Buffer
	require.NoError(t, graph.Save(&buf))
	first := buf.String()

	loaded, err := Load(strings.NewReader(first))
	require.NoError(t, err)
	assert.Equal(t, graph.SurfaceForms(), loaded.SurfaceForms())
	assert.Equal(t, graph.Relations(), loaded.Relations())
	assert.Equal(t, graph.Pairs("decreases_effect"), loaded.Pairs("decreases_effect"))

	buf.Reset()
	require.NoError(t, loaded.Save(&buf))
	assert.Equal(t, first, buf.String())
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	_, err := Load(strings.NewReader(`{"version":99,"entities":[],"relations":[]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))
}

func TestLoadDrugBank(t *testing.T) {
	logger := logging.NewLoggerWithConfig(logging.GenerateTestConfig(t))

	meta := strings.Join([]string{
		"DB_001\tNAME\tLepirudin",
		"DB_001\tSYNONYM\tHirudin_variant",
		"DB_001\tSYNONYM\tLP",
		"DB_001\tCATEGORY\tAnticoagulants",
		"DB_002\tNAME\tCetuximab ",
	}, "\n")
	ddi := strings.Join([]string{
		"DB_001\tDRUG_INTERACTION\tDB_002\tincreases bleeding",
		"DB_001\tTARGET\tDB_002\tignored",
	}, "\n")

	graph, err := LoadDrugBank(strings.NewReader(meta), strings.NewReader(ddi), logger)
	require.NoError(t, err)

	assert.Equal(t, []string{"DB 001", "DB 002", "DB_001", "DB_002"}, graph.CUIs())
	assert.Equal(t, []string{"Hirudin_variant", "Lepirudin"}, graph.Texts("DB_001"))
	assert.Equal(t, []string{"Hirudin variant", "Lepirudin"}, graph.Texts("DB 001"))
	assert.Equal(t, []string{"Cetuximab"}, graph.Texts("DB_002"))
	assert.Equal(t, []string{"increases bleeding"}, graph.Relations())
	assert.Equal(t, []Pair{{Src: "DB_001", Tgt: "DB_002"}}, graph.Pairs("increases bleeding"))
}

func TestLoadDrugBank_Malformed(t *testing.T) {
	logger := logging.NewLoggerWithConfig(logging.GenerateTestConfig(t))

	_, err := LoadDrugBank(strings.NewReader("DB_001\tNAME"), strings.NewReader(""), logger)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedLine))
}
