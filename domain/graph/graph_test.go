package graph

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/domain/split"
	"autograph-ds-builder/logging"
	"autograph-ds-builder/repository/neograph"
)

func testKG() *KG {
	train := &split.Split{Name: "train", Triples: []record.Triple{
		{Src: "aspirin", Relation: "interacts", Tgt: "warfarin"},
		{Src: "aspirin", Relation: record.NARelation, Tgt: "ibuprofen"},
		{Src: "heparin", Relation: "interacts", Tgt: "aspirin"},
	}}
	test := &split.Split{Name: "test", Triples: []record.Triple{
		{Src: "drug, \"x\"", Relation: "treats", Tgt: "warfarin"},
	}}
	return Collect("run-1", train, test)
}

func TestCollect(t *testing.T) {
	kg := testKG()
	assert.Equal(t, []string{"aspirin", "drug, \"x\"", "heparin", "warfarin"}, kg.Entities)
	require.Len(t, kg.Edges, 3)
	assert.Equal(t, Edge{Split: "test", Head: "drug, \"x\"", Rel: "treats", Tail: "warfarin"}, kg.Edges[0])
	assert.Equal(t, "train", kg.Edges[1].Split)
}

func TestTransKGToCSV(t *testing.T) {
	setting := &KGSetting{Logger: logging.NewLoggerWithConfig(logging.GenerateTestConfig(t))}
	entities, relations, err := TransKGToCSV(setting, testKG())
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"run,name",
		"run-1,aspirin",
		"run-1,\"drug, \"\"x\"\"\"",
		"run-1,heparin",
		"run-1,warfarin",
		"",
	}, "\n"), string(entities))

	assert.Equal(t, strings.Join([]string{
		"run,split,head,rel,tail",
		"run-1,test,\"drug, \"\"x\"\"\",treats,warfarin",
		"run-1,train,aspirin,interacts,warfarin",
		"run-1,train,heparin,interacts,aspirin",
		"",
	}, "\n"), string(relations))
}

type fakeExecutor struct {
	calls []map[string]interface{}
	fail  bool
}

func (f *fakeExecutor) Execute(cypher string, params map[string]interface{}) (*neograph.Summary, error) {
	if f.fail {
		return nil, errors.New("unavailable")
	}
	f.calls = append(f.calls, params)
	rows := params["rows"].([]map[string]interface{})
	if strings.Contains(cypher, "Relation") {
		return &neograph.Summary{RelationshipsCreated: len(rows)}, nil
	}
	return &neograph.Summary{NodesCreated: len(rows)}, nil
}

func TestExportToNeo4j(t *testing.T) {
	setting := &KGSetting{Logger: logging.NewLoggerWithConfig(logging.GenerateTestConfig(t)), BatchSize: 3}
	executor := &fakeExecutor{}

	require.NoError(t, ExportToNeo4j(setting, executor, testKG()))

	// 4 entities in batches of 3, then 3 edges in one batch
	require.Len(t, executor.calls, 3)
	assert.Len(t, executor.calls[0]["rows"], 3)
	assert.Len(t, executor.calls[1]["rows"], 1)
	assert.Len(t, executor.calls[2]["rows"], 3)
	for _, call := range executor.calls {
		assert.Equal(t, "run-1", call["run"])
	}
}

func TestExportToNeo4jFail(t *testing.T) {
	setting := &KGSetting{Logger: logging.NewLoggerWithConfig(logging.GenerateTestConfig(t))}
	err := ExportToNeo4j(setting, &fakeExecutor{fail: true}, testKG())
	require.Error(t, err)
}
