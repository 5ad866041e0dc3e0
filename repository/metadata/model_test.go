package metadata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autograph-ds-builder/logging"
)

func openTestStore(t *testing.T) *Store {
	logger := logging.NewLoggerWithConfig(logging.GenerateTestConfig(t))
	store, err := Open(GenerateTestConfig(logger, t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMigration(t *testing.T) {
	store := openTestStore(t)
	assert.True(t, store.DatabaseRaw().Migrator().HasTable(&Run{}))
	assert.True(t, store.DatabaseRaw().Migrator().HasTable(&RunRelation{}))
	assert.True(t, store.DatabaseRaw().Migrator().HasTable(&RunSplit{}))
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)

	run, err := store.CreateRun("key-1", StageRun, 42, "out", map[string]int{"max_bag_size": 32})
	require.NoError(t, err)
	assert.NotZero(t, run.ID)
	assert.Equal(t, RunStatusDoing, run.Status)

	require.NoError(t, store.SaveRelations(run.ID,
		map[string]int{"interacts": 12, "treats": 20},
		map[string]int{"rare": 2}))
	require.NoError(t, store.SaveSplits(run.ID, []RunSplit{
		{Name: "train", Triples: 10, Lines: 10, Sentences: 320},
		{Name: "dev", Triples: 2, Lines: 2, Sentences: 64},
		{Name: "test", Triples: 3, Lines: 3, Sentences: 96},
	}))
	require.NoError(t, store.FinishRun(run.ID, map[string]map[string]int64{"link": {"linked": 5}}))

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusDone, got.Status)
	assert.NotNil(t, got.FinishedAt)
	assert.JSONEq(t, `{"link":{"linked":5}}`, got.CountersJSON)
	assert.JSONEq(t, `{"max_bag_size":32}`, got.ExtraJSON.String)

	require.Len(t, got.Relations, 3)
	assert.Equal(t, "interacts", got.Relations[0].Name)
	assert.True(t, got.Relations[0].Kept)
	assert.Equal(t, "rare", got.Relations[1].Name)
	assert.False(t, got.Relations[1].Kept)
	assert.Equal(t, 2, got.Relations[1].Groups)

	require.Len(t, got.Splits, 3)
	assert.Equal(t, "train", got.Splits[0].Name)

	byKey, err := store.GetRunByKey("key-1")
	require.NoError(t, err)
	assert.Equal(t, run.ID, byKey.ID)
}

func TestFailAndList(t *testing.T) {
	store := openTestStore(t)

	first, err := store.CreateRun("key-a", StageLink, 1, "out", nil)
	require.NoError(t, err)
	second, err := store.CreateRun("key-b", StageAlign, 1, "out", nil)
	require.NoError(t, err)

	require.NoError(t, store.FailRun(first.ID, errors.New("corpus missing")))

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, RunStatusFail, runs[1].Status)
	assert.Equal(t, "corpus missing", runs[1].Message)

	runs, err = store.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRunNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetRun(99)
	assert.True(t, errors.Is(err, ErrRunNotFound))

	err = store.FinishRun(99, nil)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}
