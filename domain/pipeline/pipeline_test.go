package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autograph-ds-builder/config"
	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/domain/vocab"
	"autograph-ds-builder/logging"
	"autograph-ds-builder/repository/metadata"
)

const pairs = 10

func agent(i int) string  { return fmt.Sprintf("agent%c", 'a'+i%pairs) }
func target(i int) string { return fmt.Sprintf("target%c", 'a'+i%pairs) }

/*
prepare 写出词表和语料：每句以 Intro 开头（最靠前的实体不会被保留），随后是一个知识库中的
(agent_i, target_i) 对和下一个 agent，因此每句恰好有一个正样本和一个负样本。
*/
func prepare(t *testing.T) *config.Config {
	return prepareWith(t, nil)
}

// prepareWith 同 prepare，extra 可以追加词表条目和语料行。
func prepareWith(t *testing.T, extra func(builder *vocab.Builder, corpus *strings.Builder)) *config.Config {
	dir := t.TempDir()

	builder := vocab.NewBuilder()
	builder.AddAlias("C_INTRO", "Intro")
	for i := 0; i < pairs; i++ {
		builder.AddAlias(fmt.Sprintf("CA%d", i), agent(i))
		builder.AddAlias(fmt.Sprintf("CT%d", i), target(i))
		builder.AddRelation("interacts", fmt.Sprintf("CA%d", i), fmt.Sprintf("CT%d", i))
	}

	var corpus strings.Builder
	corpus.WriteString("short\n\n")
	for i := 0; i < pairs; i++ {
		fmt.Fprintf(&corpus, "Intro notes that %s binds %s near %s.\n", agent(i), target(i), agent(i+1))
	}
	if extra != nil {
		extra(builder, &corpus)
	}
	graph := builder.Build()

	vocabPath := filepath.Join(dir, "vocab.json")
	file, err := os.Create(vocabPath)
	require.NoError(t, err)
	require.NoError(t, graph.Save(file))
	require.NoError(t, file.Close())

	corpusPath := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(corpusPath, []byte(corpus.String()), 0o644))

	cfg := config.Default()
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.Seed = 7
	cfg.Vocab.Path = vocabPath
	cfg.Link.Corpus = corpusPath
	cfg.Link.MinSentLen = 10
	cfg.Link.MaxSentLen = 200
	cfg.Link.Workers = 2
	cfg.Link.BatchSize = 3
	cfg.Prune.MinRelGroup = 1
	cfg.Prune.MaxRelGroup = 100
	cfg.Prune.NegativePercent = 100
	cfg.Bag.MaxBagSize = 4
	return cfg
}

func countLines(t *testing.T, path string) int {
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Count(string(content), "\n")
}

func readTriples(t *testing.T, path string) []record.Triple {
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	triples, err := record.ReadTriples(file)
	require.NoError(t, err)
	return triples
}

func TestRun(t *testing.T) {
	cfg := prepare(t)
	logger := logging.NewLoggerWithConfig(logging.GenerateTestConfig(t))

	store, err := metadata.Open(metadata.GenerateTestConfig(logger, t.TempDir()))
	require.NoError(t, err)
	defer store.Close()

	p := New(cfg, logger, Services{Metadata: store})
	result, err := p.Run(context.Background(), metadata.StageRun)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, pairs, countLines(t, p.path(FileLinked)))
	assert.Equal(t, pairs, countLines(t, p.path(FileGroups)))

	assert.Equal(t, pairs, result.Prune.Positives)
	assert.Equal(t, pairs, result.Prune.Negatives)
	assert.Len(t, readTriples(t, p.path(FileTriples)), 2*pairs)
	assert.Equal(t, 2*pairs, countLines(t, p.path(FileEntities)))

	relations, err := os.ReadFile(p.path(FileRelations))
	require.NoError(t, err)
	assert.Equal(t, "NA\ninteracts\n", string(relations))

	train := readTriples(t, p.path(SplitTriplesFile("train")))
	test := readTriples(t, p.path(SplitTriplesFile("test")))
	dev := readTriples(t, p.path(SplitTriplesFile("dev")))
	assert.NotEmpty(t, test)
	seen := make(map[record.Triple]string)
	for name, triples := range map[string][]record.Triple{"train": train, "dev": dev, "test": test} {
		for _, triple := range triples {
			other, ok := seen[triple]
			assert.Falsef(t, ok, "%v in both %s and %s", triple, name, other)
			seen[triple] = name
		}
	}

	for _, name := range []string{"train", "dev", "test"} {
		file, err := os.Open(p.path(SplitLinesFile(name)))
		require.NoError(t, err)
		err = record.ReadJSONL(bufio.NewReader(file), func(line int, rec *record.EvidenceLine) error {
			assert.Len(t, rec.Sentences, cfg.Bag.MaxBagSize)
			for _, sent := range rec.Sentences {
				assert.Contains(t, sent, "$")
				assert.Contains(t, sent, "^")
			}
			return nil
		})
		require.NoError(t, file.Close())
		require.NoError(t, err)
	}

	_, err = os.Stat(p.path(FileEntityCSV))
	assert.NoError(t, err)
	_, err = os.Stat(p.path(FileRelationCSV))
	assert.NoError(t, err)

	run, err := store.GetRunByKey(p.RunKey())
	require.NoError(t, err)
	assert.Equal(t, metadata.RunStatusDone, run.Status)
	require.Len(t, run.Splits, 3)
	require.Len(t, run.Relations, 1)
	assert.Equal(t, "interacts", run.Relations[0].Name)
	assert.True(t, run.Relations[0].Kept)
	assert.Contains(t, run.CountersJSON, `"linked":10`)
	assert.NotContains(t, run.ExtraJSON.String, "Pwd")
}

func TestBuildIsReproducible(t *testing.T) {
	cfg := prepare(t)
	logger := logging.NewLoggerWithConfig(logging.GenerateTestConfig(t))

	_, err := New(cfg, logger, Services{}).Run(context.Background(), metadata.StageLink)
	require.NoError(t, err)
	_, err = New(cfg, logger, Services{}).Run(context.Background(), metadata.StageAlign)
	require.NoError(t, err)

	outputs := func() []string {
		var ret []string
		for _, name := range []string{FileTriples, SplitTriplesFile("test"), SplitLinesFile("train")} {
			content, err := os.ReadFile(filepath.Join(cfg.OutputDir, name))
			require.NoError(t, err)
			ret = append(ret, string(content))
		}
		return ret
	}

	_, err = New(cfg, logger, Services{}).Run(context.Background(), metadata.StageBuild)
	require.NoError(t, err)
	first := outputs()

	_, err = New(cfg, logger, Services{}).Run(context.Background(), metadata.StageBuild)
	require.NoError(t, err)
	assert.Equal(t, first, outputs())
}

func TestRunFailureIsRecorded(t *testing.T) {
	cfg := prepare(t)
	cfg.Link.Corpus = filepath.Join(t.TempDir(), "absent.txt")
	logger := logging.NewLoggerWithConfig(logging.GenerateTestConfig(t))

	store, err := metadata.Open(metadata.GenerateTestConfig(logger, t.TempDir()))
	require.NoError(t, err)
	defer store.Close()

	p := New(cfg, logger, Services{Metadata: store})
	_, err = p.Run(context.Background(), metadata.StageRun)
	require.Error(t, err)

	run, err := store.GetRunByKey(p.RunKey())
	require.NoError(t, err)
	assert.Equal(t, metadata.RunStatusFail, run.Status)
	assert.Contains(t, run.Message, "open corpus")

	_, err = New(cfg, logger, Services{}).Run(context.Background(), "unknown")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStage))
}

func TestTripleVocabularies(t *testing.T) {
	triples := []record.Triple{
		{Src: "b", Relation: "treats", Tgt: "c"},
		{Src: "a", Relation: record.NARelation, Tgt: "c"},
		{Src: "a", Relation: "interacts", Tgt: "b"},
	}
	assert.Equal(t, []string{"a", "b", "c"}, tripleEntities(triples))
	assert.Equal(t, []string{record.NARelation, "interacts", "treats"}, tripleRelations(triples))
	assert.Equal(t, []string{"treats"}, tripleRelations(triples[:1]))
}

func TestVocabulariesOnlyKeepEvidencedTriples(t *testing.T) {
	// 该句只含一个知识库实体对，采样得不到负样本，不会写入 groups.jsonl。
	cfg := prepareWith(t, func(builder *vocab.Builder, corpus *strings.Builder) {
		builder.AddAlias("C_LONELY_1", "lonelyone")
		builder.AddAlias("C_LONELY_2", "lonelytwo")
		builder.AddRelation("interacts", "C_LONELY_1", "C_LONELY_2")
		corpus.WriteString("Intro notes that lonelyone binds lonelytwo.\n")
	})
	logger := logging.NewLoggerWithConfig(logging.GenerateTestConfig(t))

	p := New(cfg, logger, Services{})
	result, err := p.Run(context.Background(), metadata.StageRun)
	require.NoError(t, err)

	assert.Equal(t, pairs+1, result.Prune.Positives)
	assert.Len(t, result.Evidence.Triples, 2*pairs)

	for _, name := range []string{FileTriples, FileEntities, FileRelations} {
		content, err := os.ReadFile(p.path(name))
		require.NoError(t, err)
		assert.NotContainsf(t, string(content), "lonely", "%s", name)
	}
	assert.Len(t, readTriples(t, p.path(FileTriples)), 2*pairs)
	assert.Equal(t, 2*pairs, countLines(t, p.path(FileEntities)))
}

func TestRunWithExpandedRelations(t *testing.T) {
	cfg := prepare(t)
	cfg.Bag.ExpandRels = true
	logger := logging.NewLoggerWithConfig(logging.GenerateTestConfig(t))

	p := New(cfg, logger, Services{})
	result, err := p.Run(context.Background(), metadata.StageRun)
	require.NoError(t, err)

	require.NotEmpty(t, result.Splits.Relations)
	for _, relation := range result.Splits.Relations {
		if relation != record.NARelation {
			assert.True(t, strings.HasSuffix(relation, record.ForwardSuffix) ||
				strings.HasSuffix(relation, record.BackwardSuffix), relation)
		}
	}
	require.NoError(t, p.checkSplitRelations(result.Splits))

	result.Splits.Relations = append(result.Splits.Relations, "treats(e1,e2)")
	err = p.checkSplitRelations(result.Splits)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownRelation))
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := prepare(t)
	cfg.Split.TestPercent = 150
	logger := logging.NewLoggerWithConfig(logging.GenerateTestConfig(t))

	_, err := New(cfg, logger, Services{}).Run(context.Background(), metadata.StageRun)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}
