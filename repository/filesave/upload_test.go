package filesave

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autograph-ds-builder/logging"
)

type fakePutter struct {
	lock    sync.Mutex
	objects map[string]string
	types   map[string]string
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	f.objects[aws.ToString(params.Key)] = string(data)
	f.types[aws.ToString(params.Key)] = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestUploadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train.jsonl"), []byte("{}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "triples.tsv"), []byte("a\tr\tb\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".train.jsonl.123"), []byte("partial"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "graph"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graph", "entities.csv"), []byte("name\n"), 0o644))

	fake := &fakePutter{objects: map[string]string{}, types: map[string]string{}}
	cfg := GenerateTestConfig()
	uploader := NewUploader(fake, cfg, logging.NewLoggerWithConfig(logging.GenerateTestConfig(t)))

	keys, err := uploader.UploadDir(context.Background(), "run-1", dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"test/run-1/graph/entities.csv",
		"test/run-1/train.jsonl",
		"test/run-1/triples.tsv",
	}, keys)
	assert.Equal(t, "a\tr\tb\n", fake.objects["test/run-1/triples.tsv"])
	assert.Equal(t, "application/x-ndjson", fake.types["test/run-1/train.jsonl"])
	assert.Equal(t, "text/tab-separated-values", fake.types["test/run-1/triples.tsv"])
}

func TestUploadMissingDir(t *testing.T) {
	fake := &fakePutter{objects: map[string]string{}, types: map[string]string{}}
	uploader := NewUploader(fake, GenerateTestConfig(), logging.NewLoggerWithConfig(logging.GenerateTestConfig(t)))

	_, err := uploader.UploadDir(context.Background(), "run-1", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}
