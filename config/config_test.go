package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default().Bag, cfg.Bag)
	assert.Equal(t, Default().Prune, cfg.Prune)
	assert.Equal(t, Default().Split, cfg.Split)
	assert.Equal(t, 32, cfg.Bag.MaxBagSize)
	assert.True(t, cfg.Bag.KTag)
	assert.False(t, cfg.Bag.ExpandRels)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.yaml")
	content := `
seed: 7
output_dir: out
bag:
  max_bag_size: 16
  expand_rels: true
link:
  boundary: jieba
  min_sent_len: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("DSB_PRUNE_MIN_REL_GROUP", "3")
	t.Setenv(EnvKeyNeo4jPwd, "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 16, cfg.Bag.MaxBagSize)
	assert.True(t, cfg.Bag.ExpandRels)
	assert.True(t, cfg.Bag.KTag)
	assert.Equal(t, "jieba", cfg.Link.Boundary)
	assert.Equal(t, 5, cfg.Link.MinSentLen)
	assert.Equal(t, 256, cfg.Link.MaxSentLen)
	assert.Equal(t, 3, cfg.Prune.MinRelGroup)
	assert.Equal(t, "secret", cfg.Neo4j.Pwd)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	cases := map[string]func(cfg *Config){
		"test percent over 100":    func(cfg *Config) { cfg.Split.TestPercent = 120 },
		"negative dev percent":     func(cfg *Config) { cfg.Split.DevPercent = -1 },
		"negative NA percent":      func(cfg *Config) { cfg.Prune.NegativePercent = -5 },
		"empty bag":                func(cfg *Config) { cfg.Bag.MaxBagSize = 0 },
		"inverted relation bounds": func(cfg *Config) { cfg.Prune.MinRelGroup, cfg.Prune.MaxRelGroup = 20, 10 },
		"inverted sentence bounds": func(cfg *Config) { cfg.Link.MinSentLen, cfg.Link.MaxSentLen = 300, 256 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("split:\n  test_percent: 150\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
