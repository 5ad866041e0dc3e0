package pipeline

import (
	"math/rand/v2"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"autograph-ds-builder/config"
	"autograph-ds-builder/domain/graph"
	"autograph-ds-builder/domain/sampling"
	"autograph-ds-builder/domain/stats"
	"autograph-ds-builder/repository/filesave"
	"autograph-ds-builder/repository/groupstore"
	"autograph-ds-builder/repository/metadata"
)

// output files, relative to config.OutputDir
const (
	FileLinked         = "linked.jsonl"
	FileGroups         = "groups.jsonl"
	FileTriples        = "triples.tsv"
	FileEntities       = "entities.txt"
	FileRelations      = "relations.txt"
	FileSplitRelations = "split_relations.txt"
	FileEntityCSV      = "graph/entities.csv"
	FileRelationCSV    = "graph/relations.csv"
)

func SplitTriplesFile(split string) string {
	return split + "_triples.tsv"
}

func SplitLinesFile(split string) string {
	return split + ".jsonl"
}

// every stage draws from its own stream so that stages can be rerun separately
const (
	streamAlign uint64 = iota + 1
	streamPrune
	streamBag
	streamSplit
)

/*
Services 可选的外部依赖，为 nil 时跳过对应步骤。

	Metadata 记录运行信息；
	Neo4j 导出图谱；
	Uploader 上传输出目录；
	NotifyTo 构建完成后通知的邮箱，需要 email.Init 已配置 SMTP；
*/
type Services struct {
	Metadata *metadata.Store
	Neo4j    graph.Executor
	Uploader *filesave.Uploader
	NotifyTo string
}

type Pipeline struct {
	cfg      *config.Config
	logger   *logrus.Logger
	services Services
	groups   groupstore.Factory

	runKey   string
	counters []*stats.Counters
}

func New(cfg *config.Config, logger *logrus.Logger, services Services) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		logger:   logger,
		services: services,
		groups:   groupstore.NewFactory(cfg.Spill.Enabled, cfg.Spill.Dir),
		runKey:   uuid.NewString(),
	}
}

func (p *Pipeline) RunKey() string {
	return p.runKey
}

// Counters returns stage -> counter -> value for every stage run so far.
func (p *Pipeline) Counters() map[string]map[string]int64 {
	ret := make(map[string]map[string]int64, len(p.counters))
	for _, c := range p.counters {
		ret[c.Stage()] = c.Snapshot()
	}
	return ret
}

func (p *Pipeline) record(counters *stats.Counters) {
	if counters != nil {
		p.counters = append(p.counters, counters)
	}
}

func (p *Pipeline) rand(stream uint64) *rand.Rand {
	return sampling.NewRand(p.cfg.Seed + stream)
}

func (p *Pipeline) path(name string) string {
	return filepath.Join(p.cfg.OutputDir, filepath.FromSlash(name))
}
