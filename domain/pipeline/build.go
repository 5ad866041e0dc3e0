package pipeline

import (
	"context"
	"errors"
	"io"
	"sort"

	"autograph-ds-builder/domain/align"
	"autograph-ds-builder/domain/evidence"
	"autograph-ds-builder/domain/graph"
	"autograph-ds-builder/domain/prune"
	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/domain/split"
	"autograph-ds-builder/domain/stats"
	"autograph-ds-builder/domain/vocab"
	"autograph-ds-builder/utils"
)

const (
	CounterRelationsKept    = "relations_kept"
	CounterRelationsDropped = "relations_dropped"
	CounterPositives        = "positives"
	CounterNegatives        = "negatives"
	CounterEntities         = "entities"
)

var ErrUnknownRelation = errors.New("relation missing from relation vocabulary")

type BuildResult struct {
	Prune    *prune.Result
	Evidence *evidence.Result
	Splits   *split.Splits
	KG       *graph.KG
}

func (r *BuildResult) splits() []*split.Split {
	return []*split.Split{&r.Splits.Train, &r.Splits.Dev, &r.Splits.Test}
}

func tripleEntities(triples []record.Triple) []string {
	set := make(map[string]struct{})
	for _, t := range triples {
		set[t.Src] = struct{}{}
		set[t.Tgt] = struct{}{}
	}
	ret := make([]string, 0, len(set))
	for e := range set {
		ret = append(ret, e)
	}
	sort.Strings(ret)
	return ret
}

// tripleRelations lists the labels of triples with NA first, so that NA always has id 0.
func tripleRelations(triples []record.Triple) []string {
	set := make(map[string]struct{})
	for _, t := range triples {
		set[t.Relation] = struct{}{}
	}
	ret := make([]string, 0, len(set))
	_, hasNA := set[record.NARelation]
	if hasNA {
		ret = append(ret, record.NARelation)
	}
	labels := make([]string, 0, len(set))
	for label := range set {
		if label != record.NARelation {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return append(ret, labels...)
}

func (p *Pipeline) prune(graph *vocab.Graph, sets *align.GroupSets) (*prune.Result, error) {
	result, err := prune.Prune(&prune.PruneSetting{
		Logger:          p.logger,
		Rand:            p.rand(streamPrune),
		MinRelGroup:     p.cfg.Prune.MinRelGroup,
		MaxRelGroup:     p.cfg.Prune.MaxRelGroup,
		NegativePercent: p.cfg.Prune.NegativePercent,
	}, graph, sets.Pos, sets.Neg)
	if err != nil {
		return nil, err
	}

	counters := stats.NewCounters("prune")
	counters.Add(CounterRelationsKept, int64(len(result.RelationGroups)))
	counters.Add(CounterRelationsDropped, int64(len(result.Dropped)))
	counters.Add(CounterPositives, int64(result.Positives))
	counters.Add(CounterNegatives, int64(result.Negatives))
	counters.Add(CounterEntities, int64(result.Entities))
	counters.Report(p.logger)
	p.record(counters)
	return result, nil
}

// writeVocabularies writes the triples that kept evidence together with their entity and relation ids.
func (p *Pipeline) writeVocabularies(triples []record.Triple) error {
	err := writeFile(p.path(FileTriples), func(w io.Writer) error {
		return record.WriteTriples(w, triples)
	})
	if err != nil {
		return err
	}
	err = writeFile(p.path(FileEntities), func(w io.Writer) error {
		return record.WriteLines(w, tripleEntities(triples))
	})
	if err != nil {
		return err
	}
	return writeFile(p.path(FileRelations), func(w io.Writer) error {
		return record.WriteLines(w, tripleRelations(triples))
	})
}

func (p *Pipeline) collectEvidence(triples []record.Triple) (*evidence.Result, error) {
	var result *evidence.Result
	var counters *stats.Counters
	err := readFile(p.path(FileGroups), func(r io.Reader) error {
		var err error
		result, counters, err = evidence.Collect(&evidence.BagSetting{
			Logger:        p.logger,
			Rand:          p.rand(streamBag),
			MaxBagSize:    p.cfg.Bag.MaxBagSize,
			KTag:          p.cfg.Bag.KTag,
			ExpandRels:    p.cfg.Bag.ExpandRels,
			ProgressEvery: p.cfg.ProgressEvery,
		}, triples, r)
		return err
	})
	p.record(counters)
	return result, err
}

func (p *Pipeline) writeSplits(splits *split.Splits) error {
	for _, s := range []*split.Split{&splits.Train, &splits.Dev, &splits.Test} {
		err := writeFile(p.path(SplitTriplesFile(s.Name)), func(w io.Writer) error {
			return record.WriteTriples(w, s.Triples)
		})
		if err != nil {
			return err
		}

		err = writeFile(p.path(SplitLinesFile(s.Name)), func(w io.Writer) error {
			writer := record.NewJSONLWriter(w)
			for i := range s.Lines {
				if err := writer.Write(&s.Lines[i]); err != nil {
					return err
				}
			}
			return writer.Flush()
		})
		if err != nil {
			return err
		}
	}

	return writeFile(p.path(FileSplitRelations), func(w io.Writer) error {
		return record.WriteLines(w, splits.Relations)
	})
}

// checkSplitRelations makes sure every label written to the splits has an id in relations.txt.
func (p *Pipeline) checkSplitRelations(splits *split.Splits) error {
	var index map[string]int
	err := readFile(p.path(FileRelations), func(r io.Reader) error {
		var err error
		index, err = record.ReadRelationIndex(r, p.cfg.Bag.ExpandRels)
		return err
	})
	if err != nil {
		return err
	}

	for _, relation := range splits.Relations {
		if _, ok := index[relation]; !ok {
			return utils.WrapErrorf(ErrUnknownRelation, "check split relation [%s] fail", relation)
		}
	}
	return nil
}

func (p *Pipeline) exportKG(result *BuildResult) error {
	setting := &graph.KGSetting{Logger: p.logger, BatchSize: p.cfg.Neo4j.BatchSize}
	result.KG = graph.Collect(p.runKey, result.splits()...)

	entityCSV, relationCSV, err := graph.TransKGToCSV(setting, result.KG)
	if err != nil {
		return err
	}
	for name, content := range map[string][]byte{FileEntityCSV: entityCSV, FileRelationCSV: relationCSV} {
		err := writeFile(p.path(name), func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		})
		if err != nil {
			return err
		}
	}

	if p.services.Neo4j == nil {
		return nil
	}
	return graph.ExportToNeo4j(setting, p.services.Neo4j, result.KG)
}

/*
Build 依次执行关系剪枝、证据包收集和数据集划分，写出全部输出文件，并在配置了外部服务时
导出图谱、上传输出目录。sets 来自 Align 或 Resume。
*/
func (p *Pipeline) Build(ctx context.Context, graph *vocab.Graph, sets *align.GroupSets) (*BuildResult, error) {
	var result BuildResult
	var err error

	result.Prune, err = p.prune(graph, sets)
	if err != nil {
		return nil, utils.WrapError(err, "prune stage fail")
	}

	result.Evidence, err = p.collectEvidence(result.Prune.Triples)
	if err != nil {
		return nil, utils.WrapError(err, "evidence stage fail")
	}
	if err := p.writeVocabularies(result.Evidence.Triples); err != nil {
		return nil, utils.WrapError(err, "write vocabularies fail")
	}

	result.Splits = split.Build(&split.SplitSetting{
		Logger:      p.logger,
		Rand:        p.rand(streamSplit),
		MaxBagSize:  p.cfg.Bag.MaxBagSize,
		KTag:        p.cfg.Bag.KTag,
		ExpandRels:  p.cfg.Bag.ExpandRels,
		TestPercent: p.cfg.Split.TestPercent,
		DevPercent:  p.cfg.Split.DevPercent,
	}, result.Evidence)

	if err := p.writeSplits(result.Splits); err != nil {
		return nil, utils.WrapError(err, "write splits fail")
	}
	if err := p.checkSplitRelations(result.Splits); err != nil {
		return nil, err
	}

	if err := p.exportKG(&result); err != nil {
		return nil, utils.WrapError(err, "export kg fail")
	}

	if p.services.Uploader != nil {
		if _, err := p.services.Uploader.UploadDir(ctx, p.runKey, p.cfg.OutputDir); err != nil {
			return nil, utils.WrapError(err, "upload output fail")
		}
	}

	return &result, nil
}
