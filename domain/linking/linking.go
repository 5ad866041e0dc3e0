package linking

import (
	"bufio"
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/domain/stats"
	"autograph-ds-builder/utils"
)

const (
	CounterLines     = "lines"
	CounterFiltered  = "filtered"
	CounterAmbiguous = "ambiguous"
	CounterUnlinked  = "unlinked"
	CounterLinked    = "linked"
)

type Linker interface {
	Link(sentence string) (map[string]record.Span, bool)
}

type LinkSetting struct {
	Logger        *logrus.Logger
	Filter        *SentenceFilter
	Workers       int
	BatchSize     int
	ProgressEvery int
}

func (s *LinkSetting) workers() int {
	if s.Workers <= 0 {
		return 1
	}
	return s.Workers
}

func (s *LinkSetting) batchSize() int {
	if s.BatchSize <= 0 {
		return 4096
	}
	return s.BatchSize
}

type linkResult struct {
	matches map[string]record.Span
	ok      bool
}

/*
LinkBatch 并发标注一批句子，结果与输入一一对应。
*/
func LinkBatch(ctx context.Context, linker Linker, workers int, sentences []string) ([]record.LinkedSentence, []bool, error) {
	results := make([]linkResult, len(sentences))

	if workers <= 0 {
		workers = 1
	}
	chunk := (len(sentences) + workers - 1) / workers
	if chunk == 0 {
		chunk = 1
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for begin := 0; begin < len(sentences); begin += chunk {
		begin := begin
		end := begin + chunk
		if end > len(sentences) {
			end = len(sentences)
		}
		group.Go(func() error {
			for i := begin; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				matches, ok := linker.Link(sentences[i])
				results[i] = linkResult{matches: matches, ok: ok}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, utils.WrapError(err, "link batch fail")
	}

	records := make([]record.LinkedSentence, len(sentences))
	oks := make([]bool, len(sentences))
	for i, res := range results {
		records[i] = record.LinkedSentence{Sent: sentences[i], Matches: res.matches}
		oks[i] = res.ok
	}
	return records, oks, nil
}

type corpusLinker struct {
	// inputs
	ctx     context.Context
	setting *LinkSetting
	linker  Linker
	writer  *record.JSONLWriter

	// outputs
	counters *stats.Counters
}

func (l *corpusLinker) flush(batch []string) error {
	if len(batch) == 0 {
		return nil
	}

	records, oks, err := LinkBatch(l.ctx, l.linker, l.setting.workers(), batch)
	if err != nil {
		return err
	}

	for i := range records {
		switch {
		case !oks[i]:
			l.counters.Inc(CounterAmbiguous)
		case len(records[i].Matches) == 0:
			l.counters.Inc(CounterUnlinked)
		default:
			if err := l.writer.Write(&records[i]); err != nil {
				return utils.WrapError(err, "write linked sentence fail")
			}
			l.counters.Inc(CounterLinked)
		}
	}
	return nil
}

func (l *corpusLinker) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	batchSize := l.setting.batchSize()
	batch := make([]string, 0, batchSize)

	lines := int64(0)
	for scanner.Scan() {
		lines++
		l.counters.Inc(CounterLines)
		if l.setting.ProgressEvery > 0 && lines%int64(l.setting.ProgressEvery) == 0 {
			l.setting.Logger.Infof("checked %d lines for entity linking", lines)
		}

		kept, dropped := l.setting.Filter.Sentences(scanner.Text())
		l.counters.Add(CounterFiltered, int64(dropped))
		batch = append(batch, kept...)

		if len(batch) >= batchSize {
			if err := l.flush(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return utils.WrapError(err, "read corpus fail")
	}

	return l.flush(batch)
}

/*
LinkCorpus 逐行读取语料，过滤后并发标注实体，按输入顺序写出 {"sent","matches"} 记录。
有歧义的句子与没有保留任何实体的句子都不输出。
*/
func LinkCorpus(ctx context.Context, setting *LinkSetting, linker Linker, in io.Reader, out io.Writer) (*stats.Counters, error) {
	l := corpusLinker{
		ctx:      ctx,
		setting:  setting,
		linker:   linker,
		writer:   record.NewJSONLWriter(out),
		counters: stats.NewCounters("link"),
	}

	if err := l.run(in); err != nil {
		return l.counters, utils.WrapError(err, "link corpus fail")
	}
	if err := l.writer.Flush(); err != nil {
		return l.counters, utils.WrapError(err, "flush linked sentences fail")
	}

	l.counters.Report(setting.Logger)
	return l.counters, nil
}
