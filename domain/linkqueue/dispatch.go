package linkqueue

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"

	"autograph-ds-builder/domain/linking"
	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/domain/stats"
	"autograph-ds-builder/utils"
)

type DispatchSetting struct {
	Config
	Filter    *linking.SentenceFilter
	BatchSize int
}

type dispatcher struct {
	// inputs
	ctx     context.Context
	setting *DispatchSetting
	runID   string
	send    func(obj any) error

	// outputs
	counters *stats.Counters
	sent     atomic.Int64
}

func (d *dispatcher) publish(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	batchSize := d.setting.BatchSize
	if batchSize <= 0 {
		batchSize = 1024
	}

	seq := int64(0)
	batch := make([]string, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := d.send(&LinkRequestSchema{
			RunID:     d.runID,
			Seq:       seq,
			Sentences: batch,
		})
		if err != nil {
			return utils.WrapErrorf(err, "publish batch [%d] fail", seq)
		}
		seq++
		batch = make([]string, 0, batchSize)
		return nil
	}

	for scanner.Scan() {
		if err := d.ctx.Err(); err != nil {
			return err
		}
		d.counters.Inc(linking.CounterLines)

		kept, dropped := d.setting.Filter.Sentences(scanner.Text())
		d.counters.Add(linking.CounterFiltered, int64(dropped))
		batch = append(batch, kept...)

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return utils.WrapError(err, "read corpus fail")
	}
	if err := flush(); err != nil {
		return err
	}

	d.sent.Store(seq)
	return nil
}

// collect writes responses in order until total batches have been written.
func (d *dispatcher) collect(responses <-chan *LinkResponseSchema, published <-chan struct{}, buffer *reorderBuffer) error {
	total := int64(-1)
	for {
		if total >= 0 && buffer.Written() >= total {
			return nil
		}

		select {
		case <-d.ctx.Done():
			return d.ctx.Err()
		case <-published:
			total = d.sent.Load()
			published = nil
		case resp := <-responses:
			if err := buffer.Push(resp); err != nil {
				return err
			}
		}
	}
}

/*
Dispatch 把过滤后的句子按批发布到输入队列，由若干 ServeWorker 标注，再按批次顺序把结果写入 out。
输出与单机 LinkCorpus 相同。
*/
func Dispatch(ctx context.Context, setting *DispatchSetting, in io.Reader, out io.Writer) (*stats.Counters, error) {
	queue, err := newBatchQueue(setting.Logger, setting.RabbitMQConfig.ToURL(), setting.queues())
	if err != nil {
		return nil, utils.WrapError(err, "connect rabbit mq fail")
	}
	defer func() {
		if err := queue.Close(); err != nil {
			setting.Logger.WithError(err).Error("close link queue fail")
		}
	}()

	group, ctx := errgroup.WithContext(ctx)
	d := dispatcher{
		ctx:     ctx,
		setting: setting,
		runID:   uuid.NewString(),
		send: func(obj any) error {
			return queue.Publish(QueueLinkInput, obj)
		},
		counters: stats.NewCounters("link"),
	}

	responses := make(chan *LinkResponseSchema)
	err = queue.Consume(QueueLinkOutput, 0, func(msg *amqp.Delivery) error {
		var resp LinkResponseSchema
		if err := json.Unmarshal(msg.Body, &resp); err != nil {
			return utils.WrapError(err, "json unmarshal response fail")
		}
		if resp.RunID != d.runID {
			setting.Logger.Warnf("drop response of unknown run [%s]", resp.RunID)
			return nil
		}
		select {
		case responses <- &resp:
		case <-ctx.Done():
		}
		return nil
	})
	if err != nil {
		return nil, utils.WrapError(err, "listen on output queue fail")
	}

	writer := record.NewJSONLWriter(out)
	buffer := newReorderBuffer(writer)
	published := make(chan struct{})

	group.Go(func() error {
		if err := d.publish(in); err != nil {
			return err
		}
		close(published)
		return nil
	})
	group.Go(func() error {
		return d.collect(responses, published, buffer)
	})

	if err := group.Wait(); err != nil {
		return d.counters, utils.WrapError(err, "dispatch linking fail")
	}
	if err := writer.Flush(); err != nil {
		return d.counters, err
	}

	d.counters.Add(linking.CounterAmbiguous, buffer.ambiguous)
	d.counters.Add(linking.CounterUnlinked, buffer.unlinked)
	d.counters.Add(linking.CounterLinked, int64(writer.Count()))
	d.counters.Report(setting.Logger)
	return d.counters, nil
}
