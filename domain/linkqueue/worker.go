package linkqueue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/streadway/amqp"

	"autograph-ds-builder/domain/linking"
	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/utils"
)

var errEmptyBody = errors.New("message body is empty")

type WorkerSetting struct {
	Config
	Workers  int
	Prefetch int
}

func handleRequest(ctx context.Context, linker linking.Linker, workers int, req *LinkRequestSchema) (*LinkResponseSchema, error) {
	records, oks, err := linking.LinkBatch(ctx, linker, workers, req.Sentences)
	if err != nil {
		return nil, utils.WrapErrorf(err, "link batch [%d] fail", req.Seq)
	}

	resp := LinkResponseSchema{
		RunID:   req.RunID,
		Seq:     req.Seq,
		Records: make([]record.LinkedSentence, 0, len(records)),
	}
	for i := range records {
		switch {
		case !oks[i]:
			resp.Ambiguous++
		case len(records[i].Matches) == 0:
			resp.Unlinked++
		default:
			resp.Records = append(resp.Records, records[i])
		}
	}
	return &resp, nil
}

func buildReceive(ctx context.Context, linker linking.Linker, workers int, send func(obj any) error) func(msg *amqp.Delivery) error {
	return func(msg *amqp.Delivery) error {
		if len(msg.Body) == 0 {
			return utils.WrapError(errEmptyBody, "msg.Body is empty")
		}

		var req LinkRequestSchema
		if err := json.Unmarshal(msg.Body, &req); err != nil {
			return utils.WrapErrorf(err, "json unmarshal fail with [%d] bytes", len(msg.Body))
		}

		resp, err := handleRequest(ctx, linker, workers, &req)
		if err != nil {
			return err
		}

		if err := send(resp); err != nil {
			return utils.WrapErrorf(err, "send response of batch [%d] fail", req.Seq)
		}
		return nil
	}
}

/*
ServeWorker 从输入队列消费句子批次，标注后把结果发布到输出队列，直到 ctx 结束。
*/
func ServeWorker(ctx context.Context, setting *WorkerSetting, linker linking.Linker) error {
	queue, err := newBatchQueue(setting.Logger, setting.RabbitMQConfig.ToURL(), setting.queues())
	if err != nil {
		return utils.WrapError(err, "connect rabbit mq fail")
	}
	defer func() {
		if err := queue.Close(); err != nil {
			setting.Logger.WithError(err).Error("close link queue fail")
		}
	}()

	send := func(obj any) error {
		return queue.Publish(QueueLinkOutput, obj)
	}
	prefetch := setting.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	err = queue.Consume(QueueLinkInput, prefetch, buildReceive(ctx, linker, setting.Workers, send))
	if err != nil {
		return utils.WrapError(err, "listen on input queue fail")
	}

	setting.Logger.Infof("link worker listening on queue [%s]", QueueLinkInput)
	<-ctx.Done()
	setting.Logger.Info("link worker stopping")
	return nil
}
