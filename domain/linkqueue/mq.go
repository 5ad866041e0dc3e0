package linkqueue

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"autograph-ds-builder/utils"
)

var (
	ErrQueueClosed  = errors.New("link queue has been closed")
	ErrUnknownQueue = errors.New("queue is not declared by the link queue")
)

type MQConnectionConfig struct {
	// RabbitMQ 用户名
	User string
	// RabbitMQ 密码
	Pwd string
	// Broker 地址
	Host string
	// Broker 端口
	Port string
}

func (c *MQConnectionConfig) ToURL() string {
	return "amqp://" + c.User + ":" + c.Pwd + "@" + c.Host + ":" + c.Port + "/"
}

func GenerateTestMQConnectionConfig() MQConnectionConfig {
	return MQConnectionConfig{
		User: "guest",
		Pwd:  "guest",
		Host: "localhost",
		Port: "5672",
	}
}

// BatchHandler handles one delivery carrying a link request or response batch.
type BatchHandler func(msg *amqp.Delivery) error

/*
batchQueue 负责标注批次在 RabbitMQ 上的收发：请求批次由 dispatcher 发往 QueueLinkInput，
worker 处理后把结果发往 QueueLinkOutput。所有队列在创建时声明为持久化队列，
每个队列同一时刻只有一个消费协程。
*/
type batchQueue struct {
	logger *logrus.Logger
	conn   *amqp.Connection
	queues map[string]amqp.Queue

	lock      sync.Mutex
	consumers map[string]chan<- struct{} // 队列名 -> 停止信号

	closeOnce sync.Once
}

func declareQueues(conn *amqp.Connection, names []string) (map[string]amqp.Queue, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, utils.WrapError(err, "open declare channel fail")
	}
	defer ch.Close()

	queues := make(map[string]amqp.Queue, len(names))
	for _, name := range names {
		q, err := ch.QueueDeclare(name, true, false, false, false, nil)
		if err != nil {
			return nil, utils.WrapErrorf(err, "declare queue [%s] fail", name)
		}
		queues[name] = q
	}
	return queues, nil
}

func newBatchQueue(logger *logrus.Logger, url string, names []string) (*batchQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, utils.WrapError(err, "dial rabbit mq fail")
	}

	queues, err := declareQueues(conn, names)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &batchQueue{
		logger:    logger,
		conn:      conn,
		queues:    queues,
		consumers: make(map[string]chan<- struct{}),
	}, nil
}

func (q *batchQueue) stopConsumers() {
	q.lock.Lock()
	defer q.lock.Unlock()

	for name, stop := range q.consumers {
		q.logger.WithField("queue", name).Info("stop consuming link batches")
		close(stop)
	}
	q.consumers = make(map[string]chan<- struct{})
}

// Close 停止所有消费协程并关闭连接，重复调用返回 ErrQueueClosed。
func (q *batchQueue) Close() error {
	err := ErrQueueClosed
	q.closeOnce.Do(func() {
		q.stopConsumers()
		err = q.conn.Close()
	})
	return err
}

// Publish 把 batch 编码为 JSON 后以持久化消息发往 name。
func (q *batchQueue) Publish(name string, batch any) error {
	queue, ok := q.queues[name]
	if !ok {
		return utils.WrapErrorf(ErrUnknownQueue, "publish to [%s] fail", name)
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return utils.WrapError(err, "encode link batch fail")
	}

	ch, err := q.conn.Channel()
	if err != nil {
		return utils.WrapError(err, "open publish channel fail")
	}
	defer ch.Close()

	err = ch.Publish("", queue.Name, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
	})
	return utils.WrapErrorf(err, "publish link batch to [%s] fail", name)
}

func (q *batchQueue) consume(ch *amqp.Channel, name string, deliveries <-chan amqp.Delivery, stop <-chan struct{}, manualAck bool, handler BatchHandler) {
	defer ch.Close()
	logger := q.logger.WithField("queue", name)

	for {
		select {
		case <-stop:
			logger.Info("link batch consumer stopped")
			return
		case msg, alive := <-deliveries:
			if !alive {
				logger.Info("delivery channel closed, link batch consumer exits")
				return
			}

			logger.Debugf("receive link batch of %d bytes", len(msg.Body))
			err := handler(&msg)
			if err != nil {
				logger.WithError(err).Error("handle link batch fail")
			}
			if !manualAck {
				continue
			}
			if err != nil {
				_ = msg.Nack(false, false)
			} else {
				_ = msg.Ack(false)
			}
		}
	}
}

/*
Consume 在 name 上启动消费协程，对每条消息调用 handler；同一队列上已有的消费者会被替换。
prefetch 大于 0 时限制未确认的批次数，handler 返回后才确认，失败的批次被丢弃而不重投。
*/
func (q *batchQueue) Consume(name string, prefetch int, handler BatchHandler) error {
	queue, ok := q.queues[name]
	if !ok {
		return utils.WrapErrorf(ErrUnknownQueue, "consume [%s] fail", name)
	}

	ch, err := q.conn.Channel()
	if err != nil {
		return utils.WrapError(err, "open consume channel fail")
	}

	manualAck := prefetch > 0
	if manualAck {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			ch.Close()
			return utils.WrapErrorf(err, "set prefetch %d fail", prefetch)
		}
	}

	deliveries, err := ch.Consume(queue.Name, "", !manualAck, false, false, false, nil)
	if err != nil {
		ch.Close()
		return utils.WrapErrorf(err, "start consuming [%s] fail", name)
	}

	stop := make(chan struct{})

	q.lock.Lock()
	if old, ok := q.consumers[name]; ok {
		close(old)
	}
	q.consumers[name] = stop
	q.lock.Unlock()

	go q.consume(ch, name, deliveries, stop, manualAck, handler)
	return nil
}
