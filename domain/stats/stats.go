// Package stats counts what each pipeline stage read, kept and dropped.
package stats

import (
	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
)

/*
Counters 是一个阶段的计数器集合，名字如 "read"、"linked"。Counters 是并发安全的。
*/
type Counters struct {
	stage    string
	registry metrics.Registry
}

func NewCounters(stage string) *Counters {
	return &Counters{
		stage:    stage,
		registry: metrics.NewRegistry(),
	}
}

func (c *Counters) Stage() string {
	return c.stage
}

func (c *Counters) counter(name string) metrics.Counter {
	return metrics.GetOrRegisterCounter(name, c.registry)
}

func (c *Counters) Inc(name string) {
	c.counter(name).Inc(1)
}

func (c *Counters) Add(name string, delta int64) {
	c.counter(name).Inc(delta)
}

// Get returns 0 for counters never touched.
func (c *Counters) Get(name string) int64 {
	if m, ok := c.registry.Get(name).(metrics.Counter); ok {
		return m.Count()
	}
	return 0
}

func (c *Counters) Snapshot() map[string]int64 {
	ret := make(map[string]int64)
	c.registry.Each(func(name string, m interface{}) {
		if counter, ok := m.(metrics.Counter); ok {
			ret[name] = counter.Count()
		}
	})
	return ret
}

/*
Report 以 info 级别输出所有计数。
*/
func (c *Counters) Report(logger *logrus.Logger) {
	fields := logrus.Fields{}
	for name, count := range c.Snapshot() {
		fields[name] = count
	}
	logger.WithField("stage", c.stage).WithFields(fields).Info("stage finished")
}
