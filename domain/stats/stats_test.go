package stats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	counters := NewCounters("link")

	wg := sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				counters.Inc("read")
			}
		}()
	}
	wg.Wait()
	counters.Add("linked", 5)

	assert.Equal(t, "link", counters.Stage())
	assert.Equal(t, int64(800), counters.Get("read"))
	assert.Equal(t, int64(0), counters.Get("missing"))
	assert.Equal(t, map[string]int64{"read": 800, "linked": 5}, counters.Snapshot())
}
