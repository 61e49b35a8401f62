package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"inference-gateway/metrics"
	"inference-gateway/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu   sync.Mutex
	recs []models.RunRecord
}

func (c *collector) ObserveRun(rec models.RunRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, rec)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.recs)
}

func TestSlowObserverDoesNotDelayRun(t *testing.T) {
	sink := &collector{}
	slow := ObserverFunc(func(rec models.RunRecord) {
		time.Sleep(300 * time.Millisecond)
		sink.ObserveRun(rec)
	})
	async := NewAsyncObserver(8, slow)

	g, err := New(testConfig(), list(fixedAdapters()), async)
	require.NoError(t, err)

	start := time.Now()
	_, err = g.Run(context.Background(), models.TextToSpeech{Text: "hello"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 150*time.Millisecond)

	async.Close()
	require.Equal(t, 1, sink.len())
	assert.Equal(t, models.KindTextToSpeech, sink.recs[0].Task)
}

func TestAsyncObserverDropsWhenFull(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	sink := &collector{}
	var once sync.Once
	blocking := ObserverFunc(func(rec models.RunRecord) {
		once.Do(func() { close(started) })
		<-release
		sink.ObserveRun(rec)
	})
	async := NewAsyncObserver(1, blocking)
	dropped := testutil.ToFloat64(metrics.ObserverDroppedTotal)

	async.ObserveRun(models.RunRecord{ID: "first"})
	<-started
	async.ObserveRun(models.RunRecord{ID: "buffered"})
	async.ObserveRun(models.RunRecord{ID: "dropped"})

	assert.Equal(t, dropped+1, testutil.ToFloat64(metrics.ObserverDroppedTotal))

	close(release)
	async.Close()
	require.Equal(t, 2, sink.len())
	assert.Equal(t, "first", sink.recs[0].ID)
	assert.Equal(t, "buffered", sink.recs[1].ID)
}

func TestAsyncObserverAfterClose(t *testing.T) {
	sink := &collector{}
	async := NewAsyncObserver(4, sink)
	async.ObserveRun(models.RunRecord{ID: "a"})
	async.Close()
	async.Close()

	dropped := testutil.ToFloat64(metrics.ObserverDroppedTotal)
	async.ObserveRun(models.RunRecord{ID: "late"})
	assert.Equal(t, dropped+1, testutil.ToFloat64(metrics.ObserverDroppedTotal))
	assert.Equal(t, 1, sink.len())
}
