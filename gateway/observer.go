package gateway

import (
	"sync"

	"inference-gateway/metrics"
	"inference-gateway/models"

	"github.com/apex/log"
)

// AsyncObserver hands run records to a background worker so slow sinks
// never delay a run. Records arriving while the buffer is full are
// dropped and counted.
type AsyncObserver struct {
	records   chan models.RunRecord
	observers []Observer
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewAsyncObserver starts a worker feeding every record to observers in
// order. A non-positive buffer is treated as 1.
func NewAsyncObserver(buffer int, observers ...Observer) *AsyncObserver {
	if buffer <= 0 {
		buffer = 1
	}
	a := &AsyncObserver{
		records:   make(chan models.RunRecord, buffer),
		observers: observers,
		done:      make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncObserver) ObserveRun(rec models.RunRecord) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		metrics.ObserverDroppedTotal.Inc()
		return
	}
	select {
	case a.records <- rec:
	default:
		metrics.ObserverDroppedTotal.Inc()
		log.WithField("run_id", rec.ID).Warn("Run record dropped, observer buffer full")
	}
}

func (a *AsyncObserver) run() {
	defer close(a.done)
	for rec := range a.records {
		for _, o := range a.observers {
			o.ObserveRun(rec)
		}
	}
}

// Close stops accepting records and waits until the buffered ones are
// delivered.
func (a *AsyncObserver) Close() {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.records)
		a.mu.Unlock()
	})
	<-a.done
}
