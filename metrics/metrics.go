package metrics

import (
	"sync"

	"inference-gateway/models"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// RunsTotal counts finished runs by task, outcome and error kind.
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inference",
		Subsystem: "gateway",
		Name:      "runs_total",
		Help:      "Total number of inference runs, labeled by task, outcome and error kind.",
	}, []string{"task", "outcome", "error_kind"})

	// RunDurationSeconds is end-to-end time per run, retries included.
	RunDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "inference",
		Subsystem: "gateway",
		Name:      "run_duration_seconds",
		Help:      "End-to-end time of an inference run including encoding, retries and normalization.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"task", "outcome"})

	// ProviderAttemptsTotal counts provider requests, so retries show up as
	// attempts exceeding runs.
	ProviderAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inference",
		Subsystem: "gateway",
		Name:      "provider_attempts_total",
		Help:      "Total number of provider requests made, labeled by task.",
	}, []string{"task"})

	// SupersededTotal counts submissions discarded for a newer one.
	SupersededTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inference",
		Subsystem: "gateway",
		Name:      "superseded_total",
		Help:      "Total number of session submissions superseded by a newer submission.",
	})

	// EventPublishErrorTotal counts failed run event publishes.
	EventPublishErrorTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inference",
		Subsystem: "gateway",
		Name:      "event_publish_error_total",
		Help:      "Total number of run events that could not be published.",
	})

	// ObserverDroppedTotal counts run records dropped because the
	// background observer could not keep up.
	ObserverDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inference",
		Subsystem: "gateway",
		Name:      "observer_dropped_total",
		Help:      "Total number of run records dropped before reaching history or events.",
	})

	// HistoryWriteErrorTotal counts failed run history writes.
	HistoryWriteErrorTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inference",
		Subsystem: "gateway",
		Name:      "history_write_error_total",
		Help:      "Total number of run records that could not be stored.",
	})
)

// Register registers gateway metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RunsTotal,
			RunDurationSeconds,
			ProviderAttemptsTotal,
			SupersededTotal,
			EventPublishErrorTotal,
			ObserverDroppedTotal,
			HistoryWriteErrorTotal,
		)
	})
}

// Observer records gateway runs.
type Observer struct{}

func (Observer) ObserveRun(rec models.RunRecord) {
	task := string(rec.Task)
	RunsTotal.WithLabelValues(task, rec.Outcome, string(rec.ErrorKind)).Inc()
	RunDurationSeconds.WithLabelValues(task, rec.Outcome).Observe(rec.Duration.Seconds())
	if rec.Attempts > 0 {
		ProviderAttemptsTotal.WithLabelValues(task).Add(float64(rec.Attempts))
	}
	if rec.ErrorKind == models.KindSuperseded {
		SupersededTotal.Inc()
	}
}
