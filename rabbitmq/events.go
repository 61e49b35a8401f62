package rabbitmq

import (
	"inference-gateway/metrics"
	"inference-gateway/models"

	"github.com/apex/log"
)

// RunEvent is the message published for every finished run.
type RunEvent struct {
	ID         string `json:"id"`
	Session    string `json:"session,omitempty"`
	Seq        uint64 `json:"seq,omitempty"`
	Task       string `json:"task"`
	Model      string `json:"model"`
	Outcome    string `json:"outcome"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Attempts   int    `json:"attempts"`
	DurationMs int64  `json:"duration_ms"`
	StartedAt  string `json:"started_at"`
}

// NewRunEvent converts a run record into its wire form. Error messages
// stay out of events since they may echo caller input.
func NewRunEvent(rec models.RunRecord) RunEvent {
	return RunEvent{
		ID:         rec.ID,
		Session:    rec.Session,
		Seq:        rec.Seq,
		Task:       string(rec.Task),
		Model:      rec.Model,
		Outcome:    rec.Outcome,
		ErrorKind:  string(rec.ErrorKind),
		Attempts:   rec.Attempts,
		DurationMs: rec.Duration.Milliseconds(),
		StartedAt:  rec.StartedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

// EventObserver publishes a RunEvent for every finished run. Publish
// failures are logged and counted.
type EventObserver struct {
	Publisher *Publisher
}

func (o EventObserver) ObserveRun(rec models.RunRecord) {
	if err := o.Publisher.Publish(NewRunEvent(rec)); err != nil {
		metrics.EventPublishErrorTotal.Inc()
		log.WithField("run_id", rec.ID).Errorf("Failed to publish run event: %v", err)
	}
}
