// Package gateway runs inference tasks end to end: validation, media
// encoding, provider dispatch with retries, normalization and projection.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"inference-gateway/config"
	"inference-gateway/geometry"
	"inference-gateway/media"
	"inference-gateway/models"
	"inference-gateway/normalizer"
	"inference-gateway/provider"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// Observer is notified once per finished run. Implementations must be
// concurrency-safe and must not block for long.
type Observer interface {
	ObserveRun(rec models.RunRecord)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(rec models.RunRecord)

func (f ObserverFunc) ObserveRun(rec models.RunRecord) { f(rec) }

// Gateway is safe for concurrent use. Independent Run calls share nothing
// but read-only configuration.
type Gateway struct {
	adapters       provider.Table
	providers      map[models.TaskKind]config.ProviderConfig
	encoder        *media.Encoder
	defaultDisplay models.Size
	timeout        time.Duration
	retry          retryPolicy
	observers      []Observer

	seq      atomic.Uint64
	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	seq    uint64
	cancel context.CancelFunc
}

// New builds a gateway. It fails unless every task kind has exactly one
// adapter and a provider configuration.
func New(cfg *config.Config, adapters []provider.Adapter, observers ...Observer) (*Gateway, error) {
	table, err := provider.NewTable(adapters...)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter table: %w", err)
	}
	for _, kind := range models.AllKinds {
		if _, ok := cfg.Providers[kind]; !ok {
			return nil, fmt.Errorf("no provider configuration for %s", kind)
		}
	}
	if cfg.DisplaySize.Width <= 0 || cfg.DisplaySize.Height <= 0 {
		return nil, fmt.Errorf("default display size must be positive, got %dx%d", cfg.DisplaySize.Width, cfg.DisplaySize.Height)
	}
	if cfg.ProviderTimeout <= 0 {
		return nil, fmt.Errorf("provider timeout must be positive")
	}

	return &Gateway{
		adapters:       table,
		providers:      cfg.Providers,
		encoder:        media.NewEncoder(cfg.MediaMaxBytes),
		defaultDisplay: cfg.DisplaySize,
		timeout:        cfg.ProviderTimeout,
		retry: retryPolicy{
			maxRetries: cfg.MaxRetries,
			base:       cfg.RetryBase,
			maxWait:    cfg.MaxRetryWait,
		},
		observers: observers,
		sessions:  make(map[string]*session),
	}, nil
}

// Model returns the model identifier configured for kind.
func (g *Gateway) Model(kind models.TaskKind) string {
	return g.providers[kind].Model
}

// Run executes task and returns exactly one of a result or an
// *models.InferenceError.
func (g *Gateway) Run(ctx context.Context, task models.Task) (models.Result, error) {
	rec := g.newRecord(task, "", 0)
	result, attempts, err := g.process(ctx, task)
	g.finish(&rec, attempts, err)
	return result, err
}

// Submit runs task on behalf of a session. A newer submission for the same
// session cancels this one, and this one then fails with Superseded even
// if a result arrived. An empty session behaves like Run.
func (g *Gateway) Submit(ctx context.Context, sessionID string, task models.Task) (models.Result, error) {
	if sessionID == "" {
		return g.Run(ctx, task)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	seq := g.seq.Add(1)
	g.mu.Lock()
	s, ok := g.sessions[sessionID]
	if !ok {
		s = &session{}
		g.sessions[sessionID] = s
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.seq, s.cancel = seq, cancel
	g.mu.Unlock()

	rec := g.newRecord(task, sessionID, seq)
	result, attempts, err := g.process(runCtx, task)

	g.mu.Lock()
	stale := s.seq != seq
	if !stale {
		delete(g.sessions, sessionID)
	}
	g.mu.Unlock()

	if stale {
		result, err = nil, models.NewSupersededError(seq)
	}
	g.finish(&rec, attempts, err)
	return result, err
}

func (g *Gateway) process(ctx context.Context, task models.Task) (models.Result, int, error) {
	if task == nil {
		return nil, 0, models.NewValidationError("no task given")
	}
	if err := task.Validate(); err != nil {
		return nil, 0, err
	}
	adapter, ok := g.adapters[task.Kind()]
	if !ok {
		return nil, 0, models.NewValidationError(fmt.Sprintf("unsupported task kind %q", task.Kind()))
	}

	call := provider.Call{Task: task}
	if fh, kind := task.Media(); fh != nil {
		blob, err := g.encoder.Encode(fh, kind)
		if err != nil {
			return nil, 0, err
		}
		call.Media = blob
	}

	var native, display models.Size
	if det, ok := task.(models.ObjectDetection); ok {
		size, err := media.ImageSize(call.Media)
		if err != nil {
			return nil, 0, err
		}
		native, display = size, det.Display
		if display.IsZero() {
			display = g.defaultDisplay
		}
		if _, err := geometry.Scale(native, display); err != nil {
			return nil, 0, models.NewValidationError(err.Error())
		}
	}

	raw, attempts, err := g.invoke(ctx, adapter, call, g.providers[task.Kind()])
	if err != nil {
		return nil, attempts, err
	}

	result, err := normalizer.Normalize(task, raw)
	if err != nil {
		return nil, attempts, err
	}

	if det, ok := result.(models.DetectionResult); ok {
		projected, scale, err := geometry.Project(det.Objects, native, display)
		if err != nil {
			return nil, attempts, models.NewValidationError(err.Error())
		}
		det.Projected, det.NativeSize, det.DisplaySize, det.Scale = projected, native, display, scale
		result = det
	}
	return result, attempts, nil
}

// asInferenceError maps adapter failures that are not yet typed. Context
// errors are attributed to the caller's context before the attempt's.
func asInferenceError(parent context.Context, err error) error {
	if _, ok := models.AsInferenceError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewTimeoutError(err)
	case errors.Is(err, context.Canceled) && parent.Err() != nil:
		return models.NewProviderError(0, fmt.Errorf("request cancelled: %w", err))
	default:
		return models.NewProviderError(0, err)
	}
}

func (g *Gateway) newRecord(task models.Task, sessionID string, seq uint64) models.RunRecord {
	rec := models.RunRecord{
		ID:        uuid.NewString(),
		Session:   sessionID,
		Seq:       seq,
		StartedAt: time.Now(),
	}
	if task != nil {
		rec.Task = task.Kind()
		rec.Model = g.providers[task.Kind()].Model
	}
	return rec
}

func (g *Gateway) finish(rec *models.RunRecord, attempts int, err error) {
	rec.Duration = time.Since(rec.StartedAt)
	rec.Attempts = attempts
	rec.Outcome = models.OutcomeSuccess
	if err != nil {
		rec.Outcome = models.OutcomeFailure
		rec.ErrorKind = models.KindOf(err)
		rec.Message = err.Error()
	}

	entry := log.WithFields(log.Fields{
		"run_id":   rec.ID,
		"task":     rec.Task,
		"model":    rec.Model,
		"attempts": rec.Attempts,
		"duration": rec.Duration.String(),
	})
	if rec.Session != "" {
		entry = entry.WithField("session", rec.Session).WithField("seq", rec.Seq)
	}
	if err != nil {
		entry.WithField("error_kind", rec.ErrorKind).Warnf("Inference run failed: %v", err)
	} else {
		entry.Info("Inference run succeeded")
	}

	for _, o := range g.observers {
		o.ObserveRun(*rec)
	}
}
