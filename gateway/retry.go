package gateway

import (
	"context"
	"time"

	"inference-gateway/config"
	"inference-gateway/models"
	"inference-gateway/provider"

	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"
)

// retryPolicy retries retryable provider rejections with exponential
// backoff. Every other failure is terminal.
type retryPolicy struct {
	maxRetries int
	base       time.Duration
	maxWait    time.Duration
}

func (p retryPolicy) backOff(ctx context.Context, hint *time.Duration) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.base > 0 {
		exp.InitialInterval = p.base
	}
	if p.maxWait > 0 {
		exp.MaxInterval = p.maxWait
	}
	// Bounded by retry count and the caller's context only.
	exp.MaxElapsedTime = 0
	exp.Reset()

	var b backoff.BackOff = &hintedBackOff{BackOff: exp, hint: hint, max: exp.MaxInterval}
	b = backoff.WithMaxRetries(b, uint64(max(p.maxRetries, 0)))
	return backoff.WithContext(b, ctx)
}

// hintedBackOff waits at least as long as the provider asked for, capped
// at max.
type hintedBackOff struct {
	backoff.BackOff
	hint *time.Duration
	max  time.Duration
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	next := h.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	if *h.hint > next {
		next = min(*h.hint, h.max)
	}
	*h.hint = 0
	return next
}

// invoke calls the adapter, bounding each attempt by the gateway timeout.
// It returns the number of attempts made.
func (g *Gateway) invoke(ctx context.Context, adapter provider.Adapter, call provider.Call, cfg config.ProviderConfig) (provider.RawResponse, int, error) {
	var (
		raw      provider.RawResponse
		attempts int
		hint     time.Duration
	)

	operation := func() error {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		r, err := adapter.Invoke(attemptCtx, call, cfg)
		if err != nil {
			err = asInferenceError(ctx, err)
			if ie, ok := models.AsInferenceError(err); ok && ie.IsRetryable {
				hint = ie.RetryAfter
				return err
			}
			return backoff.Permanent(err)
		}
		raw = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		log.WithFields(log.Fields{
			"task":    call.Task.Kind(),
			"model":   cfg.Model,
			"attempt": attempts,
			"wait":    wait.String(),
		}).Warnf("Provider rejected request, retrying: %v", err)
	}

	if err := backoff.RetryNotify(operation, g.retry.backOff(ctx, &hint), notify); err != nil {
		return nil, attempts, asInferenceError(ctx, err)
	}
	return raw, attempts, nil
}
