package providers

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/boristopalov/droidbench/pkg/logger"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBase     = 500 * time.Millisecond
	defaultRetryMax      = 10 * time.Second
)

// Retrying retries transient completion failures with exponential backoff.
type Retrying struct {
	next     Completer
	attempts uint64
	base     time.Duration
	max      time.Duration
}

type RetryOption func(*Retrying)

func WithAttempts(n uint64) RetryOption {
	return func(r *Retrying) {
		r.attempts = n
	}
}

func WithBackoff(base, maxDelay time.Duration) RetryOption {
	return func(r *Retrying) {
		r.base = base
		r.max = maxDelay
	}
}

func WithRetry(next Completer, opts ...RetryOption) *Retrying {
	r := &Retrying{
		next:     next,
		attempts: defaultRetryAttempts,
		base:     defaultRetryBase,
		max:      defaultRetryMax,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrying) Complete(ctx context.Context, model string, prompt string) (string, error) {
	backoff := retry.WithMaxRetries(r.attempts, retry.WithCappedDuration(r.max, retry.NewExponential(r.base)))

	var out string
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		resp, err := r.next.Complete(ctx, model, prompt)
		if err != nil {
			if !retryable(err) {
				return err
			}
			logger.FromContext(ctx).Warn("Completion failed, retrying", "model", model, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		out = resp
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrMissingAPIKey),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
