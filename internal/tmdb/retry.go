package tmdb

import (
	"context"
	"time"

	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/services"
)

// RetryPolicy bounds the backoff loop around provider calls. The delay
// before retry n is min(Initial * 2^n, Max).
type RetryPolicy struct {
	MaxRetries int
	Initial    time.Duration
	Max        time.Duration
}

// Delay returns the sleep before the given zero-based retry.
func (p RetryPolicy) Delay(retry int) time.Duration {
	d := p.Initial
	for i := 0; i < retry; i++ {
		d *= 2
		if d >= p.Max {
			return p.Max
		}
	}
	if d > p.Max {
		return p.Max
	}
	return d
}

// Do runs fn, retrying while it fails with a retryable error, up to
// MaxRetries retries. The final error is returned unchanged so callers
// can classify it.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !services.Retryable(err) {
			return err
		}
		if attempt >= p.MaxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay(attempt)):
		}
	}
}
