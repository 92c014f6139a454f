package retry

import (
	"context"

	"github.com/cenkalti/backoff/v4"
)

// newBackOff builds the exponential schedule for a single Do call. Each call
// gets a fresh schedule so separate requests never share delay state.
func (cfg *Config) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if cfg.InitialDelay > 0 {
		b.InitialInterval = cfg.InitialDelay
	}
	if cfg.MaxDelay > 0 {
		b.MaxInterval = cfg.MaxDelay
	}
	if cfg.Multiplier > 0 {
		b.Multiplier = cfg.Multiplier
	}
	b.RandomizationFactor = cfg.JitterFactor
	b.MaxElapsedTime = 0 // the attempt budget bounds the envelope, not wall time
	b.Reset()

	retries := cfg.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}
