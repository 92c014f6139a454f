// Package retry provides bounded retry with exponential backoff for
// transient failures in network operations, particularly WordPress API calls.
//
// The delay schedule comes from github.com/cenkalti/backoff/v4; this package
// layers attempt accounting, error classification, and logging on top so the
// rest of the engine deals with a single call shape.
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(ctx, func() error {
//		return client.Ping(ctx)
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts:  5,
//		InitialDelay: 2 * time.Second,
//		MaxDelay:     30 * time.Second,
//		Multiplier:   2.0,
//		JitterFactor: 0.1,
//		RetryIf:      retry.DefaultRetryIf,
//		Logger:       logger.GetLogger(),
//	}
//	err := retry.Do(ctx, operation, cfg)
//
// Error Type Handling:
//
// Classified errors from pkg/errors drive the retry decision: network,
// rate-limit and server errors retry; auth, bad-request, not-found and
// parsing errors fail immediately. When the attempt budget runs out the
// returned error is an *errors.ExhaustedError carrying the attempt count and
// the last underlying error.
package retry
