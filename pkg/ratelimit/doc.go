// Package ratelimit provides rate limiting for outbound WordPress API calls.
//
// Hosted platforms throttle aggressive clients, so the backup engine spaces
// its requests out by a minimum delay instead of firing them as fast as the
// connection allows. Every fetch attempt, including retries, claims a slot
// from the limiter before touching the network.
//
// Interface:
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// Half a second between consecutive requests
//	limiter := ratelimit.NewInterval(500 * time.Millisecond)
//
//	limiter.Wait()
//	// Proceed with request
package ratelimit
