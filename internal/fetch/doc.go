// Package fetch retrieves named regions of remote pages politely.
//
// A Fetcher makes up to RetryPolicy.MaxAttempts attempts per region, waiting
// BaseDelay*i before attempt i, and additionally passes every request through
// one shared rate limiter. When all attempts fail it reports the region as
// unavailable instead of returning an error, so a crawl can skip the unit and
// pick it up on the next run.
package fetch
