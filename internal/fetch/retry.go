package fetch

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Defaults match the source's published ceiling of 20 requests per minute
const (
	DefaultAttempts  = 3
	DefaultBaseDelay = 3500 * time.Millisecond
)

// RetryPolicy bounds how often and how patiently a region is requested.
// Before attempt i (1-based) the fetcher waits BaseDelay*i.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy returns 3 attempts with a 3.5s linear step
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultAttempts, BaseDelay: DefaultBaseDelay}
}

// NewBackOff returns a fresh delay schedule for one Fetch call. It yields
// MaxAttempts delays and then backoff.Stop.
func (p RetryPolicy) NewBackOff() backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	return backoff.WithMaxRetries(&LinearBackOff{Step: p.BaseDelay}, uint64(attempts))
}

// LinearBackOff returns Step, 2*Step, 3*Step, ...
type LinearBackOff struct {
	Step time.Duration
	n    int64
}

// NextBackOff implements backoff.BackOff
func (b *LinearBackOff) NextBackOff() time.Duration {
	b.n++
	return b.Step * time.Duration(b.n)
}

// Reset implements backoff.BackOff
func (b *LinearBackOff) Reset() {
	b.n = 0
}

// Clock waits between attempts. Tests substitute a fake that records delays.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock returns a Clock backed by timers
func RealClock() Clock {
	return realClock{}
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
