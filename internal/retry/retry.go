// Package retry implements a bounded retry policy for outbound sends.
package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy retries an operation a fixed number of times with exponential
// backoff. Sleep is pluggable so tests can run with a fake clock.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Sleep           func(time.Duration)
}

// Default is the delivery policy for reminder sends: three attempts,
// backing off from one second.
func Default() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
	}
}

// Do runs fn until it succeeds or the attempt budget is spent. The error of
// the last attempt is returned.
func (p Policy) Do(fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.Reset()

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			sleep(b.NextBackOff())
		}
	}
	return err
}
