package aiparse

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"strings"
	"time"

	"cv-ingest/internal/llm"
)

// Class tells WithRetry whether an error is worth another attempt.
type Class int

const (
	Fatal Class = iota
	Transient
)

// Policy bounds a retry loop. Jitter and Sleep default to a random offset in
// [0, BaseDelay) and a context-aware timer.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      func() time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// ExhaustedError is returned when every attempt failed with a transient error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Delay is the wait before the attempt after the given one: BaseDelay*2^(attempt-1) plus jitter.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if p.Jitter != nil {
		d += p.Jitter()
	} else if p.BaseDelay > 0 {
		d += rand.N(p.BaseDelay)
	}
	return d
}

// WithRetry runs op until it succeeds, fails fatally, or MaxAttempts transient
// failures have happened.
func WithRetry[T any](ctx context.Context, p Policy, classify func(error) Class, op func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		if classify(err) != Transient {
			return zero, err
		}
		last = err
		if attempt == attempts {
			break
		}
		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, &ExhaustedError{Attempts: attempts, Last: last}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClassifyError treats provider overload, timeouts and dropped connections as
// transient. Auth failures and everything else are fatal.
func ClassifyError(err error) Class {
	switch {
	case err == nil:
		return Fatal
	case errors.Is(err, llm.ErrAuth):
		return Fatal
	case errors.Is(err, llm.ErrOverloaded):
		return Transient
	case errors.Is(err, context.DeadlineExceeded):
		return Transient
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "request timeout") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") {
		return Transient
	}
	return Fatal
}
