package aiparse

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"cv-ingest/internal/llm"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func TestWithRetryBacksOffUntilSuccess(t *testing.T) {
	rec := &sleepRecorder{}
	policy := Policy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, Sleep: rec.Sleep}

	calls := 0
	got, err := WithRetry(context.Background(), policy, ClassifyError, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", fmt.Errorf("%w: status 529", llm.ErrOverloaded)
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Fatalf("expected ok after 3 calls, got %q after %d", got, calls)
	}
	if len(rec.delays) != 2 {
		t.Fatalf("expected 2 sleeps, got %v", rec.delays)
	}
	if rec.delays[1] <= rec.delays[0] {
		t.Fatalf("expected strictly increasing delays, got %v", rec.delays)
	}
	if rec.delays[0] < 100*time.Millisecond || rec.delays[0] >= 200*time.Millisecond {
		t.Fatalf("first delay out of range: %v", rec.delays[0])
	}
	if rec.delays[1] < 200*time.Millisecond || rec.delays[1] >= 300*time.Millisecond {
		t.Fatalf("second delay out of range: %v", rec.delays[1])
	}
}

func TestWithRetryExhausts(t *testing.T) {
	rec := &sleepRecorder{}
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Second, Jitter: func() time.Duration { return 0 }, Sleep: rec.Sleep}

	calls := 0
	_, err := WithRetry(context.Background(), policy, ClassifyError, func(ctx context.Context) (int, error) {
		calls++
		return 0, llm.ErrOverloaded
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 3 || calls != 3 {
		t.Fatalf("expected 3 attempts, got %d (calls %d)", exhausted.Attempts, calls)
	}
	if !errors.Is(err, llm.ErrOverloaded) {
		t.Fatalf("expected last error to unwrap to ErrOverloaded")
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(rec.delays) != len(want) || rec.delays[0] != want[0] || rec.delays[1] != want[1] {
		t.Fatalf("expected delays %v, got %v", want, rec.delays)
	}
}

func TestWithRetryFatalStopsImmediately(t *testing.T) {
	rec := &sleepRecorder{}
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Second, Sleep: rec.Sleep}

	calls := 0
	_, err := WithRetry(context.Background(), policy, ClassifyError, func(ctx context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("%w: status 401", llm.ErrAuth)
	})
	if !errors.Is(err, llm.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		t.Fatalf("fatal errors must not be reported as exhausted")
	}
	if calls != 1 || len(rec.delays) != 0 {
		t.Fatalf("expected a single call without sleeping, got %d calls and %v", calls, rec.delays)
	}
}

func TestWithRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 5, BaseDelay: time.Hour}

	calls := 0
	_, err := WithRetry(ctx, policy, ClassifyError, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, llm.ErrOverloaded
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{name: "overloaded", err: fmt.Errorf("wrap: %w", llm.ErrOverloaded), want: Transient},
		{name: "auth", err: fmt.Errorf("wrap: %w", llm.ErrAuth), want: Fatal},
		{name: "deadline", err: fmt.Errorf("openai request timeout: %w", context.DeadlineExceeded), want: Transient},
		{name: "net timeout", err: timeoutErr{}, want: Transient},
		{name: "connection reset", err: errors.New("read tcp: connection reset by peer"), want: Transient},
		{name: "generic", err: errors.New("openai response missing choices"), want: Fatal},
		{name: "nil", err: nil, want: Fatal},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Fatalf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
