// Package quota decides whether a caller may start another upload.
package quota

import (
	"context"
	"fmt"
	"time"
)

// Decision is the outcome of a quota check. Message is user-facing and only
// set when the upload is refused.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Message string `json:"message,omitempty"`
	Used    int    `json:"used"`
	Limit   int    `json:"limit"`
}

// Checker is implemented by every quota backend.
type Checker interface {
	CheckUploadQuota(ctx context.Context, userID string) (Decision, error)
}

// RecordCounter counts a user's upload records created at or after since.
type RecordCounter interface {
	CountByUserSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// Service counts stored upload records over a rolling window.
type Service struct {
	counter RecordCounter
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewService(counter RecordCounter, limit int, window time.Duration) *Service {
	return &Service{
		counter: counter,
		limit:   limit,
		window:  window,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CheckUploadQuota(ctx context.Context, userID string) (Decision, error) {
	if s.limit <= 0 {
		return Decision{Allowed: true}, nil
	}
	used, err := s.counter.CountByUserSince(ctx, userID, s.now().Add(-s.window))
	if err != nil {
		return Decision{}, fmt.Errorf("count uploads: %w", err)
	}
	return decide(used, s.limit, s.window), nil
}

// decide allows the upload while fewer than limit uploads were counted.
func decide(used, limit int, window time.Duration) Decision {
	d := Decision{Allowed: used < limit, Used: used, Limit: limit}
	if !d.Allowed {
		d.Message = fmt.Sprintf("Upload limit reached: %d of %d uploads used in the last %s.", used, limit, describeWindow(window))
	}
	return d
}

func describeWindow(window time.Duration) string {
	switch {
	case window >= 24*time.Hour && window%(24*time.Hour) == 0:
		days := int(window / (24 * time.Hour))
		if days == 1 {
			return "day"
		}
		return fmt.Sprintf("%d days", days)
	case window >= time.Hour && window%time.Hour == 0:
		hours := int(window / time.Hour)
		if hours == 1 {
			return "hour"
		}
		return fmt.Sprintf("%d hours", hours)
	default:
		return window.String()
	}
}
