package uploads

import (
	"context"
	"time"
)

// Repo persists upload records.
type Repo interface {
	Create(ctx context.Context, r Record) error
	Update(ctx context.Context, r Record) error
	GetByID(ctx context.Context, userID, id string) (Record, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error)
	Delete(ctx context.Context, userID, id string) error
	CountByUserSince(ctx context.Context, userID string, since time.Time) (int, error)
}
