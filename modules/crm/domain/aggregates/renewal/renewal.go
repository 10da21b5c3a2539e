package renewal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("renewal not found")

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusLost       Status = "lost"
)

// Renewal tracks one policy approaching expiry. It shadows the policy
// 1:1 while the renewal is being worked.
type Renewal struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	PolicyID  uuid.UUID
	ClientID  uuid.UUID
	DueDate   time.Time
	Status    Status
	Notes     string
	CreatedAt time.Time
}

type Repository interface {
	GetAll(ctx context.Context) ([]Renewal, error)
	GetByID(ctx context.Context, id uuid.UUID) (Renewal, error)
	Create(ctx context.Context, r Renewal) (Renewal, error)
	Update(ctx context.Context, r Renewal) error
	Delete(ctx context.Context, id uuid.UUID) error
}
