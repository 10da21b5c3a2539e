package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("task not found")

type Status string

const (
	StatusToDo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

type Task struct {
	ID            uuid.UUID
	UserID        *uuid.UUID
	Title         string
	Description   string
	Status        Status
	ClientID      *uuid.UUID
	OpportunityID *uuid.UUID
	DueDate       *time.Time
	Recurrence    Recurrence
	CreatedAt     time.Time
}

// BoardCard is what the unified task board renders: either a stored
// Task or a funnel activity projected into task shape. Projected cards
// are never persisted as tasks; toggling one writes back to the
// underlying activity's completed flag.
type BoardCard struct {
	ID               uuid.UUID
	Title            string
	Description      string
	Status           Status
	DueDate          *time.Time
	IsFunnelActivity bool
	OpportunityID    *uuid.UUID
	ActivityID       *uuid.UUID
}

type Repository interface {
	GetAll(ctx context.Context) ([]Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (Task, error)
	Create(ctx context.Context, t Task) (Task, error)
	Update(ctx context.Context, t Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}
