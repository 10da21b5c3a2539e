package policy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("policy not found")
	ErrDuplicate = errors.New("policy already exists")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

type Policy struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	ClientID         uuid.UUID
	PolicyNumber     string
	InsuranceType    string
	InsuranceCompany string
	StartDate        time.Time
	EndDate          time.Time
	Premium          decimal.Decimal
	Commission       *decimal.Decimal
	Status           Status
	CreatedAt        time.Time
}

type Repository interface {
	GetAll(ctx context.Context) ([]Policy, error)
	GetByID(ctx context.Context, id uuid.UUID) (Policy, error)
	GetByClientID(ctx context.Context, clientID uuid.UUID) ([]Policy, error)
	Create(ctx context.Context, p Policy) (Policy, error)
	Update(ctx context.Context, p Policy) error
	Delete(ctx context.Context, id uuid.UUID) error
}
