package opportunity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("opportunity not found")
	ErrActivityNotFound = errors.New("funnel activity not found")
	ErrUnknownStage     = errors.New("stage does not exist in funnel")
)

type Opportunity struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	FunnelKey            string
	// Stage holds the display name of the current stage. Funnels are
	// user-defined, so stage identity stays a string validated against
	// the live stage table rather than a closed enum.
	Stage                string
	Title                string
	ClientID             uuid.UUID
	Value                decimal.Decimal
	Commission           decimal.Decimal
	ExpectedCloseDate    *time.Time
	DealType             string
	Salesperson          string
	Origin               string
	TechnicalResponsible string
	RenewalResponsible   string
	InsuranceType        string
	InsuranceCompany     string
	Activities           []Activity
	Notes                string
	CreatedAt            time.Time
}

// Activity is a stage-scoped checklist item owned by one opportunity.
// It stays attached to its stage after the opportunity moves on, so the
// checklist history survives transitions.
type Activity struct {
	ID            uuid.UUID
	OpportunityID uuid.UUID
	Text          string
	Stage         string
	Completed     bool
	AssignedTo    string
	DueDate       *time.Time
	DueTime       string
}

type Repository interface {
	GetAll(ctx context.Context) ([]Opportunity, error)
	GetByID(ctx context.Context, id uuid.UUID) (Opportunity, error)
	Create(ctx context.Context, o Opportunity) (Opportunity, error)
	Update(ctx context.Context, o Opportunity) error
	UpdateStage(ctx context.Context, id uuid.UUID, stage string) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateActivity(ctx context.Context, a Activity) (Activity, error)
	UpdateActivity(ctx context.Context, a Activity) error
	DeleteActivity(ctx context.Context, id uuid.UUID) error
}
