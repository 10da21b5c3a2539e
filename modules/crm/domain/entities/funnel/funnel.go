package funnel

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFunnelNotFound   = errors.New("funnel not found")
	ErrStageNotFound    = errors.New("funnel stage not found")
	ErrTemplateNotFound = errors.New("activity template not found")
	ErrKeyTaken         = errors.New("funnel key already in use")
)

// Funnel is one sales pipeline. Key is the stable slug referenced by
// stages and opportunities; OrderIndex is dense and zero-based across
// all funnels.
type Funnel struct {
	ID         uuid.UUID
	Name       string
	Key        string
	IsActive   bool
	OrderIndex int
	CreatedAt  time.Time
}

// Stage belongs to one funnel. OrderIndex is dense and zero-based
// within the funnel only; each funnel numbers its stages from 0.
type Stage struct {
	ID         uuid.UUID
	FunnelKey  string
	Name       string
	Key        string
	OrderIndex int
}

// ActivityTemplate is a checklist item instantiated onto opportunities
// entering the stage it is scoped to.
type ActivityTemplate struct {
	ID         uuid.UUID
	FunnelKey  string
	StageKey   string
	Text       string
	OrderIndex int
}

func New(name string) Funnel {
	return Funnel{
		ID:       uuid.New(),
		Name:     name,
		Key:      Slug(name),
		IsActive: true,
	}
}

func NewStage(funnelKey, name string) Stage {
	return Stage{
		ID:        uuid.New(),
		FunnelKey: funnelKey,
		Name:      name,
		Key:       Slug(name),
	}
}

type Repository interface {
	GetAll(ctx context.Context) ([]Funnel, error)
	GetByID(ctx context.Context, id uuid.UUID) (Funnel, error)
	Create(ctx context.Context, f Funnel) (Funnel, error)
	Update(ctx context.Context, f Funnel) error
	// Delete removes the funnel and, through the schema's cascade,
	// its stages and activity templates.
	Delete(ctx context.Context, id uuid.UUID) error

	GetAllStages(ctx context.Context) ([]Stage, error)
	GetStageByID(ctx context.Context, id uuid.UUID) (Stage, error)
	CreateStage(ctx context.Context, s Stage) (Stage, error)
	UpdateStage(ctx context.Context, s Stage) error
	DeleteStage(ctx context.Context, id uuid.UUID) error

	GetAllTemplates(ctx context.Context) ([]ActivityTemplate, error)
	CreateTemplate(ctx context.Context, t ActivityTemplate) (ActivityTemplate, error)
	UpdateTemplate(ctx context.Context, t ActivityTemplate) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
}
