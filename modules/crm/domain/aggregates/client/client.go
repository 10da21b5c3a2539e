package client

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("client not found")
	ErrDuplicate = errors.New("client already exists")
)

type PersonType string

const (
	PersonTypeIndividual  PersonType = "fisica"
	PersonTypeCompany     PersonType = "juridica"
	PersonTypeUnspecified PersonType = "nao_informado"
)

type Gender string

const (
	GenderMale        Gender = "masculino"
	GenderFemale      Gender = "feminino"
	GenderUnspecified Gender = "nao_informado"
)

type MaritalStatus string

const (
	MaritalSingle      MaritalStatus = "solteiro"
	MaritalMarried     MaritalStatus = "casado"
	MaritalDivorced    MaritalStatus = "divorciado"
	MaritalWidowed     MaritalStatus = "viuvo"
	MaritalUnspecified MaritalStatus = "nao_informado"
)

type Client struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string
	Email          string
	Phone          string
	Address        string
	PersonType     PersonType
	Document       string
	City           string
	State          string
	ZipCode        string
	Salesperson    string
	BirthDate      *time.Time
	Gender         Gender
	MaritalStatus  MaritalStatus
	Profession     string
	BusinessSector string
	MonthlyIncome  *decimal.Decimal
	LicenseExpiry  *time.Time
	CreatedAt      time.Time
}

type FindParams struct {
	Q      string
	UserID uuid.UUID
	Limit  int
	Offset int
}

type Repository interface {
	GetAll(ctx context.Context) ([]Client, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]Client, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (Client, error)
	Create(ctx context.Context, c Client) (Client, error)
	Update(ctx context.Context, c Client) error
	Delete(ctx context.Context, id uuid.UUID) error
}
