package client

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/apolice/crm/pkg/constants"
	"github.com/apolice/crm/pkg/serrors"
)

type CreateDTO struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required"`
	Address        string `json:"address" validate:"required"`
	PersonType     string `json:"person_type"`
	Document       string `json:"document"`
	City           string `json:"city"`
	State          string `json:"state"`
	ZipCode        string `json:"zip_code"`
	Salesperson    string `json:"salesperson"`
	BirthDate      *time.Time       `json:"birth_date"`
	Gender         string           `json:"gender"`
	MaritalStatus  string           `json:"marital_status"`
	Profession     string           `json:"profession"`
	BusinessSector string           `json:"business_sector"`
	MonthlyIncome  *decimal.Decimal `json:"monthly_income"`
	LicenseExpiry  *time.Time       `json:"license_expiry"`
}

func (d *CreateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(strings.ToLower(d.Email))
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	d.Document = strings.TrimSpace(d.Document)
}

func (d *CreateDTO) Ok() (map[string]string, bool) {
	d.Normalize()

	errs := constants.Validate.Struct(d)
	if errs == nil {
		return map[string]string{}, true
	}

	validatorErrs := errs.(validator.ValidationErrors)
	return serrors.ProcessValidatorErrors(validatorErrs, nil).Messages(), false
}

// ToEntity builds the Client, mapping loose enum strings onto the
// closed vocabularies with an unspecified fallback.
func (d *CreateDTO) ToEntity() Client {
	return Client{
		Name:           d.Name,
		Email:          d.Email,
		Phone:          d.Phone,
		Address:        d.Address,
		PersonType:     ParsePersonType(d.PersonType),
		Document:       d.Document,
		City:           d.City,
		State:          d.State,
		ZipCode:        d.ZipCode,
		Salesperson:    d.Salesperson,
		BirthDate:      d.BirthDate,
		Gender:         ParseGender(d.Gender),
		MaritalStatus:  ParseMaritalStatus(d.MaritalStatus),
		Profession:     d.Profession,
		BusinessSector: d.BusinessSector,
		MonthlyIncome:  d.MonthlyIncome,
		LicenseExpiry:  d.LicenseExpiry,
	}
}
