package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/apolice/crm/modules/crm/domain/aggregates/client"
	"github.com/apolice/crm/modules/crm/domain/aggregates/opportunity"
	"github.com/apolice/crm/modules/crm/domain/aggregates/policy"
	"github.com/apolice/crm/modules/crm/domain/aggregates/renewal"
	"github.com/apolice/crm/modules/crm/domain/entities/funnel"
	"github.com/apolice/crm/modules/crm/domain/entities/task"
)

type clientResponse struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Phone          string           `json:"phone"`
	Address        string           `json:"address"`
	PersonType     string           `json:"person_type"`
	Document       string           `json:"document"`
	City           string           `json:"city"`
	State          string           `json:"state"`
	ZipCode        string           `json:"zip_code"`
	Salesperson    string           `json:"salesperson"`
	BirthDate      *time.Time       `json:"birth_date,omitempty"`
	Gender         string           `json:"gender"`
	MaritalStatus  string           `json:"marital_status"`
	Profession     string           `json:"profession"`
	BusinessSector string           `json:"business_sector"`
	MonthlyIncome  *decimal.Decimal `json:"monthly_income,omitempty"`
	LicenseExpiry  *time.Time       `json:"license_expiry,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

func toClientResponse(c client.Client) clientResponse {
	return clientResponse{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Address:        c.Address,
		PersonType:     string(c.PersonType),
		Document:       c.Document,
		City:           c.City,
		State:          c.State,
		ZipCode:        c.ZipCode,
		Salesperson:    c.Salesperson,
		BirthDate:      c.BirthDate,
		Gender:         string(c.Gender),
		MaritalStatus:  string(c.MaritalStatus),
		Profession:     c.Profession,
		BusinessSector: c.BusinessSector,
		MonthlyIncome:  c.MonthlyIncome,
		LicenseExpiry:  c.LicenseExpiry,
		CreatedAt:      c.CreatedAt,
	}
}

type policyResponse struct {
	ID               uuid.UUID        `json:"id"`
	ClientID         uuid.UUID        `json:"client_id"`
	PolicyNumber     string           `json:"policy_number"`
	InsuranceType    string           `json:"insurance_type"`
	InsuranceCompany string           `json:"insurance_company"`
	StartDate        time.Time        `json:"start_date"`
	EndDate          time.Time        `json:"end_date"`
	Premium          decimal.Decimal  `json:"premium"`
	Commission       *decimal.Decimal `json:"commission,omitempty"`
	Status           string           `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
}

func toPolicyResponse(p policy.Policy) policyResponse {
	return policyResponse{
		ID:               p.ID,
		ClientID:         p.ClientID,
		PolicyNumber:     p.PolicyNumber,
		InsuranceType:    p.InsuranceType,
		InsuranceCompany: p.InsuranceCompany,
		StartDate:        p.StartDate,
		EndDate:          p.EndDate,
		Premium:          p.Premium,
		Commission:       p.Commission,
		Status:           string(p.Status),
		CreatedAt:        p.CreatedAt,
	}
}

type renewalResponse struct {
	ID        uuid.UUID `json:"id"`
	PolicyID  uuid.UUID `json:"policy_id"`
	ClientID  uuid.UUID `json:"client_id"`
	DueDate   time.Time `json:"due_date"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

func toRenewalResponse(r renewal.Renewal) renewalResponse {
	return renewalResponse{
		ID:        r.ID,
		PolicyID:  r.PolicyID,
		ClientID:  r.ClientID,
		DueDate:   r.DueDate,
		Status:    string(r.Status),
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
	}
}

type funnelResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Key        string    `json:"key"`
	IsActive   bool      `json:"is_active"`
	OrderIndex int       `json:"order_index"`
}

func toFunnelResponse(f funnel.Funnel) funnelResponse {
	return funnelResponse{ID: f.ID, Name: f.Name, Key: f.Key, IsActive: f.IsActive, OrderIndex: f.OrderIndex}
}

type stageResponse struct {
	ID         uuid.UUID `json:"id"`
	FunnelKey  string    `json:"funnel_key"`
	Name       string    `json:"name"`
	Key        string    `json:"key"`
	OrderIndex int       `json:"order_index"`
}

func toStageResponse(st funnel.Stage) stageResponse {
	return stageResponse{ID: st.ID, FunnelKey: st.FunnelKey, Name: st.Name, Key: st.Key, OrderIndex: st.OrderIndex}
}

type templateResponse struct {
	ID         uuid.UUID `json:"id"`
	FunnelKey  string    `json:"funnel_key"`
	StageKey   string    `json:"stage_key"`
	Text       string    `json:"text"`
	OrderIndex int       `json:"order_index"`
}

func toTemplateResponse(t funnel.ActivityTemplate) templateResponse {
	return templateResponse{ID: t.ID, FunnelKey: t.FunnelKey, StageKey: t.StageKey, Text: t.Text, OrderIndex: t.OrderIndex}
}

type activityResponse struct {
	ID         uuid.UUID  `json:"id"`
	Text       string     `json:"text"`
	Stage      string     `json:"stage"`
	Completed  bool       `json:"completed"`
	AssignedTo string     `json:"assigned_to"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	DueTime    string     `json:"due_time,omitempty"`
}

type opportunityResponse struct {
	ID                uuid.UUID          `json:"id"`
	FunnelKey         string             `json:"funnel_key"`
	Stage             string             `json:"stage"`
	Title             string             `json:"title"`
	ClientID          uuid.UUID          `json:"client_id,omitempty"`
	Value             decimal.Decimal    `json:"value"`
	Commission        decimal.Decimal    `json:"commission"`
	ExpectedCloseDate *time.Time         `json:"expected_close_date,omitempty"`
	DealType          string             `json:"deal_type"`
	Salesperson       string             `json:"salesperson"`
	Origin            string             `json:"origin"`
	TechnicalResp     string             `json:"technical_responsible"`
	RenewalResp       string             `json:"renewal_responsible"`
	InsuranceType     string             `json:"insurance_type"`
	InsuranceCompany  string             `json:"insurance_company"`
	Notes             string             `json:"notes"`
	Activities        []activityResponse `json:"activities"`
	CreatedAt         time.Time          `json:"created_at"`
}

func toOpportunityResponse(o opportunity.Opportunity) opportunityResponse {
	activities := make([]activityResponse, 0, len(o.Activities))
	for _, a := range o.Activities {
		activities = append(activities, activityResponse{
			ID:         a.ID,
			Text:       a.Text,
			Stage:      a.Stage,
			Completed:  a.Completed,
			AssignedTo: a.AssignedTo,
			DueDate:    a.DueDate,
			DueTime:    a.DueTime,
		})
	}
	return opportunityResponse{
		ID:                o.ID,
		FunnelKey:         o.FunnelKey,
		Stage:             o.Stage,
		Title:             o.Title,
		ClientID:          o.ClientID,
		Value:             o.Value,
		Commission:        o.Commission,
		ExpectedCloseDate: o.ExpectedCloseDate,
		DealType:          o.DealType,
		Salesperson:       o.Salesperson,
		Origin:            o.Origin,
		TechnicalResp:     o.TechnicalResponsible,
		RenewalResp:       o.RenewalResponsible,
		InsuranceType:     o.InsuranceType,
		InsuranceCompany:  o.InsuranceCompany,
		Notes:             o.Notes,
		Activities:        activities,
		CreatedAt:         o.CreatedAt,
	}
}

type taskResponse struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	ClientID      *uuid.UUID `json:"client_id,omitempty"`
	OpportunityID *uuid.UUID `json:"opportunity_id,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Recurrence    string     `json:"recurrence"`
}

func toTaskResponse(t task.Task) taskResponse {
	return taskResponse{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Status:        string(t.Status),
		ClientID:      t.ClientID,
		OpportunityID: t.OpportunityID,
		DueDate:       t.DueDate,
		Recurrence:    string(t.Recurrence),
	}
}

type boardCardResponse struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           string     `json:"status"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	IsFunnelActivity bool       `json:"is_funnel_activity"`
	OpportunityID    *uuid.UUID `json:"opportunity_id,omitempty"`
	ActivityID       *uuid.UUID `json:"activity_id,omitempty"`
}

func toBoardCardResponse(c task.BoardCard) boardCardResponse {
	return boardCardResponse{
		ID:               c.ID,
		Title:            c.Title,
		Description:      c.Description,
		Status:           string(c.Status),
		DueDate:          c.DueDate,
		IsFunnelActivity: c.IsFunnelActivity,
		OpportunityID:    c.OpportunityID,
		ActivityID:       c.ActivityID,
	}
}
