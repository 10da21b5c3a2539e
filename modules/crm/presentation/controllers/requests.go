package controllers

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/apolice/crm/modules/crm/domain/aggregates/policy"
	"github.com/apolice/crm/modules/crm/domain/aggregates/renewal"
)

func (req policyRequest) toEntity() (policy.Policy, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("client_id is invalid")
	}
	if req.PolicyNumber == "" {
		return policy.Policy{}, fmt.Errorf("policy_number is required")
	}
	start, err := parseAPIDate(req.StartDate)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("start_date is invalid")
	}
	end, err := parseAPIDate(req.EndDate)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("end_date is invalid")
	}
	premium, err := decimal.NewFromString(req.Premium)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("premium is invalid")
	}

	p := policy.Policy{
		ClientID:         clientID,
		PolicyNumber:     req.PolicyNumber,
		InsuranceType:    req.InsuranceType,
		InsuranceCompany: req.InsuranceCompany,
		StartDate:        start,
		EndDate:          end,
		Premium:          premium,
		Status:           policy.Status(req.Status),
	}
	if req.Commission != nil {
		d, err := decimal.NewFromString(*req.Commission)
		if err != nil {
			return policy.Policy{}, fmt.Errorf("commission is invalid")
		}
		p.Commission = &d
	}
	return p, nil
}

func (req renewalRequest) toEntity() (renewal.Renewal, error) {
	policyID, err := uuid.Parse(req.PolicyID)
	if err != nil {
		return renewal.Renewal{}, fmt.Errorf("policy_id is invalid")
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return renewal.Renewal{}, fmt.Errorf("client_id is invalid")
	}
	due, err := parseAPIDate(req.DueDate)
	if err != nil {
		return renewal.Renewal{}, fmt.Errorf("due_date is invalid")
	}

	status := renewal.Status(req.Status)
	if req.Status == "" {
		status = renewal.StatusPending
	}
	return renewal.Renewal{
		PolicyID: policyID,
		ClientID: clientID,
		DueDate:  due,
		Status:   status,
		Notes:    req.Notes,
	}, nil
}

// parseAPIDate accepts RFC 3339 timestamps and plain dates.
func parseAPIDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
