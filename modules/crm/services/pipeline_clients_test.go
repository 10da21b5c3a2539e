package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/apolice/crm/modules/crm/domain/aggregates/client"
	"github.com/apolice/crm/modules/crm/domain/aggregates/policy"
	"github.com/apolice/crm/modules/crm/domain/aggregates/renewal"
	"github.com/apolice/crm/pkg/serrors"
	"github.com/shopspring/decimal"
)

func validClientDTO() *client.CreateDTO {
	return &client.CreateDTO{
		Name:    "João da Silva",
		Email:   "joao@example.com",
		Phone:   "11 98888-7777",
		Address: "Rua das Flores, 10",
	}
}

func TestAddClient_StampsActingUser(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.AddClient(f.userCtx, validClientDTO())
	require.NoError(t, err)
	require.Equal(t, f.actingUser.ID, created.UserID)
	require.Len(t, f.svc.Clients(), 1)
	require.NotEmpty(t, f.publisher.events)
}

func TestAddClient_ValidationFailure(t *testing.T) {
	f := newFixture(t)

	dto := validClientDTO()
	dto.Email = "not-an-email"
	_, err := f.svc.AddClient(f.userCtx, dto)
	require.Error(t, err)

	var base *serrors.BaseError
	require.True(t, errors.As(err, &base))
	require.Equal(t, "CRM_VALIDATION_FAILED", base.Code)
	require.Empty(t, f.svc.Clients())
}

func TestAddClient_DuplicateSubmitRejected(t *testing.T) {
	f := newFixture(t)

	dto := validClientDTO()
	// Simulate the first submit still in flight.
	release, ok := f.svc.guard("client:add:" + dto.Email)
	require.True(t, ok)
	defer release()

	_, err := f.svc.AddClient(f.userCtx, dto)
	require.ErrorIs(t, err, ErrDuplicateSubmit)
}

func TestAddClient_GuardReleasedAfterCompletion(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddClient(f.userCtx, validClientDTO())
	require.NoError(t, err)

	// Resubmitting after the first call finished is not a duplicate.
	dto := validClientDTO()
	_, err = f.svc.AddClient(f.userCtx, dto)
	require.NoError(t, err)
}

func TestDeleteClient_CascadesPoliciesAndRenewals(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.AddClient(f.userCtx, validClientDTO())
	require.NoError(t, err)
	other, err := f.svc.AddClient(f.userCtx, &client.CreateDTO{
		Name: "Maria", Email: "maria@example.com", Phone: "11 97777-6666", Address: "Av. Central, 2",
	})
	require.NoError(t, err)

	p1, err := f.svc.AddPolicy(f.userCtx, policy.Policy{
		ClientID: created.ID, PolicyNumber: "AP-100", Premium: decimal.NewFromInt(1200),
	})
	require.NoError(t, err)
	keepPolicy, err := f.svc.AddPolicy(f.userCtx, policy.Policy{
		ClientID: other.ID, PolicyNumber: "AP-200", Premium: decimal.NewFromInt(900),
	})
	require.NoError(t, err)

	_, err = f.svc.AddRenewal(f.userCtx, renewal.Renewal{ClientID: created.ID, PolicyID: p1.ID})
	require.NoError(t, err)
	keepRenewal, err := f.svc.AddRenewal(f.userCtx, renewal.Renewal{ClientID: other.ID, PolicyID: keepPolicy.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteClient(f.userCtx, created.ID))

	require.Len(t, f.svc.Clients(), 1)
	policies := f.svc.Policies()
	require.Len(t, policies, 1)
	require.Equal(t, keepPolicy.ID, policies[0].ID)
	renewals := f.svc.Renewals()
	require.Len(t, renewals, 1)
	require.Equal(t, keepRenewal.ID, renewals[0].ID)
}

func TestAddPolicy_DefaultsToActive(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.AddPolicy(f.userCtx, policy.Policy{
		ClientID: uuid.New(), PolicyNumber: "AP-300", Premium: decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	require.Equal(t, policy.StatusActive, created.Status)
}

func TestDeletePolicy_DropsRenewalShadow(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.AddPolicy(f.userCtx, policy.Policy{
		ClientID: uuid.New(), PolicyNumber: "AP-400", Premium: decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	_, err = f.svc.AddRenewal(f.userCtx, renewal.Renewal{ClientID: p.ClientID, PolicyID: p.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeletePolicy(f.userCtx, p.ID))
	require.Empty(t, f.svc.Policies())
	require.Empty(t, f.svc.Renewals())
}
