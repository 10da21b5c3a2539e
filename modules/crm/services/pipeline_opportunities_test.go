package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/apolice/crm/modules/crm/domain/aggregates/opportunity"
	"github.com/apolice/crm/pkg/serrors"
)

func seedSalesFunnel(t *testing.T, f *fixture) (funnelKey string) {
	t.Helper()
	vendas, err := f.svc.AddFunnel(f.userCtx, "Vendas")
	require.NoError(t, err)
	_, err = f.svc.AddStage(f.userCtx, vendas.Key, "Contato")
	require.NoError(t, err)
	_, err = f.svc.AddStage(f.userCtx, vendas.Key, "Proposta")
	require.NoError(t, err)
	_, err = f.svc.AddStage(f.userCtx, vendas.Key, "Fechamento")
	require.NoError(t, err)
	return vendas.Key
}

func TestAddOpportunity_EntersFirstStageWithChecklist(t *testing.T) {
	f := newFixture(t)
	key := seedSalesFunnel(t, f)

	_, err := f.svc.AddTemplate(f.userCtx, key, "contato", "Ligar para o cliente")
	require.NoError(t, err)
	_, err = f.svc.AddTemplate(f.userCtx, key, "contato", "Registrar interesse")
	require.NoError(t, err)

	o, err := f.svc.AddOpportunity(f.userCtx, opportunity.Opportunity{
		Title:     "Seguro auto — João",
		FunnelKey: key,
	})
	require.NoError(t, err)

	require.Equal(t, "Contato", o.Stage)
	require.Equal(t, f.actingUser.ID, o.UserID)
	require.Len(t, o.Activities, 2)
	for _, a := range o.Activities {
		require.Equal(t, "Contato", a.Stage)
		require.False(t, a.Completed)
	}
}

func TestAddOpportunity_UnknownFunnel(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddOpportunity(f.userCtx, opportunity.Opportunity{Title: "x", FunnelKey: "fantasma"})
	require.Error(t, err)
}

func TestMoveOpportunityStage_BlockedByOpenChecklist(t *testing.T) {
	f := newFixture(t)
	key := seedSalesFunnel(t, f)

	_, err := f.svc.AddTemplate(f.userCtx, key, "contato", "Ligar para o cliente")
	require.NoError(t, err)

	o, err := f.svc.AddOpportunity(f.userCtx, opportunity.Opportunity{Title: "Seguro auto", FunnelKey: key})
	require.NoError(t, err)

	stageWritesBefore := f.opps.stageUpdates
	err = f.svc.MoveOpportunityStage(f.userCtx, o.ID, "Proposta")
	require.Error(t, err)
	require.ErrorIs(t, err, opportunity.ErrStageGateBlocked)

	// Storage untouched, snapshot untouched.
	require.Equal(t, stageWritesBefore, f.opps.stageUpdates)
	require.Equal(t, "Contato", f.svc.Opportunities()[0].Stage)

	var base *serrors.BaseError
	require.True(t, errors.As(err, &base))
	require.Equal(t, "CRM_STAGE_GATE", base.Code)
}

func TestMoveOpportunityStage_AllowedAfterChecklistDone(t *testing.T) {
	f := newFixture(t)
	key := seedSalesFunnel(t, f)

	_, err := f.svc.AddTemplate(f.userCtx, key, "contato", "Ligar para o cliente")
	require.NoError(t, err)
	_, err = f.svc.AddTemplate(f.userCtx, key, "proposta", "Enviar cotação")
	require.NoError(t, err)

	o, err := f.svc.AddOpportunity(f.userCtx, opportunity.Opportunity{Title: "Seguro auto", FunnelKey: key})
	require.NoError(t, err)

	require.NoError(t, f.svc.ToggleActivity(f.userCtx, o.Activities[0].ID))
	require.NoError(t, f.svc.MoveOpportunityStage(f.userCtx, o.ID, "Proposta"))

	moved := f.svc.Opportunities()[0]
	require.Equal(t, "Proposta", moved.Stage)

	// Entering the stage instantiated its template; the completed
	// activity from the previous stage is still there.
	texts := map[string]bool{}
	for _, a := range moved.Activities {
		texts[a.Text] = true
	}
	require.True(t, texts["Ligar para o cliente"])
	require.True(t, texts["Enviar cotação"])
}

func TestMoveOpportunityStage_SameStageIsNoOp(t *testing.T) {
	f := newFixture(t)
	key := seedSalesFunnel(t, f)

	o, err := f.svc.AddOpportunity(f.userCtx, opportunity.Opportunity{Title: "Seguro auto", FunnelKey: key})
	require.NoError(t, err)

	before := f.opps.stageUpdates
	require.NoError(t, f.svc.MoveOpportunityStage(f.userCtx, o.ID, "Contato"))
	require.Equal(t, before, f.opps.stageUpdates)
}

func TestMoveOpportunityStage_UnknownDestination(t *testing.T) {
	f := newFixture(t)
	key := seedSalesFunnel(t, f)

	o, err := f.svc.AddOpportunity(f.userCtx, opportunity.Opportunity{Title: "Seguro auto", FunnelKey: key})
	require.NoError(t, err)

	err = f.svc.MoveOpportunityStage(f.userCtx, o.ID, "Assinatura")
	require.ErrorIs(t, err, opportunity.ErrUnknownStage)
	require.Equal(t, "Contato", f.svc.Opportunities()[0].Stage)
}

func TestMoveOpportunityStage_BackwardSkipsDuplicateInstantiation(t *testing.T) {
	f := newFixture(t)
	key := seedSalesFunnel(t, f)

	_, err := f.svc.AddTemplate(f.userCtx, key, "contato", "Ligar para o cliente")
	require.NoError(t, err)

	o, err := f.svc.AddOpportunity(f.userCtx, opportunity.Opportunity{Title: "Seguro auto", FunnelKey: key})
	require.NoError(t, err)
	require.NoError(t, f.svc.ToggleActivity(f.userCtx, o.Activities[0].ID))
	require.NoError(t, f.svc.MoveOpportunityStage(f.userCtx, o.ID, "Proposta"))
	require.NoError(t, f.svc.MoveOpportunityStage(f.userCtx, o.ID, "Contato"))

	moved := f.svc.Opportunities()[0]
	count := 0
	for _, a := range moved.Activities {
		if a.Text == "Ligar para o cliente" {
			count++
			require.True(t, a.Completed)
		}
	}
	require.Equal(t, 1, count)
}

func TestToggleActivity_FlipsCompleted(t *testing.T) {
	f := newFixture(t)
	key := seedSalesFunnel(t, f)

	_, err := f.svc.AddTemplate(f.userCtx, key, "contato", "Ligar")
	require.NoError(t, err)
	o, err := f.svc.AddOpportunity(f.userCtx, opportunity.Opportunity{Title: "Seguro auto", FunnelKey: key})
	require.NoError(t, err)

	id := o.Activities[0].ID
	require.NoError(t, f.svc.ToggleActivity(f.userCtx, id))
	require.True(t, f.svc.Opportunities()[0].Activities[0].Completed)

	require.NoError(t, f.svc.ToggleActivity(f.userCtx, id))
	require.False(t, f.svc.Opportunities()[0].Activities[0].Completed)
}

func TestToggleActivity_Unknown(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.svc.ToggleActivity(f.userCtx, uuid.New()), opportunity.ErrActivityNotFound)
}
