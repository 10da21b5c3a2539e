package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/apolice/crm/modules/crm/domain/aggregates/opportunity"
	"github.com/apolice/crm/modules/crm/domain/entities/task"
)

func TestAddTask_Defaults(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.AddTask(f.userCtx, task.Task{Title: "Ligar para segurado"})
	require.NoError(t, err)
	require.NotNil(t, created.UserID)
	require.Equal(t, f.actingUser.ID, *created.UserID)
	require.Equal(t, task.StatusToDo, created.Status)
	require.Equal(t, task.RecurrenceNone, created.Recurrence)
}

func TestBoard_ProjectsCurrentStageActivities(t *testing.T) {
	f := newFixture(t)
	key := seedSalesFunnel(t, f)

	o, err := f.svc.AddOpportunity(f.userCtx, opportunity.Opportunity{Title: "Seguro auto", FunnelKey: key})
	require.NoError(t, err)

	mine, err := f.svc.AddActivity(f.userCtx, opportunity.Activity{
		OpportunityID: o.ID, Text: "Ligar", Stage: "Contato", AssignedTo: "ana",
	})
	require.NoError(t, err)
	// Another stage's activity never shows on the board.
	_, err = f.svc.AddActivity(f.userCtx, opportunity.Activity{
		OpportunityID: o.ID, Text: "Emitir apólice", Stage: "Fechamento", AssignedTo: "ana",
	})
	require.NoError(t, err)
	// Someone else's activity neither.
	_, err = f.svc.AddActivity(f.userCtx, opportunity.Activity{
		OpportunityID: o.ID, Text: "Cotação", Stage: "Contato", AssignedTo: "bruno",
	})
	require.NoError(t, err)

	stored, err := f.svc.AddTask(f.userCtx, task.Task{Title: "Renovar CNH no cadastro"})
	require.NoError(t, err)

	cards := f.svc.Board("ana", f.actingUser.ID)
	require.Len(t, cards, 2)

	byID := map[uuid.UUID]task.BoardCard{}
	for _, c := range cards {
		byID[c.ID] = c
	}

	taskCard := byID[stored.ID]
	require.False(t, taskCard.IsFunnelActivity)
	require.Equal(t, task.StatusToDo, taskCard.Status)

	projected := byID[mine.ID]
	require.True(t, projected.IsFunnelActivity)
	require.Equal(t, "Ligar", projected.Title)
	require.Equal(t, "Seguro auto", projected.Description)
	require.NotNil(t, projected.ActivityID)
	require.Equal(t, mine.ID, *projected.ActivityID)
}

func TestToggleBoardCard_ActivityWritesToActivity(t *testing.T) {
	f := newFixture(t)
	key := seedSalesFunnel(t, f)

	o, err := f.svc.AddOpportunity(f.userCtx, opportunity.Opportunity{Title: "Seguro auto", FunnelKey: key})
	require.NoError(t, err)
	a, err := f.svc.AddActivity(f.userCtx, opportunity.Activity{
		OpportunityID: o.ID, Text: "Ligar", Stage: "Contato", AssignedTo: "ana",
	})
	require.NoError(t, err)

	cards := f.svc.Board("ana", f.actingUser.ID)
	require.Len(t, cards, 1)
	taskWritesBefore := f.tasks.updates

	require.NoError(t, f.svc.ToggleBoardCard(f.userCtx, cards[0]))

	// No task row was written; the activity flag flipped.
	require.Equal(t, taskWritesBefore, f.tasks.updates)
	require.True(t, f.svc.Opportunities()[0].Activities[0].Completed)
	require.Equal(t, a.ID, f.svc.Opportunities()[0].Activities[0].ID)

	cards = f.svc.Board("ana", f.actingUser.ID)
	require.Equal(t, task.StatusDone, cards[0].Status)
}

func TestToggleBoardCard_TaskFlipsStatus(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.AddTask(f.userCtx, task.Task{Title: "Ligar para segurado"})
	require.NoError(t, err)

	cards := f.svc.Board("ana", f.actingUser.ID)
	require.Len(t, cards, 1)
	require.Equal(t, created.ID, cards[0].ID)

	require.NoError(t, f.svc.ToggleBoardCard(f.userCtx, cards[0]))
	require.Equal(t, task.StatusDone, f.svc.Tasks()[0].Status)

	cards = f.svc.Board("ana", f.actingUser.ID)
	require.NoError(t, f.svc.ToggleBoardCard(f.userCtx, cards[0]))
	require.Equal(t, task.StatusToDo, f.svc.Tasks()[0].Status)
}

func TestToggleBoardCard_UnknownTask(t *testing.T) {
	f := newFixture(t)
	err := f.svc.ToggleBoardCard(f.userCtx, task.BoardCard{ID: uuid.New()})
	require.ErrorIs(t, err, task.ErrNotFound)
}
