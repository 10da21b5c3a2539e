package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/apolice/crm/modules/crm/domain/aggregates/opportunity"
	"github.com/apolice/crm/modules/crm/domain/entities/funnel"
	"github.com/apolice/crm/pkg/ordering"
)

func TestAddFunnel_AssignsDenseIndexes(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.AddFunnel(f.userCtx, "Vendas")
	require.NoError(t, err)
	second, err := f.svc.AddFunnel(f.userCtx, "Renovações")
	require.NoError(t, err)
	third, err := f.svc.AddFunnel(f.userCtx, "Sinistros")
	require.NoError(t, err)

	require.Equal(t, 0, first.OrderIndex)
	require.Equal(t, 1, second.OrderIndex)
	require.Equal(t, 2, third.OrderIndex)
	require.Equal(t, "vendas", first.Key)
}

func TestAddFunnel_RejectsDuplicateKey(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AddFunnel(f.userCtx, "Vendas")
	require.NoError(t, err)
	_, err = f.svc.AddFunnel(f.userCtx, "  vendas ")
	require.ErrorIs(t, err, funnel.ErrKeyTaken)
}

func TestMoveFunnel_SwapsAdjacentNeighbors(t *testing.T) {
	f := newFixture(t)

	a, _ := f.svc.AddFunnel(f.userCtx, "Vendas")
	b, _ := f.svc.AddFunnel(f.userCtx, "Renovações")
	c, _ := f.svc.AddFunnel(f.userCtx, "Sinistros")

	require.NoError(t, f.svc.MoveFunnel(f.userCtx, c.ID, ordering.Up))

	require.Equal(t, []int{0, 2, 1}, funnelIndexes(f, a.ID, b.ID, c.ID))
	requireDenseFunnels(t, f)
}

func TestMoveFunnel_BoundaryIsSilentNoOp(t *testing.T) {
	f := newFixture(t)

	a, _ := f.svc.AddFunnel(f.userCtx, "Vendas")
	f.svc.AddFunnel(f.userCtx, "Renovações")
	writesBefore := f.funnels.updates

	require.NoError(t, f.svc.MoveFunnel(f.userCtx, a.ID, ordering.Up))

	// No backing write on a no-op move.
	require.Equal(t, writesBefore, f.funnels.updates)
	require.Equal(t, 0, funnelIndexes(f, a.ID)[0])
}

func TestMoveFunnel_RestoresOrderWhenPersistFails(t *testing.T) {
	f := newFixture(t)

	a, _ := f.svc.AddFunnel(f.userCtx, "Vendas")
	b, _ := f.svc.AddFunnel(f.userCtx, "Renovações")

	// First patch write lands, second fails: the group must roll back.
	f.funnels.failUpdateAt = f.funnels.updates + 2

	err := f.svc.MoveFunnel(f.userCtx, b.ID, ordering.Up)
	require.Error(t, err)

	require.Equal(t, []int{0, 1}, funnelIndexes(f, a.ID, b.ID))
	requireDenseFunnels(t, f)
}

func TestDeleteFunnel_CascadesAndCompacts(t *testing.T) {
	f := newFixture(t)

	vendas, _ := f.svc.AddFunnel(f.userCtx, "Vendas")
	renov, _ := f.svc.AddFunnel(f.userCtx, "Renovações")
	sinistros, _ := f.svc.AddFunnel(f.userCtx, "Sinistros")

	_, err := f.svc.AddStage(f.userCtx, renov.Key, "Contato")
	require.NoError(t, err)
	_, err = f.svc.AddTemplate(f.userCtx, renov.Key, "contato", "Ligar para o cliente")
	require.NoError(t, err)

	f.svc.mu.Lock()
	f.svc.opportunities = append(f.svc.opportunities, opportunity.Opportunity{
		ID:        uuid.New(),
		FunnelKey: renov.Key,
		Stage:     "Contato",
	})
	f.svc.mu.Unlock()

	require.NoError(t, f.svc.DeleteFunnel(f.userCtx, renov.ID))

	require.Len(t, f.svc.Funnels(), 2)
	require.Empty(t, f.svc.StagesOf(renov.Key))
	require.Empty(t, f.svc.Templates())
	require.Empty(t, f.svc.Opportunities())
	require.Equal(t, []int{0, 1}, funnelIndexes(f, vendas.ID, sinistros.ID))
	requireDenseFunnels(t, f)
}

func TestDeleteFunnel_RestoresSnapshotWhenCompactionFails(t *testing.T) {
	f := newFixture(t)

	vendas, _ := f.svc.AddFunnel(f.userCtx, "Vendas")
	renov, _ := f.svc.AddFunnel(f.userCtx, "Renovações")
	sinistros, _ := f.svc.AddFunnel(f.userCtx, "Sinistros")

	_, err := f.svc.AddStage(f.userCtx, renov.Key, "Contato")
	require.NoError(t, err)

	f.svc.mu.Lock()
	f.svc.opportunities = append(f.svc.opportunities, opportunity.Opportunity{
		ID:        uuid.New(),
		FunnelKey: renov.Key,
		Stage:     "Contato",
	})
	f.svc.mu.Unlock()

	// The compaction write after the remote delete fails: the whole
	// cascade must be undone locally, not just the index patches.
	f.funnels.failUpdateAt = f.funnels.updates + 1

	err = f.svc.DeleteFunnel(f.userCtx, renov.ID)
	require.Error(t, err)

	require.Len(t, f.svc.Funnels(), 3)
	require.Equal(t, []int{0, 1, 2}, funnelIndexes(f, vendas.ID, renov.ID, sinistros.ID))
	require.Len(t, f.svc.StagesOf(renov.Key), 1)
	require.Len(t, f.svc.Opportunities(), 1)
	requireDenseFunnels(t, f)
}

func TestDeleteFunnel_UnknownID(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.svc.DeleteFunnel(f.userCtx, uuid.New()), funnel.ErrFunnelNotFound)
}

func TestAddStage_RequiresExistingFunnel(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddStage(f.userCtx, "fantasma", "Contato")
	require.ErrorIs(t, err, funnel.ErrFunnelNotFound)
}

func TestMoveStage_ScopedToOwnFunnel(t *testing.T) {
	f := newFixture(t)

	vendas, _ := f.svc.AddFunnel(f.userCtx, "Vendas")
	renov, _ := f.svc.AddFunnel(f.userCtx, "Renovações")

	v1, _ := f.svc.AddStage(f.userCtx, vendas.Key, "Contato")
	v2, _ := f.svc.AddStage(f.userCtx, vendas.Key, "Proposta")
	r1, _ := f.svc.AddStage(f.userCtx, renov.Key, "Aviso")

	require.NoError(t, f.svc.MoveStage(f.userCtx, v2.ID, ordering.Up))

	stages := f.svc.StagesOf(vendas.Key)
	require.Equal(t, []uuid.UUID{v2.ID, v1.ID}, []uuid.UUID{stages[0].ID, stages[1].ID})

	// The other funnel's group is untouched.
	other := f.svc.StagesOf(renov.Key)
	require.Len(t, other, 1)
	require.Equal(t, r1.ID, other[0].ID)
	require.Equal(t, 0, other[0].OrderIndex)
}

func TestDeleteStage_DropsScopedTemplates(t *testing.T) {
	f := newFixture(t)

	vendas, _ := f.svc.AddFunnel(f.userCtx, "Vendas")
	contato, _ := f.svc.AddStage(f.userCtx, vendas.Key, "Contato")
	proposta, _ := f.svc.AddStage(f.userCtx, vendas.Key, "Proposta")
	fechamento, _ := f.svc.AddStage(f.userCtx, vendas.Key, "Fechamento")

	_, err := f.svc.AddTemplate(f.userCtx, vendas.Key, proposta.Key, "Enviar cotação")
	require.NoError(t, err)
	keep, err := f.svc.AddTemplate(f.userCtx, vendas.Key, contato.Key, "Ligar")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteStage(f.userCtx, proposta.ID))

	stages := f.svc.StagesOf(vendas.Key)
	require.Len(t, stages, 2)
	require.Equal(t, 0, stages[0].OrderIndex)
	require.Equal(t, 1, stages[1].OrderIndex)
	require.Equal(t, fechamento.ID, stages[1].ID)

	templates := f.svc.Templates()
	require.Len(t, templates, 1)
	require.Equal(t, keep.ID, templates[0].ID)
}

func TestDeleteStage_RestoresSnapshotWhenCompactionFails(t *testing.T) {
	f := newFixture(t)

	vendas, _ := f.svc.AddFunnel(f.userCtx, "Vendas")
	contato, _ := f.svc.AddStage(f.userCtx, vendas.Key, "Contato")
	proposta, _ := f.svc.AddStage(f.userCtx, vendas.Key, "Proposta")
	fechamento, _ := f.svc.AddStage(f.userCtx, vendas.Key, "Fechamento")

	tpl, err := f.svc.AddTemplate(f.userCtx, vendas.Key, proposta.Key, "Enviar cotação")
	require.NoError(t, err)

	f.funnels.failStageAt = f.funnels.stageUpdates + 1

	require.Error(t, f.svc.DeleteStage(f.userCtx, proposta.ID))

	stages := f.svc.StagesOf(vendas.Key)
	require.Len(t, stages, 3)
	require.Equal(t, []uuid.UUID{contato.ID, proposta.ID, fechamento.ID},
		[]uuid.UUID{stages[0].ID, stages[1].ID, stages[2].ID})

	templates := f.svc.Templates()
	require.Len(t, templates, 1)
	require.Equal(t, tpl.ID, templates[0].ID)
}

// Mirrors a broker configuring a sales funnel end to end: create,
// reorder, delete a middle stage, and land on a dense board.
func TestFunnelLifecycle_SalesBoard(t *testing.T) {
	f := newFixture(t)

	vendas, err := f.svc.AddFunnel(f.userCtx, "Vendas")
	require.NoError(t, err)

	contato, _ := f.svc.AddStage(f.userCtx, vendas.Key, "Contato")
	proposta, _ := f.svc.AddStage(f.userCtx, vendas.Key, "Proposta")
	fechamento, _ := f.svc.AddStage(f.userCtx, vendas.Key, "Fechamento")

	require.NoError(t, f.svc.MoveStage(f.userCtx, fechamento.ID, ordering.Up))
	require.NoError(t, f.svc.DeleteStage(f.userCtx, proposta.ID))

	stages := f.svc.StagesOf(vendas.Key)
	require.Len(t, stages, 2)
	require.Equal(t, contato.ID, stages[0].ID)
	require.Equal(t, fechamento.ID, stages[1].ID)
	require.Equal(t, 0, stages[0].OrderIndex)
	require.Equal(t, 1, stages[1].OrderIndex)
}

func TestDeleteTemplate_RestoresSnapshotWhenCompactionFails(t *testing.T) {
	f := newFixture(t)

	vendas, _ := f.svc.AddFunnel(f.userCtx, "Vendas")
	contato, _ := f.svc.AddStage(f.userCtx, vendas.Key, "Contato")

	first, _ := f.svc.AddTemplate(f.userCtx, vendas.Key, contato.Key, "Ligar")
	second, _ := f.svc.AddTemplate(f.userCtx, vendas.Key, contato.Key, "Enviar proposta")

	f.funnels.failTemplateAt = f.funnels.templateUpdates + 1

	require.Error(t, f.svc.DeleteTemplate(f.userCtx, first.ID))

	templates := f.svc.Templates()
	require.Len(t, templates, 2)
	byID := map[uuid.UUID]int{}
	for _, tpl := range templates {
		byID[tpl.ID] = tpl.OrderIndex
	}
	require.Equal(t, 0, byID[first.ID])
	require.Equal(t, 1, byID[second.ID])
}

func TestMoveTemplate_ReordersChecklist(t *testing.T) {
	f := newFixture(t)

	vendas, _ := f.svc.AddFunnel(f.userCtx, "Vendas")
	contato, _ := f.svc.AddStage(f.userCtx, vendas.Key, "Contato")

	first, _ := f.svc.AddTemplate(f.userCtx, vendas.Key, contato.Key, "Ligar")
	second, _ := f.svc.AddTemplate(f.userCtx, vendas.Key, contato.Key, "Enviar proposta")

	require.NoError(t, f.svc.MoveTemplate(f.userCtx, second.ID, ordering.Up))

	templates := f.svc.Templates()
	byID := map[uuid.UUID]int{}
	for _, tpl := range templates {
		byID[tpl.ID] = tpl.OrderIndex
	}
	require.Equal(t, 1, byID[first.ID])
	require.Equal(t, 0, byID[second.ID])
}

func funnelIndexes(f *fixture, ids ...uuid.UUID) []int {
	byID := map[uuid.UUID]int{}
	for _, fn := range f.svc.Funnels() {
		byID[fn.ID] = fn.OrderIndex
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out
}

func requireDenseFunnels(t *testing.T, f *fixture) {
	t.Helper()
	seen := map[int]bool{}
	for _, fn := range f.svc.Funnels() {
		require.False(t, seen[fn.OrderIndex], "duplicate index %d", fn.OrderIndex)
		seen[fn.OrderIndex] = true
	}
	for i := 0; i < len(f.svc.Funnels()); i++ {
		require.True(t, seen[i], "missing index %d", i)
	}
}
