package services

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/apolice/crm/modules/crm/domain/aggregates/opportunity"
	"github.com/apolice/crm/modules/crm/domain/entities/funnel"
	"github.com/apolice/crm/pkg/composables"
	"github.com/apolice/crm/pkg/ordering"
)

func sortStages(stages []funnel.Stage) {
	sort.Slice(stages, func(i, j int) bool { return stages[i].OrderIndex < stages[j].OrderIndex })
}

func (s *PipelineService) AddFunnel(ctx context.Context, name string) (funnel.Funnel, error) {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return funnel.Funnel{}, err
	}

	f := funnel.New(name)

	s.mu.Lock()
	for _, existing := range s.funnels {
		if existing.Key == f.Key {
			s.mu.Unlock()
			return funnel.Funnel{}, funnel.ErrKeyTaken
		}
	}
	f.OrderIndex = ordering.NextIndex(funnelItems(s.funnels))
	s.mu.Unlock()

	release, ok := s.guard("funnel:add:" + f.Key)
	if !ok {
		return funnel.Funnel{}, ErrDuplicateSubmit
	}
	defer release()

	created, err := s.funnelRepo.Create(ctx, f)
	if err != nil {
		return funnel.Funnel{}, err
	}

	s.mu.Lock()
	s.funnels = append(s.funnels, created)
	s.mu.Unlock()

	s.publish("crm.funnel.created", &created)
	return created, nil
}

func (s *PipelineService) UpdateFunnel(ctx context.Context, f funnel.Funnel) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}
	if err := s.funnelRepo.Update(ctx, f); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.funnels {
		if s.funnels[i].ID == f.ID {
			s.funnels[i] = f
			break
		}
	}
	s.mu.Unlock()

	s.publish("crm.funnel.updated", &f)
	return nil
}

// DeleteFunnel removes the funnel configuration and cascades: its
// stages, its activity templates, and its opportunities leave the
// snapshot in the same pass, and the remaining funnels are compacted
// back to a dense index sequence.
func (s *PipelineService) DeleteFunnel(ctx context.Context, id uuid.UUID) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	var target *funnel.Funnel
	for i := range s.funnels {
		if s.funnels[i].ID == id {
			f := s.funnels[i]
			target = &f
			break
		}
	}
	s.mu.Unlock()
	if target == nil {
		return funnel.ErrFunnelNotFound
	}

	if err := s.funnelRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	prevFunnels := append([]funnel.Funnel(nil), s.funnels...)
	prevStages := append([]funnel.Stage(nil), s.stages...)
	prevTemplates := append([]funnel.ActivityTemplate(nil), s.templates...)
	prevOpps := append([]opportunity.Opportunity(nil), s.opportunities...)

	s.funnels = deleteByID(s.funnels, func(f funnel.Funnel) uuid.UUID { return f.ID }, id)

	keptStages := s.stages[:0]
	for _, st := range s.stages {
		if st.FunnelKey != target.Key {
			keptStages = append(keptStages, st)
		}
	}
	s.stages = keptStages

	keptTemplates := s.templates[:0]
	for _, t := range s.templates {
		if t.FunnelKey != target.Key {
			keptTemplates = append(keptTemplates, t)
		}
	}
	s.templates = keptTemplates

	keptOpps := s.opportunities[:0]
	for _, o := range s.opportunities {
		if o.FunnelKey != target.Key {
			keptOpps = append(keptOpps, o)
		}
	}
	s.opportunities = keptOpps

	patches := ordering.Compact(funnelItems(s.funnels), target.OrderIndex)
	applyFunnelPatches(s.funnels, patches)
	s.mu.Unlock()

	if err := s.persistFunnelPatches(ctx, patches); err != nil {
		// Compaction writes failed partway. Restore the pre-delete
		// snapshot; a later Refresh reconciles with storage.
		s.mu.Lock()
		s.funnels = prevFunnels
		s.stages = prevStages
		s.templates = prevTemplates
		s.opportunities = prevOpps
		s.mu.Unlock()
		return err
	}

	s.publish("crm.funnel.deleted", id)
	return nil
}

// MoveFunnel swaps the funnel with its neighbor. The swap is applied to
// the snapshot first; when either of the two backing writes fails the
// whole group is restored from its pre-move copy.
func (s *PipelineService) MoveFunnel(ctx context.Context, id uuid.UUID, dir ordering.Direction) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	snapshot := append([]funnel.Funnel(nil), s.funnels...)
	patches, ok := ordering.Move(funnelItems(s.funnels), id, dir)
	if !ok {
		s.mu.Unlock()
		return nil
	}
	applyFunnelPatches(s.funnels, patches[:])
	s.mu.Unlock()

	if err := s.persistFunnelPatches(ctx, patches[:]); err != nil {
		s.mu.Lock()
		s.funnels = snapshot
		s.mu.Unlock()
		return err
	}

	s.publish("crm.funnel.moved", id)
	return nil
}

func (s *PipelineService) AddStage(ctx context.Context, funnelKey, name string) (funnel.Stage, error) {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return funnel.Stage{}, err
	}

	s.mu.Lock()
	if !s.funnelExistsLocked(funnelKey) {
		s.mu.Unlock()
		return funnel.Stage{}, funnel.ErrFunnelNotFound
	}
	st := funnel.NewStage(funnelKey, name)
	st.OrderIndex = ordering.NextIndex(stageItems(s.stages, funnelKey))
	s.mu.Unlock()

	created, err := s.funnelRepo.CreateStage(ctx, st)
	if err != nil {
		return funnel.Stage{}, err
	}

	s.mu.Lock()
	s.stages = append(s.stages, created)
	s.mu.Unlock()

	s.publish("crm.stage.created", &created)
	return created, nil
}

func (s *PipelineService) UpdateStage(ctx context.Context, st funnel.Stage) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}
	if err := s.funnelRepo.UpdateStage(ctx, st); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.stages {
		if s.stages[i].ID == st.ID {
			s.stages[i] = st
			break
		}
	}
	s.mu.Unlock()

	s.publish("crm.stage.updated", &st)
	return nil
}

// DeleteStage removes the stage, compacts the funnel's remaining stage
// indices, and drops the activity templates scoped to the exact
// (funnelKey, stageKey) pair.
func (s *PipelineService) DeleteStage(ctx context.Context, id uuid.UUID) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	var target *funnel.Stage
	for i := range s.stages {
		if s.stages[i].ID == id {
			st := s.stages[i]
			target = &st
			break
		}
	}
	s.mu.Unlock()
	if target == nil {
		return funnel.ErrStageNotFound
	}

	if err := s.funnelRepo.DeleteStage(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	prevStages := append([]funnel.Stage(nil), s.stages...)
	prevTemplates := append([]funnel.ActivityTemplate(nil), s.templates...)

	s.stages = deleteByID(s.stages, func(st funnel.Stage) uuid.UUID { return st.ID }, id)

	keptTemplates := s.templates[:0]
	for _, t := range s.templates {
		if t.FunnelKey == target.FunnelKey && t.StageKey == target.Key {
			continue
		}
		keptTemplates = append(keptTemplates, t)
	}
	s.templates = keptTemplates

	patches := ordering.Compact(stageItems(s.stages, target.FunnelKey), target.OrderIndex)
	applyStagePatches(s.stages, patches)
	s.mu.Unlock()

	if err := s.persistStagePatches(ctx, patches); err != nil {
		s.mu.Lock()
		s.stages = prevStages
		s.templates = prevTemplates
		s.mu.Unlock()
		return err
	}

	s.publish("crm.stage.deleted", id)
	return nil
}

func (s *PipelineService) MoveStage(ctx context.Context, id uuid.UUID, dir ordering.Direction) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	var funnelKey string
	for _, st := range s.stages {
		if st.ID == id {
			funnelKey = st.FunnelKey
			break
		}
	}
	if funnelKey == "" {
		s.mu.Unlock()
		return funnel.ErrStageNotFound
	}

	snapshot := append([]funnel.Stage(nil), s.stages...)
	patches, ok := ordering.Move(stageItems(s.stages, funnelKey), id, dir)
	if !ok {
		s.mu.Unlock()
		return nil
	}
	applyStagePatches(s.stages, patches[:])
	s.mu.Unlock()

	if err := s.persistStagePatches(ctx, patches[:]); err != nil {
		s.mu.Lock()
		s.stages = snapshot
		s.mu.Unlock()
		return err
	}

	s.publish("crm.stage.moved", id)
	return nil
}

func (s *PipelineService) AddTemplate(ctx context.Context, funnelKey, stageKey, text string) (funnel.ActivityTemplate, error) {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return funnel.ActivityTemplate{}, err
	}

	s.mu.Lock()
	tpl := funnel.ActivityTemplate{
		ID:        uuid.New(),
		FunnelKey: funnelKey,
		StageKey:  stageKey,
		Text:      text,
	}
	tpl.OrderIndex = ordering.NextIndex(templateItems(s.templates, funnelKey, stageKey))
	s.mu.Unlock()

	created, err := s.funnelRepo.CreateTemplate(ctx, tpl)
	if err != nil {
		return funnel.ActivityTemplate{}, err
	}

	s.mu.Lock()
	s.templates = append(s.templates, created)
	s.mu.Unlock()

	s.publish("crm.template.created", &created)
	return created, nil
}

func (s *PipelineService) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	var target *funnel.ActivityTemplate
	for i := range s.templates {
		if s.templates[i].ID == id {
			t := s.templates[i]
			target = &t
			break
		}
	}
	s.mu.Unlock()
	if target == nil {
		return funnel.ErrTemplateNotFound
	}

	if err := s.funnelRepo.DeleteTemplate(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	prevTemplates := append([]funnel.ActivityTemplate(nil), s.templates...)
	s.templates = deleteByID(s.templates, func(t funnel.ActivityTemplate) uuid.UUID { return t.ID }, id)
	patches := ordering.Compact(templateItems(s.templates, target.FunnelKey, target.StageKey), target.OrderIndex)
	applyTemplatePatches(s.templates, patches)
	s.mu.Unlock()

	if err := s.persistTemplatePatches(ctx, patches); err != nil {
		s.mu.Lock()
		s.templates = prevTemplates
		s.mu.Unlock()
		return err
	}

	s.publish("crm.template.deleted", id)
	return nil
}

func (s *PipelineService) MoveTemplate(ctx context.Context, id uuid.UUID, dir ordering.Direction) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	var target *funnel.ActivityTemplate
	for i := range s.templates {
		if s.templates[i].ID == id {
			t := s.templates[i]
			target = &t
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return funnel.ErrTemplateNotFound
	}

	snapshot := append([]funnel.ActivityTemplate(nil), s.templates...)
	patches, ok := ordering.Move(templateItems(s.templates, target.FunnelKey, target.StageKey), id, dir)
	if !ok {
		s.mu.Unlock()
		return nil
	}
	applyTemplatePatches(s.templates, patches[:])
	s.mu.Unlock()

	if err := s.persistTemplatePatches(ctx, patches[:]); err != nil {
		s.mu.Lock()
		s.templates = snapshot
		s.mu.Unlock()
		return err
	}

	s.publish("crm.template.moved", id)
	return nil
}

func (s *PipelineService) funnelExistsLocked(key string) bool {
	for _, f := range s.funnels {
		if f.Key == key {
			return true
		}
	}
	return false
}

func funnelItems(funnels []funnel.Funnel) []ordering.Item {
	items := make([]ordering.Item, 0, len(funnels))
	for _, f := range funnels {
		items = append(items, ordering.Item{ID: f.ID, Index: f.OrderIndex})
	}
	return items
}

func stageItems(stages []funnel.Stage, funnelKey string) []ordering.Item {
	var items []ordering.Item
	for _, st := range stages {
		if st.FunnelKey == funnelKey {
			items = append(items, ordering.Item{ID: st.ID, Index: st.OrderIndex})
		}
	}
	return items
}

func templateItems(templates []funnel.ActivityTemplate, funnelKey, stageKey string) []ordering.Item {
	var items []ordering.Item
	for _, t := range templates {
		if t.FunnelKey == funnelKey && t.StageKey == stageKey {
			items = append(items, ordering.Item{ID: t.ID, Index: t.OrderIndex})
		}
	}
	return items
}

func applyFunnelPatches(funnels []funnel.Funnel, patches []ordering.Patch) {
	for _, p := range patches {
		for i := range funnels {
			if funnels[i].ID == p.ID {
				funnels[i].OrderIndex = p.Index
			}
		}
	}
}

func applyStagePatches(stages []funnel.Stage, patches []ordering.Patch) {
	for _, p := range patches {
		for i := range stages {
			if stages[i].ID == p.ID {
				stages[i].OrderIndex = p.Index
			}
		}
	}
}

func applyTemplatePatches(templates []funnel.ActivityTemplate, patches []ordering.Patch) {
	for _, p := range patches {
		for i := range templates {
			if templates[i].ID == p.ID {
				templates[i].OrderIndex = p.Index
			}
		}
	}
}

func (s *PipelineService) persistFunnelPatches(ctx context.Context, patches []ordering.Patch) error {
	for _, p := range patches {
		s.mu.Lock()
		var f funnel.Funnel
		for i := range s.funnels {
			if s.funnels[i].ID == p.ID {
				f = s.funnels[i]
				break
			}
		}
		s.mu.Unlock()
		if err := s.funnelRepo.Update(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (s *PipelineService) persistStagePatches(ctx context.Context, patches []ordering.Patch) error {
	for _, p := range patches {
		s.mu.Lock()
		var st funnel.Stage
		for i := range s.stages {
			if s.stages[i].ID == p.ID {
				st = s.stages[i]
				break
			}
		}
		s.mu.Unlock()
		if err := s.funnelRepo.UpdateStage(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (s *PipelineService) persistTemplatePatches(ctx context.Context, patches []ordering.Patch) error {
	for _, p := range patches {
		s.mu.Lock()
		var t funnel.ActivityTemplate
		for i := range s.templates {
			if s.templates[i].ID == p.ID {
				t = s.templates[i]
				break
			}
		}
		s.mu.Unlock()
		if err := s.funnelRepo.UpdateTemplate(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
