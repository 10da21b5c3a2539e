package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/apolice/crm/modules/crm/domain/aggregates/opportunity"
	"github.com/apolice/crm/modules/crm/domain/entities/funnel"
	"github.com/apolice/crm/pkg/composables"
)

// AddOpportunity creates the opportunity on the first stage of its
// funnel and instantiates that stage's activity templates onto it.
func (s *PipelineService) AddOpportunity(ctx context.Context, o opportunity.Opportunity) (opportunity.Opportunity, error) {
	u, err := composables.MustUseUser(ctx)
	if err != nil {
		return opportunity.Opportunity{}, err
	}

	s.mu.Lock()
	stages := s.stagesOfLocked(o.FunnelKey)
	s.mu.Unlock()
	if len(stages) == 0 {
		return opportunity.Opportunity{}, funnel.ErrFunnelNotFound
	}

	release, ok := s.guard("opportunity:add:" + o.FunnelKey + ":" + o.Title)
	if !ok {
		return opportunity.Opportunity{}, ErrDuplicateSubmit
	}
	defer release()

	o.UserID = u.ID
	o.Stage = stages[0].Name

	created, err := s.oppRepo.Create(ctx, o)
	if err != nil {
		return opportunity.Opportunity{}, err
	}

	created.Activities, err = s.instantiateTemplates(ctx, created, stages[0])
	if err != nil {
		return opportunity.Opportunity{}, err
	}

	s.mu.Lock()
	s.opportunities = append(s.opportunities, created)
	s.mu.Unlock()

	s.publish("crm.opportunity.created", &created)
	return created, nil
}

func (s *PipelineService) UpdateOpportunity(ctx context.Context, o opportunity.Opportunity) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}
	if err := s.oppRepo.Update(ctx, o); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.opportunities {
		if s.opportunities[i].ID == o.ID {
			s.opportunities[i] = o
			break
		}
	}
	s.mu.Unlock()

	s.publish("crm.opportunity.updated", &o)
	return nil
}

func (s *PipelineService) DeleteOpportunity(ctx context.Context, id uuid.UUID) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}
	if err := s.oppRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.opportunities = deleteByID(s.opportunities, func(o opportunity.Opportunity) uuid.UUID { return o.ID }, id)
	s.mu.Unlock()

	s.publish("crm.opportunity.deleted", id)
	return nil
}

// MoveOpportunityStage is the kanban drag: it validates the target
// stage against the live stage table and enforces the checklist exit
// gate before anything is written. A same-stage request succeeds
// without touching storage. The gate lives here, in the mutator, so a
// direct API call cannot bypass what the board enforces.
func (s *PipelineService) MoveOpportunityStage(ctx context.Context, id uuid.UUID, newStage string) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	var target *opportunity.Opportunity
	for i := range s.opportunities {
		if s.opportunities[i].ID == id {
			o := s.opportunities[i]
			target = &o
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return opportunity.ErrNotFound
	}

	if newStage == target.Stage {
		s.mu.Unlock()
		return nil
	}

	stages := s.stagesOfLocked(target.FunnelKey)
	var destination *funnel.Stage
	for i := range stages {
		if stages[i].Name == newStage {
			destination = &stages[i]
			break
		}
	}
	s.mu.Unlock()

	if destination == nil {
		return opportunity.ErrUnknownStage
	}
	if !opportunity.CanLeaveStage(target.Activities, target.Stage) {
		return opportunity.GateBlocked(newStage)
	}

	if err := s.oppRepo.UpdateStage(ctx, id, newStage); err != nil {
		return err
	}

	updated := *target
	updated.Stage = newStage

	activities, err := s.instantiateTemplates(ctx, updated, *destination)
	if err != nil {
		return err
	}
	updated.Activities = activities

	s.mu.Lock()
	for i := range s.opportunities {
		if s.opportunities[i].ID == id {
			s.opportunities[i] = updated
			break
		}
	}
	s.mu.Unlock()

	s.publish("crm.opportunity.stage_changed", &updated)
	return nil
}

// instantiateTemplates creates activities from the templates scoped to
// the stage being entered, skipping texts the opportunity already has
// on that stage. It returns the full activity list.
func (s *PipelineService) instantiateTemplates(ctx context.Context, o opportunity.Opportunity, st funnel.Stage) ([]opportunity.Activity, error) {
	s.mu.Lock()
	var scoped []funnel.ActivityTemplate
	for _, t := range s.templates {
		if t.FunnelKey == st.FunnelKey && t.StageKey == st.Key {
			scoped = append(scoped, t)
		}
	}
	s.mu.Unlock()

	existing := map[string]bool{}
	for _, a := range o.Activities {
		if a.Stage == st.Name {
			existing[a.Text] = true
		}
	}

	activities := append([]opportunity.Activity(nil), o.Activities...)
	for _, tpl := range scoped {
		if existing[tpl.Text] {
			continue
		}
		created, err := s.oppRepo.CreateActivity(ctx, opportunity.Activity{
			ID:            uuid.New(),
			OpportunityID: o.ID,
			Text:          tpl.Text,
			Stage:         st.Name,
		})
		if err != nil {
			return nil, err
		}
		activities = append(activities, created)
	}
	return activities, nil
}

func (s *PipelineService) AddActivity(ctx context.Context, a opportunity.Activity) (opportunity.Activity, error) {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return opportunity.Activity{}, err
	}

	created, err := s.oppRepo.CreateActivity(ctx, a)
	if err != nil {
		return opportunity.Activity{}, err
	}

	s.mu.Lock()
	for i := range s.opportunities {
		if s.opportunities[i].ID == a.OpportunityID {
			s.opportunities[i].Activities = append(s.opportunities[i].Activities, created)
			break
		}
	}
	s.mu.Unlock()

	s.publish("crm.activity.created", &created)
	return created, nil
}

func (s *PipelineService) UpdateActivity(ctx context.Context, a opportunity.Activity) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}
	if err := s.oppRepo.UpdateActivity(ctx, a); err != nil {
		return err
	}

	s.mu.Lock()
	s.patchActivityLocked(a)
	s.mu.Unlock()

	s.publish("crm.activity.updated", &a)
	return nil
}

// ToggleActivity flips the completed flag of one activity.
func (s *PipelineService) ToggleActivity(ctx context.Context, activityID uuid.UUID) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	var found *opportunity.Activity
	for i := range s.opportunities {
		for j := range s.opportunities[i].Activities {
			if s.opportunities[i].Activities[j].ID == activityID {
				a := s.opportunities[i].Activities[j]
				found = &a
				break
			}
		}
	}
	s.mu.Unlock()
	if found == nil {
		return opportunity.ErrActivityNotFound
	}

	toggled := *found
	toggled.Completed = !toggled.Completed

	if err := s.oppRepo.UpdateActivity(ctx, toggled); err != nil {
		return err
	}

	s.mu.Lock()
	s.patchActivityLocked(toggled)
	s.mu.Unlock()

	s.publish("crm.activity.updated", &toggled)
	return nil
}

func (s *PipelineService) DeleteActivity(ctx context.Context, activityID uuid.UUID) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}
	if err := s.oppRepo.DeleteActivity(ctx, activityID); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.opportunities {
		acts := s.opportunities[i].Activities
		kept := acts[:0]
		for _, a := range acts {
			if a.ID != activityID {
				kept = append(kept, a)
			}
		}
		s.opportunities[i].Activities = kept
	}
	s.mu.Unlock()

	s.publish("crm.activity.deleted", activityID)
	return nil
}

func (s *PipelineService) patchActivityLocked(a opportunity.Activity) {
	for i := range s.opportunities {
		for j := range s.opportunities[i].Activities {
			if s.opportunities[i].Activities[j].ID == a.ID {
				s.opportunities[i].Activities[j] = a
				return
			}
		}
	}
}
