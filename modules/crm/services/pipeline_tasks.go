package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/apolice/crm/modules/crm/domain/entities/task"
	"github.com/apolice/crm/pkg/composables"
)

func (s *PipelineService) AddTask(ctx context.Context, t task.Task) (task.Task, error) {
	u, err := composables.MustUseUser(ctx)
	if err != nil {
		return task.Task{}, err
	}

	if t.UserID == nil {
		id := u.ID
		t.UserID = &id
	}
	if t.Status == "" {
		t.Status = task.StatusToDo
	}
	if t.Recurrence == "" {
		t.Recurrence = task.RecurrenceNone
	}

	created, err := s.taskRepo.Create(ctx, t)
	if err != nil {
		return task.Task{}, err
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, created)
	s.mu.Unlock()

	s.publish("crm.task.created", &created)
	return created, nil
}

func (s *PipelineService) UpdateTask(ctx context.Context, t task.Task) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}
	if err := s.taskRepo.Update(ctx, t); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks[i] = t
			break
		}
	}
	s.mu.Unlock()

	s.publish("crm.task.updated", &t)
	return nil
}

func (s *PipelineService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.tasks = deleteByID(s.tasks, func(t task.Task) uuid.UUID { return t.ID }, id)
	s.mu.Unlock()

	s.publish("crm.task.deleted", id)
	return nil
}

// Board assembles the unified kanban for one user: stored tasks plus a
// read-only projection of the funnel activities assigned to that user.
// Projected cards are never persisted as tasks, which keeps the board
// free of dual-write drift between the projection and its source.
func (s *PipelineService) Board(userName string, userID uuid.UUID) []task.BoardCard {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cards []task.BoardCard
	for _, t := range s.tasks {
		if t.UserID != nil && *t.UserID != userID {
			continue
		}
		cards = append(cards, task.BoardCard{
			ID:            t.ID,
			Title:         t.Title,
			Description:   t.Description,
			Status:        t.Status,
			DueDate:       t.DueDate,
			OpportunityID: t.OpportunityID,
		})
	}

	for _, o := range s.opportunities {
		for _, a := range o.Activities {
			if a.AssignedTo != userName {
				continue
			}
			// Only the current stage's checklist shows up on the board.
			if a.Stage != o.Stage {
				continue
			}
			status := task.StatusToDo
			if a.Completed {
				status = task.StatusDone
			}
			oppID := o.ID
			actID := a.ID
			cards = append(cards, task.BoardCard{
				ID:               a.ID,
				Title:            a.Text,
				Description:      o.Title,
				Status:           status,
				DueDate:          a.DueDate,
				IsFunnelActivity: true,
				OpportunityID:    &oppID,
				ActivityID:       &actID,
			})
		}
	}
	return cards
}

// ToggleBoardCard flips a card's done state. For projected funnel
// activities the write goes to the underlying activity's completed
// flag, never to a task row.
func (s *PipelineService) ToggleBoardCard(ctx context.Context, card task.BoardCard) error {
	if card.IsFunnelActivity {
		if card.ActivityID == nil {
			return task.ErrNotFound
		}
		return s.ToggleActivity(ctx, *card.ActivityID)
	}

	s.mu.Lock()
	var target *task.Task
	for i := range s.tasks {
		if s.tasks[i].ID == card.ID {
			t := s.tasks[i]
			target = &t
			break
		}
	}
	s.mu.Unlock()
	if target == nil {
		return task.ErrNotFound
	}

	updated := *target
	if updated.Status == task.StatusDone {
		updated.Status = task.StatusToDo
	} else {
		updated.Status = task.StatusDone
	}
	return s.UpdateTask(ctx, updated)
}
