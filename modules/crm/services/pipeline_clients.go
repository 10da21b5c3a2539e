package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/apolice/crm/modules/crm/domain/aggregates/client"
	"github.com/apolice/crm/pkg/composables"
	"github.com/apolice/crm/pkg/serrors"
)

// ErrValidation wraps DTO validation failures surfaced to the caller.
var ErrValidation = serrors.NewError("CRM_VALIDATION_FAILED", "validation failed", "")

func (s *PipelineService) AddClient(ctx context.Context, dto *client.CreateDTO) (client.Client, error) {
	u, err := composables.MustUseUser(ctx)
	if err != nil {
		return client.Client{}, err
	}
	if fields, ok := dto.Ok(); !ok {
		return client.Client{}, ErrValidation.WithTemplateData(fields)
	}

	release, ok := s.guard("client:add:" + dto.Email)
	if !ok {
		return client.Client{}, ErrDuplicateSubmit
	}
	defer release()

	entity := dto.ToEntity()
	entity.UserID = u.ID

	created, err := s.clientRepo.Create(ctx, entity)
	if err != nil {
		return client.Client{}, err
	}

	s.mu.Lock()
	s.clients = append(s.clients, created)
	s.mu.Unlock()

	s.publish("crm.client.created", &created)
	return created, nil
}

func (s *PipelineService) UpdateClient(ctx context.Context, c client.Client) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}
	if err := s.clientRepo.Update(ctx, c); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.clients {
		if s.clients[i].ID == c.ID {
			s.clients[i] = c
			break
		}
	}
	s.mu.Unlock()

	s.publish("crm.client.updated", &c)
	return nil
}

// DeleteClient removes the client and drops its dependent policies and
// renewals from the snapshot in the same pass. The schema cascades the
// same way on the storage side.
func (s *PipelineService) DeleteClient(ctx context.Context, id uuid.UUID) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}
	if err := s.clientRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.clients = deleteByID(s.clients, func(c client.Client) uuid.UUID { return c.ID }, id)

	removedPolicies := map[uuid.UUID]bool{}
	kept := s.policies[:0]
	for _, p := range s.policies {
		if p.ClientID == id {
			removedPolicies[p.ID] = true
			continue
		}
		kept = append(kept, p)
	}
	s.policies = kept

	keptRenewals := s.renewals[:0]
	for _, r := range s.renewals {
		if r.ClientID == id || removedPolicies[r.PolicyID] {
			continue
		}
		keptRenewals = append(keptRenewals, r)
	}
	s.renewals = keptRenewals
	s.mu.Unlock()

	s.publish("crm.client.deleted", id)
	return nil
}

func deleteByID[T any](items []T, idOf func(T) uuid.UUID, id uuid.UUID) []T {
	kept := items[:0]
	for _, it := range items {
		if idOf(it) != id {
			kept = append(kept, it)
		}
	}
	return kept
}
