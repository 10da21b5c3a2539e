package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/apolice/crm/modules/crm/domain/aggregates/policy"
	"github.com/apolice/crm/modules/crm/domain/aggregates/renewal"
	"github.com/apolice/crm/pkg/composables"
)

func (s *PipelineService) AddPolicy(ctx context.Context, p policy.Policy) (policy.Policy, error) {
	u, err := composables.MustUseUser(ctx)
	if err != nil {
		return policy.Policy{}, err
	}

	release, ok := s.guard("policy:add:" + p.PolicyNumber)
	if !ok {
		return policy.Policy{}, ErrDuplicateSubmit
	}
	defer release()

	p.UserID = u.ID
	if p.Status == "" {
		p.Status = policy.StatusActive
	}

	created, err := s.policyRepo.Create(ctx, p)
	if err != nil {
		return policy.Policy{}, err
	}

	s.mu.Lock()
	s.policies = append(s.policies, created)
	s.mu.Unlock()

	s.publish("crm.policy.created", &created)
	return created, nil
}

func (s *PipelineService) UpdatePolicy(ctx context.Context, p policy.Policy) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}
	if err := s.policyRepo.Update(ctx, p); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.policies {
		if s.policies[i].ID == p.ID {
			s.policies[i] = p
			break
		}
	}
	s.mu.Unlock()

	s.publish("crm.policy.updated", &p)
	return nil
}

// DeletePolicy removes the policy and its renewal shadow, if any.
func (s *PipelineService) DeletePolicy(ctx context.Context, id uuid.UUID) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}
	if err := s.policyRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.policies = deleteByID(s.policies, func(p policy.Policy) uuid.UUID { return p.ID }, id)
	kept := s.renewals[:0]
	for _, r := range s.renewals {
		if r.PolicyID != id {
			kept = append(kept, r)
		}
	}
	s.renewals = kept
	s.mu.Unlock()

	s.publish("crm.policy.deleted", id)
	return nil
}

func (s *PipelineService) AddRenewal(ctx context.Context, r renewal.Renewal) (renewal.Renewal, error) {
	u, err := composables.MustUseUser(ctx)
	if err != nil {
		return renewal.Renewal{}, err
	}

	r.UserID = u.ID
	if r.Status == "" {
		r.Status = renewal.StatusPending
	}

	created, err := s.renewalRepo.Create(ctx, r)
	if err != nil {
		return renewal.Renewal{}, err
	}

	s.mu.Lock()
	s.renewals = append(s.renewals, created)
	s.mu.Unlock()

	s.publish("crm.renewal.created", &created)
	return created, nil
}

func (s *PipelineService) UpdateRenewal(ctx context.Context, r renewal.Renewal) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}
	if err := s.renewalRepo.Update(ctx, r); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.renewals {
		if s.renewals[i].ID == r.ID {
			s.renewals[i] = r
			break
		}
	}
	s.mu.Unlock()

	s.publish("crm.renewal.updated", &r)
	return nil
}

func (s *PipelineService) DeleteRenewal(ctx context.Context, id uuid.UUID) error {
	if _, err := composables.MustUseUser(ctx); err != nil {
		return err
	}
	if err := s.renewalRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.renewals = deleteByID(s.renewals, func(r renewal.Renewal) uuid.UUID { return r.ID }, id)
	s.mu.Unlock()

	s.publish("crm.renewal.deleted", id)
	return nil
}
