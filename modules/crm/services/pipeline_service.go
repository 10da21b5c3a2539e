package services

import (
	"context"
	"sync"

	"github.com/apolice/crm/modules/crm/domain/aggregates/client"
	"github.com/apolice/crm/modules/crm/domain/aggregates/opportunity"
	"github.com/apolice/crm/modules/crm/domain/aggregates/policy"
	"github.com/apolice/crm/modules/crm/domain/aggregates/renewal"
	"github.com/apolice/crm/modules/crm/domain/entities/funnel"
	"github.com/apolice/crm/modules/crm/domain/entities/task"
	"github.com/apolice/crm/pkg/eventbus"
	"github.com/apolice/crm/pkg/serrors"
)

// ErrDuplicateSubmit rejects a second identical mutation while the
// first one is still in flight (double-click protection).
var ErrDuplicateSubmit = serrors.NewError(
	"CRM_DUPLICATE_SUBMIT",
	"an identical operation is already in progress",
	"",
)

// PipelineService is the single owner of the in-memory CRM state: one
// collection per entity plus the mutators that keep the collections
// consistent with the repositories. Every mutator persists first and
// patches the snapshot only after the repository call succeeded; the
// adjacent-swap moves are the one exception, applied optimistically and
// rolled back when their paired writes fail.
type PipelineService struct {
	mu sync.Mutex

	clients       []client.Client
	policies      []policy.Policy
	renewals      []renewal.Renewal
	tasks         []task.Task
	opportunities []opportunity.Opportunity
	funnels       []funnel.Funnel
	stages        []funnel.Stage
	templates     []funnel.ActivityTemplate

	clientRepo  client.Repository
	policyRepo  policy.Repository
	renewalRepo renewal.Repository
	taskRepo    task.Repository
	oppRepo     opportunity.Repository
	funnelRepo  funnel.Repository

	publisher eventbus.EventBus

	inflight map[string]struct{}
}

func NewPipelineService(
	clientRepo client.Repository,
	policyRepo policy.Repository,
	renewalRepo renewal.Repository,
	taskRepo task.Repository,
	oppRepo opportunity.Repository,
	funnelRepo funnel.Repository,
	publisher eventbus.EventBus,
) *PipelineService {
	return &PipelineService{
		clientRepo:  clientRepo,
		policyRepo:  policyRepo,
		renewalRepo: renewalRepo,
		taskRepo:    taskRepo,
		oppRepo:     oppRepo,
		funnelRepo:  funnelRepo,
		publisher:   publisher,
		inflight:    map[string]struct{}{},
	}
}

// Refresh reloads every collection from the repositories, replacing the
// snapshot wholesale.
func (s *PipelineService) Refresh(ctx context.Context) error {
	clients, err := s.clientRepo.GetAll(ctx)
	if err != nil {
		return err
	}
	policies, err := s.policyRepo.GetAll(ctx)
	if err != nil {
		return err
	}
	renewals, err := s.renewalRepo.GetAll(ctx)
	if err != nil {
		return err
	}
	tasks, err := s.taskRepo.GetAll(ctx)
	if err != nil {
		return err
	}
	opportunities, err := s.oppRepo.GetAll(ctx)
	if err != nil {
		return err
	}
	funnels, err := s.funnelRepo.GetAll(ctx)
	if err != nil {
		return err
	}
	stages, err := s.funnelRepo.GetAllStages(ctx)
	if err != nil {
		return err
	}
	templates, err := s.funnelRepo.GetAllTemplates(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = clients
	s.policies = policies
	s.renewals = renewals
	s.tasks = tasks
	s.opportunities = opportunities
	s.funnels = funnels
	s.stages = stages
	s.templates = templates
	return nil
}

// guard registers an in-flight mutation key. The returned release must
// be called once the mutation finished; ok==false means an identical
// mutation is still running.
func (s *PipelineService) guard(key string) (release func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return nil, false
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.inflight, key)
	}, true
}

func (s *PipelineService) publish(args ...interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(args...)
	}
}

// Snapshot accessors. Slices are copied so readers can treat them as
// immutable between renders.

func (s *PipelineService) Clients() []client.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]client.Client(nil), s.clients...)
}

func (s *PipelineService) Policies() []policy.Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]policy.Policy(nil), s.policies...)
}

func (s *PipelineService) Renewals() []renewal.Renewal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]renewal.Renewal(nil), s.renewals...)
}

func (s *PipelineService) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]task.Task(nil), s.tasks...)
}

func (s *PipelineService) Opportunities() []opportunity.Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]opportunity.Opportunity(nil), s.opportunities...)
}

func (s *PipelineService) Funnels() []funnel.Funnel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]funnel.Funnel(nil), s.funnels...)
}

func (s *PipelineService) Stages() []funnel.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]funnel.Stage(nil), s.stages...)
}

func (s *PipelineService) Templates() []funnel.ActivityTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]funnel.ActivityTemplate(nil), s.templates...)
}

// StagesOf returns the stages of one funnel ordered by index.
func (s *PipelineService) StagesOf(funnelKey string) []funnel.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stagesOfLocked(funnelKey)
}

func (s *PipelineService) stagesOfLocked(funnelKey string) []funnel.Stage {
	var out []funnel.Stage
	for _, st := range s.stages {
		if st.FunnelKey == funnelKey {
			out = append(out, st)
		}
	}
	sortStages(out)
	return out
}
