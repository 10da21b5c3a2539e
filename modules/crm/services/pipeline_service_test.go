package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/apolice/crm/modules/crm/domain/aggregates/client"
	"github.com/apolice/crm/modules/crm/domain/aggregates/opportunity"
	"github.com/apolice/crm/modules/crm/domain/aggregates/policy"
	"github.com/apolice/crm/modules/crm/domain/aggregates/renewal"
	"github.com/apolice/crm/modules/crm/domain/entities/funnel"
	"github.com/apolice/crm/modules/crm/domain/entities/task"
	"github.com/apolice/crm/pkg/composables"
)

type stubPublisher struct {
	events []interface{}
}

func (p *stubPublisher) Publish(args ...interface{}) {
	if len(args) > 0 {
		p.events = append(p.events, args[0])
	}
}
func (p *stubPublisher) Subscribe(handler interface{})   {}
func (p *stubPublisher) Unsubscribe(handler interface{}) {}
func (p *stubPublisher) Clear()                          {}
func (p *stubPublisher) SubscribersCount() int           { return 0 }

type mockClientRepo struct {
	createErr error
	deleteErr error
}

func (m *mockClientRepo) GetAll(ctx context.Context) ([]client.Client, error) { return nil, nil }
func (m *mockClientRepo) GetPaginated(ctx context.Context, params *client.FindParams) ([]client.Client, int64, error) {
	return nil, 0, nil
}
func (m *mockClientRepo) GetByID(ctx context.Context, id uuid.UUID) (client.Client, error) {
	return client.Client{}, client.ErrNotFound
}
func (m *mockClientRepo) Create(ctx context.Context, c client.Client) (client.Client, error) {
	if m.createErr != nil {
		return client.Client{}, m.createErr
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return c, nil
}
func (m *mockClientRepo) Update(ctx context.Context, c client.Client) error { return nil }
func (m *mockClientRepo) Delete(ctx context.Context, id uuid.UUID) error    { return m.deleteErr }

type mockPolicyRepo struct{}

func (m *mockPolicyRepo) GetAll(ctx context.Context) ([]policy.Policy, error) { return nil, nil }
func (m *mockPolicyRepo) GetByID(ctx context.Context, id uuid.UUID) (policy.Policy, error) {
	return policy.Policy{}, policy.ErrNotFound
}
func (m *mockPolicyRepo) GetByClientID(ctx context.Context, clientID uuid.UUID) ([]policy.Policy, error) {
	return nil, nil
}
func (m *mockPolicyRepo) Create(ctx context.Context, p policy.Policy) (policy.Policy, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return p, nil
}
func (m *mockPolicyRepo) Update(ctx context.Context, p policy.Policy) error { return nil }
func (m *mockPolicyRepo) Delete(ctx context.Context, id uuid.UUID) error    { return nil }

type mockRenewalRepo struct{}

func (m *mockRenewalRepo) GetAll(ctx context.Context) ([]renewal.Renewal, error) { return nil, nil }
func (m *mockRenewalRepo) GetByID(ctx context.Context, id uuid.UUID) (renewal.Renewal, error) {
	return renewal.Renewal{}, renewal.ErrNotFound
}
func (m *mockRenewalRepo) Create(ctx context.Context, r renewal.Renewal) (renewal.Renewal, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return r, nil
}
func (m *mockRenewalRepo) Update(ctx context.Context, r renewal.Renewal) error { return nil }
func (m *mockRenewalRepo) Delete(ctx context.Context, id uuid.UUID) error      { return nil }

type mockTaskRepo struct {
	updates int
}

func (m *mockTaskRepo) GetAll(ctx context.Context) ([]task.Task, error) { return nil, nil }
func (m *mockTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (task.Task, error) {
	return task.Task{}, task.ErrNotFound
}
func (m *mockTaskRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return t, nil
}
func (m *mockTaskRepo) Update(ctx context.Context, t task.Task) error {
	m.updates++
	return nil
}
func (m *mockTaskRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type mockOpportunityRepo struct {
	stageUpdates    int
	activityUpdates []opportunity.Activity
	updateStageErr  error
}

func (m *mockOpportunityRepo) GetAll(ctx context.Context) ([]opportunity.Opportunity, error) {
	return nil, nil
}
func (m *mockOpportunityRepo) GetByID(ctx context.Context, id uuid.UUID) (opportunity.Opportunity, error) {
	return opportunity.Opportunity{}, opportunity.ErrNotFound
}
func (m *mockOpportunityRepo) Create(ctx context.Context, o opportunity.Opportunity) (opportunity.Opportunity, error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return o, nil
}
func (m *mockOpportunityRepo) Update(ctx context.Context, o opportunity.Opportunity) error {
	return nil
}
func (m *mockOpportunityRepo) UpdateStage(ctx context.Context, id uuid.UUID, stage string) error {
	if m.updateStageErr != nil {
		return m.updateStageErr
	}
	m.stageUpdates++
	return nil
}
func (m *mockOpportunityRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (m *mockOpportunityRepo) CreateActivity(ctx context.Context, a opportunity.Activity) (opportunity.Activity, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return a, nil
}
func (m *mockOpportunityRepo) UpdateActivity(ctx context.Context, a opportunity.Activity) error {
	m.activityUpdates = append(m.activityUpdates, a)
	return nil
}
func (m *mockOpportunityRepo) DeleteActivity(ctx context.Context, id uuid.UUID) error { return nil }

// mockFunnelRepo counts writes and can be told to fail specific update
// calls, which is how the move-rollback path gets exercised.
type mockFunnelRepo struct {
	updates         int
	stageUpdates    int
	templateUpdates int
	failUpdateAt    int // fail the nth funnel update (1-based), 0 = never
	failStageAt     int
	failTemplateAt  int
	deleteErr       error
	deletedFunnels  []uuid.UUID
}

func (m *mockFunnelRepo) GetAll(ctx context.Context) ([]funnel.Funnel, error) { return nil, nil }
func (m *mockFunnelRepo) GetByID(ctx context.Context, id uuid.UUID) (funnel.Funnel, error) {
	return funnel.Funnel{}, funnel.ErrFunnelNotFound
}
func (m *mockFunnelRepo) Create(ctx context.Context, f funnel.Funnel) (funnel.Funnel, error) {
	return f, nil
}
func (m *mockFunnelRepo) Update(ctx context.Context, f funnel.Funnel) error {
	m.updates++
	if m.failUpdateAt > 0 && m.updates == m.failUpdateAt {
		return errAssert
	}
	return nil
}
func (m *mockFunnelRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedFunnels = append(m.deletedFunnels, id)
	return nil
}
func (m *mockFunnelRepo) GetAllStages(ctx context.Context) ([]funnel.Stage, error) { return nil, nil }
func (m *mockFunnelRepo) GetStageByID(ctx context.Context, id uuid.UUID) (funnel.Stage, error) {
	return funnel.Stage{}, funnel.ErrStageNotFound
}
func (m *mockFunnelRepo) CreateStage(ctx context.Context, s funnel.Stage) (funnel.Stage, error) {
	return s, nil
}
func (m *mockFunnelRepo) UpdateStage(ctx context.Context, s funnel.Stage) error {
	m.stageUpdates++
	if m.failStageAt > 0 && m.stageUpdates == m.failStageAt {
		return errAssert
	}
	return nil
}
func (m *mockFunnelRepo) DeleteStage(ctx context.Context, id uuid.UUID) error { return nil }
func (m *mockFunnelRepo) GetAllTemplates(ctx context.Context) ([]funnel.ActivityTemplate, error) {
	return nil, nil
}
func (m *mockFunnelRepo) CreateTemplate(ctx context.Context, t funnel.ActivityTemplate) (funnel.ActivityTemplate, error) {
	return t, nil
}
func (m *mockFunnelRepo) UpdateTemplate(ctx context.Context, t funnel.ActivityTemplate) error {
	m.templateUpdates++
	if m.failTemplateAt > 0 && m.templateUpdates == m.failTemplateAt {
		return errAssert
	}
	return nil
}
func (m *mockFunnelRepo) DeleteTemplate(ctx context.Context, id uuid.UUID) error { return nil }

var errAssert = assertError("simulated remote failure")

type assertError string

func (e assertError) Error() string { return string(e) }

type fixture struct {
	svc        *PipelineService
	clients    *mockClientRepo
	policies   *mockPolicyRepo
	renewals   *mockRenewalRepo
	tasks      *mockTaskRepo
	opps       *mockOpportunityRepo
	funnels    *mockFunnelRepo
	publisher  *stubPublisher
	userCtx    context.Context
	actingUser composables.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clients:   &mockClientRepo{},
		policies:  &mockPolicyRepo{},
		renewals:  &mockRenewalRepo{},
		tasks:     &mockTaskRepo{},
		opps:      &mockOpportunityRepo{},
		funnels:   &mockFunnelRepo{},
		publisher: &stubPublisher{},
	}
	f.svc = NewPipelineService(
		f.clients, f.policies, f.renewals, f.tasks, f.opps, f.funnels, f.publisher,
	)
	f.actingUser = composables.User{ID: uuid.New(), Email: "corretor@apolice.com"}
	f.userCtx = composables.WithUser(context.Background(), f.actingUser)
	return f
}

func TestPipeline_MutationsRequireUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddClient(ctx, &client.CreateDTO{Name: "n", Email: "a@b.c", Phone: "1", Address: "x"})
	require.ErrorIs(t, err, composables.ErrNoUser)

	_, err = f.svc.AddFunnel(ctx, "Vendas")
	require.ErrorIs(t, err, composables.ErrNoUser)

	err = f.svc.DeleteClient(ctx, uuid.New())
	require.ErrorIs(t, err, composables.ErrNoUser)
}

func TestPipeline_RefreshLoadsCollections(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Refresh(context.Background()))
	require.Empty(t, f.svc.Clients())
	require.Empty(t, f.svc.Funnels())
}
