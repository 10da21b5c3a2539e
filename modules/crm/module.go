package crm

import (
	"github.com/apolice/crm/modules/crm/infrastructure/persistence"
	"github.com/apolice/crm/modules/crm/presentation/controllers"
	"github.com/apolice/crm/modules/crm/services"
	"github.com/apolice/crm/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.RegisterServices(
		services.NewPipelineService(
			persistence.NewClientRepository(),
			persistence.NewPolicyRepository(),
			persistence.NewRenewalRepository(),
			persistence.NewTaskRepository(),
			persistence.NewOpportunityRepository(),
			persistence.NewFunnelRepository(),
			app.EventPublisher(),
		),
	)

	app.RegisterControllers(
		controllers.NewCRMAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "crm"
}
