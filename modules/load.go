package modules

import (
	"github.com/apolice/crm/modules/crm"
	"github.com/apolice/crm/pkg/application"
)

var BuiltInModules = []application.Module{
	crm.NewModule(),
}

// Load registers the built-in modules followed by any external ones.
func Load(app application.Application, externalModules ...application.Module) error {
	if err := application.RegisterModules(app, BuiltInModules...); err != nil {
		return err
	}
	return application.RegisterModules(app, externalModules...)
}
