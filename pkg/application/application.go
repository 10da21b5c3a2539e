package application

import (
	"fmt"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apolice/crm/pkg/eventbus"
)

// Controller is a routable unit registered by a module.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

// Module wires services and controllers into the application.
type Module interface {
	Name() string
	Register(app Application) error
}

type Application interface {
	RegisterServices(services ...interface{})
	// Service returns the registered service matching the type of v.
	// It panics when the service was never registered.
	Service(v interface{}) interface{}
	RegisterControllers(controllers ...Controller)
	Controllers() []Controller
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	Middleware() []mux.MiddlewareFunc
	EventPublisher() eventbus.EventBus
	Pool() *pgxpool.Pool
}

func New(pool *pgxpool.Pool, bus eventbus.EventBus) Application {
	return &application{
		pool:     pool,
		bus:      bus,
		services: map[reflect.Type]interface{}{},
	}
}

type application struct {
	pool        *pgxpool.Pool
	bus         eventbus.EventBus
	services    map[reflect.Type]interface{}
	controllers []Controller
	middleware  []mux.MiddlewareFunc
}

func (a *application) RegisterServices(services ...interface{}) {
	for _, service := range services {
		t := reflect.TypeOf(service)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		a.services[t] = service
	}
}

func (a *application) Service(v interface{}) interface{} {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	service, ok := a.services[t]
	if !ok {
		panic(fmt.Sprintf("service %s not registered", t.Name()))
	}
	return service
}

func (a *application) RegisterControllers(controllers ...Controller) {
	a.controllers = append(a.controllers, controllers...)
}

func (a *application) Controllers() []Controller {
	return a.controllers
}

func (a *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	a.middleware = append(a.middleware, middleware...)
}

func (a *application) Middleware() []mux.MiddlewareFunc {
	return a.middleware
}

func (a *application) EventPublisher() eventbus.EventBus {
	return a.bus
}

func (a *application) Pool() *pgxpool.Pool {
	return a.pool
}

// RegisterModules registers each module in order, failing on the first
// module that cannot be wired.
func RegisterModules(app Application, modules ...Module) error {
	for _, m := range modules {
		if err := m.Register(app); err != nil {
			return fmt.Errorf("register module %s: %w", m.Name(), err)
		}
	}
	return nil
}
