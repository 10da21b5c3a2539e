package server

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/apolice/crm/pkg/application"
	"github.com/apolice/crm/pkg/configuration"
	"github.com/apolice/crm/pkg/middleware"
	"github.com/apolice/crm/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

// Default assembles the HTTP server with the standard middleware chain:
// request logging, pool and per-request transaction, and user resolution.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application

	app.RegisterMiddleware(
		middleware.RequestLogger(options.Logger),
		middleware.ProvidePool(options.Pool),
		middleware.WithTransaction(),
		middleware.ProvideUser(middleware.HeaderUserResolver()),
	)

	serverInstance := server.NewHTTPServer(
		app,
		http.NotFoundHandler(),
		methodNotAllowed(),
	)
	return serverInstance, nil
}

func methodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})
}
