package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apolice/crm/internal/server"
	"github.com/apolice/crm/modules"
	"github.com/apolice/crm/modules/crm/services"
	"github.com/apolice/crm/pkg/application"
	"github.com/apolice/crm/pkg/composables"
	"github.com/apolice/crm/pkg/configuration"
	"github.com/apolice/crm/pkg/eventbus"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}

	app := application.New(pool, eventbus.NewEventPublisher(logger))
	if err := modules.Load(app); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	// Warm the pipeline snapshot before accepting traffic.
	pipeline := app.Service(services.PipelineService{}).(*services.PipelineService)
	if err := pipeline.Refresh(composables.WithPool(ctx, pool)); err != nil {
		log.Fatalf("failed to load pipeline state: %v", err)
	}

	options := &server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	}
	serverInstance, err := server.Default(options)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	log.Printf("Listening on: %s\n", conf.SocketAddress)
	if err := serverInstance.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
