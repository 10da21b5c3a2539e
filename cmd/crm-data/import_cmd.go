package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/apolice/crm/modules"
	"github.com/apolice/crm/modules/crm/importing"
	"github.com/apolice/crm/modules/crm/services"
	"github.com/apolice/crm/pkg/application"
	"github.com/apolice/crm/pkg/composables"
	"github.com/apolice/crm/pkg/configuration"
	"github.com/apolice/crm/pkg/eventbus"
)

type importOptions struct {
	userID uuid.UUID
	kind   string
	path   string
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import [clients|policies] <file>",
		Short: "Import clients or policies from a CSV or XLSX file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.kind = args[0]
			opts.path = args[1]
			return runImport(cmd, opts)
		},
	}

	var user string
	cmd.Flags().StringVar(&user, "user", "", "Owner UUID stamped on imported records (required)")
	_ = cmd.MarkFlagRequired("user")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(strings.TrimSpace(user))
		if err != nil {
			return withCode(exitUsage, fmt.Errorf("invalid --user: %w", err))
		}
		opts.userID = id
		return nil
	}

	return cmd
}

func runImport(cmd *cobra.Command, opts importOptions) error {
	data, err := os.ReadFile(opts.path)
	if err != nil {
		return withCode(exitUsage, err)
	}

	ctx := cmd.Context()
	pool, err := connectDB(ctx)
	if err != nil {
		return withCode(exitDB, err)
	}
	defer pool.Close()

	app := application.New(pool, eventbus.NewEventPublisher(configuration.Use().Logger()))
	if err := modules.Load(app); err != nil {
		return withCode(exitDB, err)
	}
	pipeline := app.Service(services.PipelineService{}).(*services.PipelineService)

	ctx = composables.WithPool(ctx, pool)
	ctx = composables.WithUser(ctx, composables.User{ID: opts.userID})
	if err := pipeline.Refresh(ctx); err != nil {
		return withCode(exitDB, err)
	}

	filename := filepath.Base(opts.path)
	maxRows := configuration.Use().Import.MaxRows
	var report importing.Report
	switch opts.kind {
	case "clients":
		report, err = pipeline.ImportClients(ctx, filename, data, maxRows)
	case "policies":
		report, err = pipeline.ImportPolicies(ctx, filename, data, maxRows)
	default:
		return withCode(exitUsage, fmt.Errorf("unknown import kind %q", opts.kind))
	}
	if err != nil {
		return withCode(exitDBWrite, err)
	}

	fmt.Printf("imported: %d\n", report.Success)
	for _, msg := range report.Errors {
		fmt.Fprintln(os.Stderr, msg)
	}
	return nil
}
