package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apolice/crm/modules/crm/infrastructure/persistence"
	"github.com/apolice/crm/pkg/composables"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Apply the CRM schema to the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := connectDB(ctx)
			if err != nil {
				return withCode(exitDB, err)
			}
			defer pool.Close()

			err = composables.InTx(composables.WithPool(ctx, pool), persistence.ApplySchema)
			if err != nil {
				return withCode(exitDBWrite, fmt.Errorf("apply schema: %w", err))
			}
			fmt.Println("schema applied")
			return nil
		},
	}
}
