package persistence

import (
	"context"
	_ "embed"

	"github.com/apolice/crm/pkg/composables"
)

//go:embed schema/crm-schema.sql
var schemaSQL string

// ApplySchema creates the CRM tables when they do not exist yet. The
// statements are idempotent.
func ApplySchema(ctx context.Context) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, schemaSQL)
	return err
}
