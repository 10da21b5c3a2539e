package composables

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apolice/crm/pkg/constants"
	"github.com/apolice/crm/pkg/repo"
)

var (
	ErrNoTx   = errors.New("no transaction found in context")
	ErrNoPool = errors.New("no database pool found in context")
)

// WithPool stores the connection pool in the context. It is set once at
// startup (or per request by middleware) and read by everything below.
func WithPool(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, constants.PoolKey, pool)
}

func UsePool(ctx context.Context) (*pgxpool.Pool, error) {
	if pool, ok := ctx.Value(constants.PoolKey).(*pgxpool.Pool); ok {
		return pool, nil
	}
	return nil, ErrNoPool
}

func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, constants.TxKey, tx)
}

// UseTx returns the executor repositories should run queries on: the
// ambient transaction when one is open, otherwise the pool itself.
func UseTx(ctx context.Context) (repo.Tx, error) {
	if tx, ok := ctx.Value(constants.TxKey).(repo.Tx); ok {
		return tx, nil
	}
	return UsePool(ctx)
}

// BeginTx joins the ambient transaction if present, or opens a new one.
// Callers that open a transaction here own its commit/rollback.
func BeginTx(ctx context.Context) (pgx.Tx, error) {
	if tx, ok := ctx.Value(constants.TxKey).(pgx.Tx); ok {
		return tx, nil
	}
	pool, err := UsePool(ctx)
	if err != nil {
		return nil, err
	}
	return pool.Begin(ctx)
}

// InTx runs fn inside a transaction of its own, regardless of any
// ambient one, committing on success and rolling back on error.
func InTx(ctx context.Context, fn func(context.Context) error) error {
	pool, err := UsePool(ctx)
	if err != nil {
		return err
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(WithTx(ctx, tx)); err != nil {
		if rErr := tx.Rollback(ctx); rErr != nil {
			return errors.Join(err, rErr)
		}
		return err
	}
	return tx.Commit(ctx)
}
