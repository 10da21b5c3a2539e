package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/apolice/crm/modules/crm/domain/aggregates/renewal"
	"github.com/apolice/crm/pkg/composables"
)

const renewalColumns = `id, user_id, policy_id, client_id, due_date, status, notes, created_at`

type RenewalRepository struct{}

func NewRenewalRepository() *RenewalRepository {
	return &RenewalRepository{}
}

func (r *RenewalRepository) GetAll(ctx context.Context) ([]renewal.Renewal, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT `+renewalColumns+` FROM crm_renewals ORDER BY due_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []renewal.Renewal
	for rows.Next() {
		rn, err := scanRenewal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rn)
	}
	return out, rows.Err()
}

func (r *RenewalRepository) GetByID(ctx context.Context, id uuid.UUID) (renewal.Renewal, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return renewal.Renewal{}, err
	}
	row := tx.QueryRow(ctx, `SELECT `+renewalColumns+` FROM crm_renewals WHERE id = $1`, pgUUID(id))
	rn, err := scanRenewal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return renewal.Renewal{}, renewal.ErrNotFound
	}
	return rn, err
}

func (r *RenewalRepository) Create(ctx context.Context, rn renewal.Renewal) (renewal.Renewal, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return renewal.Renewal{}, err
	}
	if rn.ID == uuid.Nil {
		rn.ID = uuid.New()
	}

	err = tx.QueryRow(ctx, `
INSERT INTO crm_renewals (id, user_id, policy_id, client_id, due_date, status, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING created_at
`,
		pgUUID(rn.ID),
		pgUUID(rn.UserID),
		pgUUID(rn.PolicyID),
		pgUUID(rn.ClientID),
		rn.DueDate,
		string(rn.Status),
		rn.Notes,
	).Scan(&rn.CreatedAt)
	if err != nil {
		return renewal.Renewal{}, err
	}
	return rn, nil
}

func (r *RenewalRepository) Update(ctx context.Context, rn renewal.Renewal) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
UPDATE crm_renewals SET due_date = $2, status = $3, notes = $4
WHERE id = $1
`, pgUUID(rn.ID), rn.DueDate, string(rn.Status), rn.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return renewal.ErrNotFound
	}
	return nil
}

func (r *RenewalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM crm_renewals WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return renewal.ErrNotFound
	}
	return nil
}

func scanRenewal(row pgx.Row) (renewal.Renewal, error) {
	var (
		rn     renewal.Renewal
		status string
	)
	if err := row.Scan(
		&rn.ID,
		&rn.UserID,
		&rn.PolicyID,
		&rn.ClientID,
		&rn.DueDate,
		&status,
		&rn.Notes,
		&rn.CreatedAt,
	); err != nil {
		return renewal.Renewal{}, err
	}
	rn.Status = renewal.Status(status)
	return rn, nil
}
