package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/apolice/crm/modules/crm/domain/aggregates/policy"
	"github.com/apolice/crm/pkg/composables"
)

const policyColumns = `id, user_id, client_id, policy_number, insurance_type,
insurance_company, start_date, end_date, premium::text, commission::text, status, created_at`

type PolicyRepository struct{}

func NewPolicyRepository() *PolicyRepository {
	return &PolicyRepository{}
}

func (r *PolicyRepository) GetAll(ctx context.Context) ([]policy.Policy, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT `+policyColumns+` FROM crm_policies ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPolicies(rows)
}

func (r *PolicyRepository) GetByID(ctx context.Context, id uuid.UUID) (policy.Policy, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return policy.Policy{}, err
	}
	row := tx.QueryRow(ctx, `SELECT `+policyColumns+` FROM crm_policies WHERE id = $1`, pgUUID(id))
	p, err := scanPolicy(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return policy.Policy{}, policy.ErrNotFound
	}
	return p, err
}

func (r *PolicyRepository) GetByClientID(ctx context.Context, clientID uuid.UUID) ([]policy.Policy, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx,
		`SELECT `+policyColumns+` FROM crm_policies WHERE client_id = $1 ORDER BY end_date, id`,
		pgUUID(clientID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPolicies(rows)
}

func (r *PolicyRepository) Create(ctx context.Context, p policy.Policy) (policy.Policy, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return policy.Policy{}, err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err = tx.QueryRow(ctx, `
INSERT INTO crm_policies (
	id, user_id, client_id, policy_number, insurance_type, insurance_company,
	start_date, end_date, premium, commission, status
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::numeric,$10::numeric,$11)
RETURNING created_at
`,
		pgUUID(p.ID),
		pgUUID(p.UserID),
		pgUUID(p.ClientID),
		p.PolicyNumber,
		p.InsuranceType,
		p.InsuranceCompany,
		p.StartDate,
		p.EndDate,
		pgDecimal(p.Premium),
		pgNullableDecimal(p.Commission),
		string(p.Status),
	).Scan(&p.CreatedAt)
	if isUniqueViolation(err) {
		return policy.Policy{}, policy.ErrDuplicate
	}
	if err != nil {
		return policy.Policy{}, err
	}
	return p, nil
}

func (r *PolicyRepository) Update(ctx context.Context, p policy.Policy) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
UPDATE crm_policies SET
	client_id = $2, policy_number = $3, insurance_type = $4,
	insurance_company = $5, start_date = $6, end_date = $7,
	premium = $8::numeric, commission = $9::numeric, status = $10
WHERE id = $1
`,
		pgUUID(p.ID),
		pgUUID(p.ClientID),
		p.PolicyNumber,
		p.InsuranceType,
		p.InsuranceCompany,
		p.StartDate,
		p.EndDate,
		pgDecimal(p.Premium),
		pgNullableDecimal(p.Commission),
		string(p.Status),
	)
	if isUniqueViolation(err) {
		return policy.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return policy.ErrNotFound
	}
	return nil
}

func (r *PolicyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM crm_policies WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return policy.ErrNotFound
	}
	return nil
}

func scanPolicies(rows pgx.Rows) ([]policy.Policy, error) {
	var out []policy.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPolicy(row pgx.Row) (policy.Policy, error) {
	var (
		p          policy.Policy
		premium    string
		commission pgtype.Text
		status     string
	)
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ClientID,
		&p.PolicyNumber,
		&p.InsuranceType,
		&p.InsuranceCompany,
		&p.StartDate,
		&p.EndDate,
		&premium,
		&commission,
		&status,
		&p.CreatedAt,
	); err != nil {
		return policy.Policy{}, err
	}

	p.Status = policy.Status(status)

	var err error
	if p.Premium, err = decimalFromText(premium); err != nil {
		return policy.Policy{}, err
	}
	if p.Commission, err = nullableDecimalFromText(commission); err != nil {
		return policy.Policy{}, err
	}
	return p, nil
}
