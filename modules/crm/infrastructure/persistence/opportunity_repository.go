package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/apolice/crm/modules/crm/domain/aggregates/opportunity"
	"github.com/apolice/crm/pkg/composables"
)

const opportunityColumns = `id, user_id, funnel_key, stage, title, client_id,
value::text, commission::text, expected_close_date, deal_type, salesperson, origin,
technical_responsible, renewal_responsible, insurance_type, insurance_company,
notes, created_at`

type OpportunityRepository struct{}

func NewOpportunityRepository() *OpportunityRepository {
	return &OpportunityRepository{}
}

// GetAll loads every opportunity with its checklist attached.
func (r *OpportunityRepository) GetAll(ctx context.Context) ([]opportunity.Opportunity, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT `+opportunityColumns+` FROM crm_opportunities ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	opportunities, err := scanOpportunities(rows)
	if err != nil {
		return nil, err
	}

	actRows, err := tx.Query(ctx, `
SELECT id, opportunity_id, text, stage, completed, assigned_to, due_date, due_time
FROM crm_funnel_activities
ORDER BY opportunity_id, id`)
	if err != nil {
		return nil, err
	}
	defer actRows.Close()

	byOpp := map[uuid.UUID][]opportunity.Activity{}
	for actRows.Next() {
		a, err := scanActivity(actRows)
		if err != nil {
			return nil, err
		}
		byOpp[a.OpportunityID] = append(byOpp[a.OpportunityID], a)
	}
	if err := actRows.Err(); err != nil {
		return nil, err
	}

	for i := range opportunities {
		opportunities[i].Activities = byOpp[opportunities[i].ID]
	}
	return opportunities, nil
}

func (r *OpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (opportunity.Opportunity, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return opportunity.Opportunity{}, err
	}
	row := tx.QueryRow(ctx, `SELECT `+opportunityColumns+` FROM crm_opportunities WHERE id = $1`, pgUUID(id))
	o, err := scanOpportunity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return opportunity.Opportunity{}, opportunity.ErrNotFound
	}
	if err != nil {
		return opportunity.Opportunity{}, err
	}

	actRows, err := tx.Query(ctx, `
SELECT id, opportunity_id, text, stage, completed, assigned_to, due_date, due_time
FROM crm_funnel_activities
WHERE opportunity_id = $1
ORDER BY id`, pgUUID(id))
	if err != nil {
		return opportunity.Opportunity{}, err
	}
	defer actRows.Close()

	for actRows.Next() {
		a, err := scanActivity(actRows)
		if err != nil {
			return opportunity.Opportunity{}, err
		}
		o.Activities = append(o.Activities, a)
	}
	return o, actRows.Err()
}

func (r *OpportunityRepository) Create(ctx context.Context, o opportunity.Opportunity) (opportunity.Opportunity, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return opportunity.Opportunity{}, err
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}

	err = tx.QueryRow(ctx, `
INSERT INTO crm_opportunities (
	id, user_id, funnel_key, stage, title, client_id, value, commission,
	expected_close_date, deal_type, salesperson, origin, technical_responsible,
	renewal_responsible, insurance_type, insurance_company, notes
)
VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8::numeric,$9,$10,$11,$12,$13,$14,$15,$16,$17)
RETURNING created_at
`,
		pgUUID(o.ID),
		pgUUID(o.UserID),
		o.FunnelKey,
		o.Stage,
		o.Title,
		pgUUID(o.ClientID),
		pgDecimal(o.Value),
		pgDecimal(o.Commission),
		o.ExpectedCloseDate,
		o.DealType,
		o.Salesperson,
		o.Origin,
		o.TechnicalResponsible,
		o.RenewalResponsible,
		o.InsuranceType,
		o.InsuranceCompany,
		o.Notes,
	).Scan(&o.CreatedAt)
	if err != nil {
		return opportunity.Opportunity{}, err
	}
	return o, nil
}

func (r *OpportunityRepository) Update(ctx context.Context, o opportunity.Opportunity) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
UPDATE crm_opportunities SET
	stage = $2, title = $3, client_id = $4, value = $5::numeric,
	commission = $6::numeric, expected_close_date = $7, deal_type = $8,
	salesperson = $9, origin = $10, technical_responsible = $11,
	renewal_responsible = $12, insurance_type = $13, insurance_company = $14,
	notes = $15
WHERE id = $1
`,
		pgUUID(o.ID),
		o.Stage,
		o.Title,
		pgUUID(o.ClientID),
		pgDecimal(o.Value),
		pgDecimal(o.Commission),
		o.ExpectedCloseDate,
		o.DealType,
		o.Salesperson,
		o.Origin,
		o.TechnicalResponsible,
		o.RenewalResponsible,
		o.InsuranceType,
		o.InsuranceCompany,
		o.Notes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return opportunity.ErrNotFound
	}
	return nil
}

// UpdateStage writes only the stage column, which is all a kanban drag
// changes.
func (r *OpportunityRepository) UpdateStage(ctx context.Context, id uuid.UUID, stage string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `UPDATE crm_opportunities SET stage = $2 WHERE id = $1`, pgUUID(id), stage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return opportunity.ErrNotFound
	}
	return nil
}

func (r *OpportunityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM crm_opportunities WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return opportunity.ErrNotFound
	}
	return nil
}

func (r *OpportunityRepository) CreateActivity(ctx context.Context, a opportunity.Activity) (opportunity.Activity, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return opportunity.Activity{}, err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	_, err = tx.Exec(ctx, `
INSERT INTO crm_funnel_activities (id, opportunity_id, text, stage, completed, assigned_to, due_date, due_time)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		pgUUID(a.ID),
		pgUUID(a.OpportunityID),
		a.Text,
		a.Stage,
		a.Completed,
		a.AssignedTo,
		a.DueDate,
		a.DueTime,
	)
	if err != nil {
		return opportunity.Activity{}, err
	}
	return a, nil
}

func (r *OpportunityRepository) UpdateActivity(ctx context.Context, a opportunity.Activity) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
UPDATE crm_funnel_activities SET
	text = $2, completed = $3, assigned_to = $4, due_date = $5, due_time = $6
WHERE id = $1
`, pgUUID(a.ID), a.Text, a.Completed, a.AssignedTo, a.DueDate, a.DueTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return opportunity.ErrActivityNotFound
	}
	return nil
}

func (r *OpportunityRepository) DeleteActivity(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM crm_funnel_activities WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return opportunity.ErrActivityNotFound
	}
	return nil
}

func scanOpportunities(rows pgx.Rows) ([]opportunity.Opportunity, error) {
	defer rows.Close()
	var out []opportunity.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOpportunity(row pgx.Row) (opportunity.Opportunity, error) {
	var (
		o          opportunity.Opportunity
		value      string
		commission string
		closeDate  pgtype.Timestamptz
	)
	if err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.FunnelKey,
		&o.Stage,
		&o.Title,
		&o.ClientID,
		&value,
		&commission,
		&closeDate,
		&o.DealType,
		&o.Salesperson,
		&o.Origin,
		&o.TechnicalResponsible,
		&o.RenewalResponsible,
		&o.InsuranceType,
		&o.InsuranceCompany,
		&o.Notes,
		&o.CreatedAt,
	); err != nil {
		return opportunity.Opportunity{}, err
	}

	o.ExpectedCloseDate = timePtr(closeDate)

	var err error
	if o.Value, err = decimalFromText(value); err != nil {
		return opportunity.Opportunity{}, err
	}
	if o.Commission, err = decimalFromText(commission); err != nil {
		return opportunity.Opportunity{}, err
	}
	return o, nil
}

func scanActivity(row pgx.Row) (opportunity.Activity, error) {
	var (
		a       opportunity.Activity
		dueDate pgtype.Timestamptz
	)
	if err := row.Scan(
		&a.ID,
		&a.OpportunityID,
		&a.Text,
		&a.Stage,
		&a.Completed,
		&a.AssignedTo,
		&dueDate,
		&a.DueTime,
	); err != nil {
		return opportunity.Activity{}, err
	}
	a.DueDate = timePtr(dueDate)
	return a, nil
}
