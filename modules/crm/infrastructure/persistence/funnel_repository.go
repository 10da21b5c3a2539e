package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/apolice/crm/modules/crm/domain/entities/funnel"
	"github.com/apolice/crm/pkg/composables"
)

type FunnelRepository struct{}

func NewFunnelRepository() *FunnelRepository {
	return &FunnelRepository{}
}

func (r *FunnelRepository) GetAll(ctx context.Context) ([]funnel.Funnel, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx,
		`SELECT id, name, key, is_active, order_index, created_at FROM crm_funnels ORDER BY order_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []funnel.Funnel
	for rows.Next() {
		var f funnel.Funnel
		if err := rows.Scan(&f.ID, &f.Name, &f.Key, &f.IsActive, &f.OrderIndex, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FunnelRepository) GetByID(ctx context.Context, id uuid.UUID) (funnel.Funnel, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return funnel.Funnel{}, err
	}
	var f funnel.Funnel
	err = tx.QueryRow(ctx,
		`SELECT id, name, key, is_active, order_index, created_at FROM crm_funnels WHERE id = $1`,
		pgUUID(id)).Scan(&f.ID, &f.Name, &f.Key, &f.IsActive, &f.OrderIndex, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return funnel.Funnel{}, funnel.ErrFunnelNotFound
	}
	return f, err
}

func (r *FunnelRepository) Create(ctx context.Context, f funnel.Funnel) (funnel.Funnel, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return funnel.Funnel{}, err
	}
	err = tx.QueryRow(ctx, `
INSERT INTO crm_funnels (id, name, key, is_active, order_index)
VALUES ($1,$2,$3,$4,$5)
RETURNING created_at
`, pgUUID(f.ID), f.Name, f.Key, f.IsActive, f.OrderIndex).Scan(&f.CreatedAt)
	if isUniqueViolation(err) {
		return funnel.Funnel{}, funnel.ErrKeyTaken
	}
	if err != nil {
		return funnel.Funnel{}, err
	}
	return f, nil
}

func (r *FunnelRepository) Update(ctx context.Context, f funnel.Funnel) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
UPDATE crm_funnels SET name = $2, is_active = $3, order_index = $4
WHERE id = $1
`, pgUUID(f.ID), f.Name, f.IsActive, f.OrderIndex)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return funnel.ErrFunnelNotFound
	}
	return nil
}

func (r *FunnelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM crm_funnels WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return funnel.ErrFunnelNotFound
	}
	return nil
}

func (r *FunnelRepository) GetAllStages(ctx context.Context) ([]funnel.Stage, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx,
		`SELECT id, funnel_key, name, key, order_index FROM crm_funnel_stages ORDER BY funnel_key, order_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []funnel.Stage
	for rows.Next() {
		var st funnel.Stage
		if err := rows.Scan(&st.ID, &st.FunnelKey, &st.Name, &st.Key, &st.OrderIndex); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *FunnelRepository) GetStageByID(ctx context.Context, id uuid.UUID) (funnel.Stage, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return funnel.Stage{}, err
	}
	var st funnel.Stage
	err = tx.QueryRow(ctx,
		`SELECT id, funnel_key, name, key, order_index FROM crm_funnel_stages WHERE id = $1`,
		pgUUID(id)).Scan(&st.ID, &st.FunnelKey, &st.Name, &st.Key, &st.OrderIndex)
	if errors.Is(err, pgx.ErrNoRows) {
		return funnel.Stage{}, funnel.ErrStageNotFound
	}
	return st, err
}

func (r *FunnelRepository) CreateStage(ctx context.Context, st funnel.Stage) (funnel.Stage, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return funnel.Stage{}, err
	}
	_, err = tx.Exec(ctx, `
INSERT INTO crm_funnel_stages (id, funnel_key, name, key, order_index)
VALUES ($1,$2,$3,$4,$5)
`, pgUUID(st.ID), st.FunnelKey, st.Name, st.Key, st.OrderIndex)
	if err != nil {
		return funnel.Stage{}, err
	}
	return st, nil
}

func (r *FunnelRepository) UpdateStage(ctx context.Context, st funnel.Stage) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
UPDATE crm_funnel_stages SET name = $2, order_index = $3
WHERE id = $1
`, pgUUID(st.ID), st.Name, st.OrderIndex)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return funnel.ErrStageNotFound
	}
	return nil
}

func (r *FunnelRepository) DeleteStage(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM crm_funnel_stages WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return funnel.ErrStageNotFound
	}
	return nil
}

func (r *FunnelRepository) GetAllTemplates(ctx context.Context) ([]funnel.ActivityTemplate, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
SELECT id, funnel_key, stage_key, text, order_index
FROM crm_activity_templates
ORDER BY funnel_key, stage_key, order_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []funnel.ActivityTemplate
	for rows.Next() {
		var t funnel.ActivityTemplate
		if err := rows.Scan(&t.ID, &t.FunnelKey, &t.StageKey, &t.Text, &t.OrderIndex); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *FunnelRepository) CreateTemplate(ctx context.Context, t funnel.ActivityTemplate) (funnel.ActivityTemplate, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return funnel.ActivityTemplate{}, err
	}
	_, err = tx.Exec(ctx, `
INSERT INTO crm_activity_templates (id, funnel_key, stage_key, text, order_index)
VALUES ($1,$2,$3,$4,$5)
`, pgUUID(t.ID), t.FunnelKey, t.StageKey, t.Text, t.OrderIndex)
	if err != nil {
		return funnel.ActivityTemplate{}, err
	}
	return t, nil
}

func (r *FunnelRepository) UpdateTemplate(ctx context.Context, t funnel.ActivityTemplate) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
UPDATE crm_activity_templates SET text = $2, order_index = $3
WHERE id = $1
`, pgUUID(t.ID), t.Text, t.OrderIndex)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return funnel.ErrTemplateNotFound
	}
	return nil
}

func (r *FunnelRepository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM crm_activity_templates WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return funnel.ErrTemplateNotFound
	}
	return nil
}
