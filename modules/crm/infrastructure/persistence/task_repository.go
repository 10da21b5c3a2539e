package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/apolice/crm/modules/crm/domain/entities/task"
	"github.com/apolice/crm/pkg/composables"
)

const taskColumns = `id, user_id, title, description, status, client_id,
opportunity_id, due_date, recurrence, created_at`

type TaskRepository struct{}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{}
}

func (r *TaskRepository) GetAll(ctx context.Context) ([]task.Task, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT `+taskColumns+` FROM crm_tasks ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (task.Task, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return task.Task{}, err
	}
	row := tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM crm_tasks WHERE id = $1`, pgUUID(id))
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return task.Task{}, task.ErrNotFound
	}
	return t, err
}

func (r *TaskRepository) Create(ctx context.Context, t task.Task) (task.Task, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return task.Task{}, err
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	err = tx.QueryRow(ctx, `
INSERT INTO crm_tasks (id, user_id, title, description, status, client_id, opportunity_id, due_date, recurrence)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING created_at
`,
		pgUUID(t.ID),
		pgNullableUUID(t.UserID),
		t.Title,
		t.Description,
		string(t.Status),
		pgNullableUUID(t.ClientID),
		pgNullableUUID(t.OpportunityID),
		t.DueDate,
		string(t.Recurrence),
	).Scan(&t.CreatedAt)
	if err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (r *TaskRepository) Update(ctx context.Context, t task.Task) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
UPDATE crm_tasks SET
	user_id = $2, title = $3, description = $4, status = $5,
	client_id = $6, opportunity_id = $7, due_date = $8, recurrence = $9
WHERE id = $1
`,
		pgUUID(t.ID),
		pgNullableUUID(t.UserID),
		t.Title,
		t.Description,
		string(t.Status),
		pgNullableUUID(t.ClientID),
		pgNullableUUID(t.OpportunityID),
		t.DueDate,
		string(t.Recurrence),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return task.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM crm_tasks WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return task.ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (task.Task, error) {
	var (
		t          task.Task
		userID     pgtype.UUID
		status     string
		clientID   pgtype.UUID
		oppID      pgtype.UUID
		dueDate    pgtype.Timestamptz
		recurrence string
	)
	if err := row.Scan(
		&t.ID,
		&userID,
		&t.Title,
		&t.Description,
		&status,
		&clientID,
		&oppID,
		&dueDate,
		&recurrence,
		&t.CreatedAt,
	); err != nil {
		return task.Task{}, err
	}

	t.UserID = uuidPtr(userID)
	t.Status = task.Status(status)
	t.ClientID = uuidPtr(clientID)
	t.OpportunityID = uuidPtr(oppID)
	t.DueDate = timePtr(dueDate)
	t.Recurrence = task.Recurrence(recurrence)
	return t, nil
}
