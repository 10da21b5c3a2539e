package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/apolice/crm/modules/crm/domain/aggregates/client"
	"github.com/apolice/crm/pkg/composables"
)

const clientColumns = `id, user_id, name, email, phone, address, person_type, document,
city, state, zip_code, salesperson, birth_date, gender, marital_status,
profession, business_sector, monthly_income::text, license_expiry, created_at`

type ClientRepository struct{}

func NewClientRepository() *ClientRepository {
	return &ClientRepository{}
}

func (r *ClientRepository) GetAll(ctx context.Context) ([]client.Client, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT `+clientColumns+` FROM crm_clients ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanClients(rows)
}

func (r *ClientRepository) GetPaginated(ctx context.Context, params *client.FindParams) ([]client.Client, int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := "TRUE"
	args := []interface{}{}
	if params.Q != "" {
		args = append(args, "%"+params.Q+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR document ILIKE $%d)", n, n, n)
	}
	if params.UserID != uuid.Nil {
		args = append(args, pgUUID(params.UserID))
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}

	var total int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM crm_clients WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + clientColumns + ` FROM crm_clients WHERE ` + where + ` ORDER BY created_at, id`
	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if params.Offset > 0 {
		args = append(args, params.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	clients, err := scanClients(rows)
	if err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (client.Client, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return client.Client{}, err
	}
	row := tx.QueryRow(ctx, `SELECT `+clientColumns+` FROM crm_clients WHERE id = $1`, pgUUID(id))
	c, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return client.Client{}, client.ErrNotFound
	}
	return c, err
}

func (r *ClientRepository) Create(ctx context.Context, c client.Client) (client.Client, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return client.Client{}, err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	err = tx.QueryRow(ctx, `
INSERT INTO crm_clients (
	id, user_id, name, email, phone, address, person_type, document,
	city, state, zip_code, salesperson, birth_date, gender, marital_status,
	profession, business_sector, monthly_income, license_expiry
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18::numeric,$19)
RETURNING created_at
`,
		pgUUID(c.ID),
		pgUUID(c.UserID),
		c.Name,
		c.Email,
		c.Phone,
		c.Address,
		string(c.PersonType),
		c.Document,
		c.City,
		c.State,
		c.ZipCode,
		c.Salesperson,
		c.BirthDate,
		string(c.Gender),
		string(c.MaritalStatus),
		c.Profession,
		c.BusinessSector,
		pgNullableDecimal(c.MonthlyIncome),
		c.LicenseExpiry,
	).Scan(&c.CreatedAt)
	if isUniqueViolation(err) {
		return client.Client{}, client.ErrDuplicate
	}
	if err != nil {
		return client.Client{}, err
	}
	return c, nil
}

func (r *ClientRepository) Update(ctx context.Context, c client.Client) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
UPDATE crm_clients SET
	name = $2, email = $3, phone = $4, address = $5, person_type = $6,
	document = $7, city = $8, state = $9, zip_code = $10, salesperson = $11,
	birth_date = $12, gender = $13, marital_status = $14, profession = $15,
	business_sector = $16, monthly_income = $17::numeric, license_expiry = $18
WHERE id = $1
`,
		pgUUID(c.ID),
		c.Name,
		c.Email,
		c.Phone,
		c.Address,
		string(c.PersonType),
		c.Document,
		c.City,
		c.State,
		c.ZipCode,
		c.Salesperson,
		c.BirthDate,
		string(c.Gender),
		string(c.MaritalStatus),
		c.Profession,
		c.BusinessSector,
		pgNullableDecimal(c.MonthlyIncome),
		c.LicenseExpiry,
	)
	if isUniqueViolation(err) {
		return client.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return client.ErrNotFound
	}
	return nil
}

func (r *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM crm_clients WHERE id = $1`, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return client.ErrNotFound
	}
	return nil
}

func scanClients(rows pgx.Rows) ([]client.Client, error) {
	var out []client.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanClient(row pgx.Row) (client.Client, error) {
	var (
		c             client.Client
		personType    string
		gender        string
		maritalStatus string
		birthDate     pgtype.Timestamptz
		income        pgtype.Text
		licenseExpiry pgtype.Timestamptz
	)
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Address,
		&personType,
		&c.Document,
		&c.City,
		&c.State,
		&c.ZipCode,
		&c.Salesperson,
		&birthDate,
		&gender,
		&maritalStatus,
		&c.Profession,
		&c.BusinessSector,
		&income,
		&licenseExpiry,
		&c.CreatedAt,
	); err != nil {
		return client.Client{}, err
	}

	c.PersonType = client.PersonType(personType)
	c.Gender = client.Gender(gender)
	c.MaritalStatus = client.MaritalStatus(maritalStatus)
	c.BirthDate = timePtr(birthDate)
	c.LicenseExpiry = timePtr(licenseExpiry)

	var err error
	if c.MonthlyIncome, err = nullableDecimalFromText(income); err != nil {
		return client.Client{}, err
	}
	return c, nil
}

func timePtr(v pgtype.Timestamptz) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
