package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/corelinehq/coreline-crm/domains/crm/be/service"
)

const contactColumns = `id, tenant_id, customer_id, first_name, last_name, email, phone, position, created_at, updated_at`

// ContactRepository implements service.ContactRepository on the bound handle.
type ContactRepository struct{}

func NewContactRepository() *ContactRepository {
	return &ContactRepository{}
}

func (r *ContactRepository) List(ctx context.Context) ([]service.Contact, error) {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE tenant_id = $1 ORDER BY created_at DESC`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectContacts(rows)
}

func (r *ContactRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]service.Contact, error) {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE tenant_id = $1 AND customer_id = $2 ORDER BY created_at DESC`,
		tenantID, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectContacts(rows)
}

func (r *ContactRepository) Get(ctx context.Context, id uuid.UUID) (service.Contact, error) {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return service.Contact{}, err
	}

	row := db.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND tenant_id = $2`,
		id, tenantID)
	return scanContact(row)
}

func (r *ContactRepository) Insert(ctx context.Context, c service.Contact) (service.Contact, error) {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return service.Contact{}, err
	}
	c.TenantID = tenantID

	row := db.QueryRow(ctx, `
		INSERT INTO contacts (id, tenant_id, customer_id, first_name, last_name, email, phone, position, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+contactColumns,
		c.ID, c.TenantID, c.CustomerID, c.FirstName, c.LastName, c.Email, c.Phone, c.Position, c.CreatedAt)
	return scanContact(row)
}

func (r *ContactRepository) Update(ctx context.Context, c service.Contact) (service.Contact, error) {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return service.Contact{}, err
	}

	row := db.QueryRow(ctx, `
		UPDATE contacts
		SET first_name = $3, last_name = $4, email = $5, phone = $6, position = $7, updated_at = $8
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+contactColumns,
		c.ID, tenantID, c.FirstName, c.LastName, c.Email, c.Phone, c.Position, c.UpdatedAt)
	return scanContact(row)
}

func (r *ContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return err
	}

	tag, err := db.Exec(ctx, `DELETE FROM contacts WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

func collectContacts(rows pgx.Rows) ([]service.Contact, error) {
	var out []service.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanContact(row pgx.Row) (service.Contact, error) {
	var c service.Contact
	err := row.Scan(&c.ID, &c.TenantID, &c.CustomerID, &c.FirstName, &c.LastName,
		&c.Email, &c.Phone, &c.Position, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return service.Contact{}, mapNoRows(err)
	}
	return c, nil
}

var _ service.ContactRepository = (*ContactRepository)(nil)
