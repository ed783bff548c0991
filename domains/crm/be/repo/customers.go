package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/corelinehq/coreline-crm/domains/crm/be/service"
)

const customerColumns = `id, tenant_id, name, company, email, phone, address, status, created_at, updated_at`

// CustomerRepository implements service.CustomerRepository on the bound handle.
type CustomerRepository struct{}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{}
}

func (r *CustomerRepository) List(ctx context.Context) ([]service.Customer, error) {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE tenant_id = $1 ORDER BY created_at DESC`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCustomers(rows)
}

func (r *CustomerRepository) Get(ctx context.Context, id uuid.UUID) (service.Customer, error) {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return service.Customer{}, err
	}

	row := db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1 AND tenant_id = $2`,
		id, tenantID)
	return scanCustomer(row)
}

func (r *CustomerRepository) Insert(ctx context.Context, c service.Customer) (service.Customer, error) {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return service.Customer{}, err
	}
	c.TenantID = tenantID

	row := db.QueryRow(ctx, `
		INSERT INTO customers (id, tenant_id, name, company, email, phone, address, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+customerColumns,
		c.ID, c.TenantID, c.Name, c.Company, c.Email, c.Phone, c.Address, c.Status, c.CreatedAt)
	return scanCustomer(row)
}

func (r *CustomerRepository) Update(ctx context.Context, c service.Customer) (service.Customer, error) {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return service.Customer{}, err
	}

	row := db.QueryRow(ctx, `
		UPDATE customers
		SET name = $3, company = $4, email = $5, phone = $6, address = $7, status = $8, updated_at = $9
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+customerColumns,
		c.ID, tenantID, c.Name, c.Company, c.Email, c.Phone, c.Address, c.Status, c.UpdatedAt)
	return scanCustomer(row)
}

func (r *CustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return err
	}

	tag, err := db.Exec(ctx, `DELETE FROM customers WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

func collectCustomers(rows pgx.Rows) ([]service.Customer, error) {
	var out []service.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCustomer(row pgx.Row) (service.Customer, error) {
	var c service.Customer
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Company, &c.Email, &c.Phone,
		&c.Address, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return service.Customer{}, mapNoRows(err)
	}
	return c, nil
}

// Ensure interface compliance.
var _ service.CustomerRepository = (*CustomerRepository)(nil)
