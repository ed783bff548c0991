package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/corelinehq/coreline-crm/domains/crm/be/service"
)

const dealColumns = `id, tenant_id, customer_id, title, description, value, stage, expected_close_date, created_at, updated_at`

// DealRepository implements service.DealRepository on the bound handle.
type DealRepository struct{}

func NewDealRepository() *DealRepository {
	return &DealRepository{}
}

func (r *DealRepository) List(ctx context.Context) ([]service.Deal, error) {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE tenant_id = $1 ORDER BY created_at DESC`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeals(rows)
}

func (r *DealRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]service.Deal, error) {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE tenant_id = $1 AND customer_id = $2 ORDER BY created_at DESC`,
		tenantID, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeals(rows)
}

func (r *DealRepository) Get(ctx context.Context, id uuid.UUID) (service.Deal, error) {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return service.Deal{}, err
	}

	row := db.QueryRow(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE id = $1 AND tenant_id = $2`,
		id, tenantID)
	return scanDeal(row)
}

func (r *DealRepository) Insert(ctx context.Context, d service.Deal) (service.Deal, error) {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return service.Deal{}, err
	}
	d.TenantID = tenantID

	row := db.QueryRow(ctx, `
		INSERT INTO deals (id, tenant_id, customer_id, title, description, value, stage, expected_close_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+dealColumns,
		d.ID, d.TenantID, d.CustomerID, d.Title, d.Description, d.Value, d.Stage, d.ExpectedCloseDate, d.CreatedAt)
	return scanDeal(row)
}

func (r *DealRepository) Update(ctx context.Context, d service.Deal) (service.Deal, error) {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return service.Deal{}, err
	}

	row := db.QueryRow(ctx, `
		UPDATE deals
		SET title = $3, description = $4, value = $5, stage = $6, expected_close_date = $7, updated_at = $8
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+dealColumns,
		d.ID, tenantID, d.Title, d.Description, d.Value, d.Stage, d.ExpectedCloseDate, d.UpdatedAt)
	return scanDeal(row)
}

func (r *DealRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, tenantID, err := boundHandle(ctx)
	if err != nil {
		return err
	}

	tag, err := db.Exec(ctx, `DELETE FROM deals WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

func collectDeals(rows pgx.Rows) ([]service.Deal, error) {
	var out []service.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDeal(row pgx.Row) (service.Deal, error) {
	var d service.Deal
	err := row.Scan(&d.ID, &d.TenantID, &d.CustomerID, &d.Title, &d.Description,
		&d.Value, &d.Stage, &d.ExpectedCloseDate, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return service.Deal{}, mapNoRows(err)
	}
	return d, nil
}

var _ service.DealRepository = (*DealRepository)(nil)
