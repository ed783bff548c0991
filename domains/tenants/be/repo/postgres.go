package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/corelinehq/coreline-crm/domains/tenants/be/service"
	"github.com/corelinehq/coreline-crm/platform/go/persistence"
)

// PostgresRepository implements the tenant repository on the directory store.
type PostgresRepository struct {
	store *persistence.TenantStore
}

// NewPostgresRepository constructs a repository backed by TenantStore.
func NewPostgresRepository(store *persistence.TenantStore) *PostgresRepository {
	if store == nil {
		panic("tenant store is required")
	}
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) Insert(ctx context.Context, t service.Tenant) (service.Tenant, error) {
	rec, err := r.store.Insert(ctx, toRecord(t))
	if err != nil {
		return service.Tenant{}, mapConflict(err)
	}
	return toServiceTenant(rec), nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (service.Tenant, error) {
	rec, err := r.store.GetByID(ctx, id)
	if err != nil {
		return service.Tenant{}, mapNotFound(err)
	}
	return toServiceTenant(rec), nil
}

func (r *PostgresRepository) GetByIdentifier(ctx context.Context, identifier string) (service.Tenant, error) {
	rec, err := r.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		return service.Tenant{}, mapNotFound(err)
	}
	return toServiceTenant(rec), nil
}

func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Tenant, error) {
	rec, err := r.store.Update(ctx, id, persistence.TenantUpdate{
		Name:                  input.Name,
		Description:           input.Description,
		IsActive:              input.IsActive,
		Domain:                input.Domain,
		LogoURL:               input.LogoURL,
		Theme:                 input.Theme,
		SubscriptionPlan:      input.SubscriptionPlan,
		SubscriptionExpiresAt: input.SubscriptionExpiresAt,
	})
	if err != nil {
		return service.Tenant{}, mapNotFound(err)
	}
	return toServiceTenant(rec), nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return mapNotFound(r.store.Delete(ctx, id))
}

func (r *PostgresRepository) List(ctx context.Context) ([]service.Tenant, error) {
	recs, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	tenants := make([]service.Tenant, 0, len(recs))
	for _, rec := range recs {
		tenants = append(tenants, toServiceTenant(rec))
	}
	return tenants, nil
}

func toRecord(t service.Tenant) persistence.TenantRecord {
	return persistence.TenantRecord{
		ID:                    t.ID,
		Identifier:            t.Identifier,
		Name:                  t.Name,
		Description:           t.Description,
		IsActive:              t.IsActive,
		DatabaseName:          t.DatabaseName,
		ConnectionDSN:         t.ConnectionDSN,
		Domain:                t.Domain,
		LogoURL:               t.LogoURL,
		Theme:                 t.Theme,
		SubscriptionPlan:      t.SubscriptionPlan,
		SubscriptionExpiresAt: t.SubscriptionExpiresAt,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}

func toServiceTenant(rec persistence.TenantRecord) service.Tenant {
	return service.Tenant{
		ID:                    rec.ID,
		Identifier:            rec.Identifier,
		Name:                  rec.Name,
		Description:           rec.Description,
		IsActive:              rec.IsActive,
		DatabaseName:          rec.DatabaseName,
		ConnectionDSN:         rec.ConnectionDSN,
		Domain:                rec.Domain,
		LogoURL:               rec.LogoURL,
		Theme:                 rec.Theme,
		SubscriptionPlan:      rec.SubscriptionPlan,
		SubscriptionExpiresAt: rec.SubscriptionExpiresAt,
		CreatedAt:             rec.CreatedAt,
		UpdatedAt:             rec.UpdatedAt,
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return service.ErrNotFound
	}
	return err
}

// mapConflict translates the storage-level unique violations into the typed
// conflict the service exposes. The constraint is the authoritative guard
// against concurrent creations with the same identifier.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.EqualFold(pgErr.ConstraintName, "tenants_identifier_key"),
			strings.EqualFold(pgErr.ConstraintName, "tenants_database_name_key"):
			return service.ErrDuplicateIdentifier
		}
	}
	return err
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
