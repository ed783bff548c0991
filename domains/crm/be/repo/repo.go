// Package repo persists CRM records through the request's bound tenant
// database handle. Every statement filters by the bound tenant id as defense
// in depth, even though the database itself is already tenant-isolated.
package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/corelinehq/coreline-crm/domains/crm/be/service"
	"github.com/corelinehq/coreline-crm/platform/go/tenant"
)

// boundHandle fetches the data handle and tenant id stashed by the resolution
// middleware. Repositories never re-derive the tenant from claims.
func boundHandle(ctx context.Context) (tenant.DataHandle, uuid.UUID, error) {
	b, ok := tenant.FromContext(ctx)
	if !ok || b.Handle == nil {
		return nil, uuid.Nil, tenant.ErrNoTenantBound
	}
	return b.Handle, b.TenantID, nil
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return service.ErrNotFound
	}
	return err
}
