package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/corelinehq/coreline-crm/domains/tenants/be/service"
	"github.com/corelinehq/coreline-crm/platform/go/persistence"
)

// UserDirectory adapts the directory user store to the slice the tenant
// service needs for user assignment.
type UserDirectory struct {
	store *persistence.UserStore
}

func NewUserDirectory(store *persistence.UserStore) *UserDirectory {
	if store == nil {
		panic("user store is required")
	}
	return &UserDirectory{store: store}
}

func (d *UserDirectory) SetTenant(ctx context.Context, userID uuid.UUID, tenantID *uuid.UUID, tenantIdentifier *string) error {
	if _, err := d.store.SetTenant(ctx, userID, tenantID, tenantIdentifier); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return service.ErrUserNotFound
		}
		return err
	}
	return nil
}

func (d *UserDirectory) ClearTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return d.store.ClearTenant(ctx, tenantID)
}

func (d *UserDirectory) ListAssigned(ctx context.Context, tenantID uuid.UUID) ([]service.AssignedUser, error) {
	records, err := d.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	users := make([]service.AssignedUser, 0, len(records))
	for _, rec := range records {
		users = append(users, service.AssignedUser{
			ID:          rec.ID,
			Email:       rec.Email,
			DisplayName: rec.DisplayName,
			Roles:       rec.Roles,
		})
	}
	return users, nil
}

// Ensure interface compliance.
var _ service.UserDirectory = (*UserDirectory)(nil)
