package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corelinehq/coreline-crm/domains/tenants/be/service"
)

// MemoryRepository is a simple in-memory implementation suitable for tests and
// early development. Uniqueness of identifier and database name is enforced
// under one mutex, mirroring the directory's storage constraints.
type MemoryRepository struct {
	mu           sync.RWMutex
	byID         map[uuid.UUID]service.Tenant
	byIdentifier map[string]uuid.UUID
	byDatabase   map[string]uuid.UUID
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:         make(map[uuid.UUID]service.Tenant),
		byIdentifier: make(map[string]uuid.UUID),
		byDatabase:   make(map[string]uuid.UUID),
	}
}

func (r *MemoryRepository) Insert(ctx context.Context, t service.Tenant) (service.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byIdentifier[t.Identifier]; exists {
		return service.Tenant{}, service.ErrDuplicateIdentifier
	}
	if _, exists := r.byDatabase[t.DatabaseName]; exists {
		return service.Tenant{}, service.ErrDuplicateIdentifier
	}

	r.byID[t.ID] = t
	r.byIdentifier[t.Identifier] = t.ID
	r.byDatabase[t.DatabaseName] = t.ID
	return t, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (service.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return service.Tenant{}, service.ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepository) GetByIdentifier(ctx context.Context, identifier string) (service.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byIdentifier[identifier]
	if !ok {
		return service.Tenant{}, service.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) Update(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return service.Tenant{}, service.ErrNotFound
	}

	if input.Name != nil {
		t.Name = *input.Name
	}
	if input.Description != nil {
		t.Description = input.Description
	}
	if input.IsActive != nil {
		t.IsActive = *input.IsActive
	}
	if input.Domain != nil {
		t.Domain = input.Domain
	}
	if input.LogoURL != nil {
		t.LogoURL = input.LogoURL
	}
	if input.Theme != nil {
		t.Theme = input.Theme
	}
	if input.SubscriptionPlan != nil {
		t.SubscriptionPlan = input.SubscriptionPlan
	}
	if input.SubscriptionExpiresAt != nil {
		t.SubscriptionExpiresAt = input.SubscriptionExpiresAt
	}
	t.UpdatedAt = time.Now().UTC()

	r.byID[id] = t
	return t, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return service.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byIdentifier, t.Identifier)
	delete(r.byDatabase, t.DatabaseName)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]service.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]service.Tenant, 0, len(r.byID))
	for _, t := range r.byID {
		items = append(items, t)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
