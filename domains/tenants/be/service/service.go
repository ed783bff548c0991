package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corelinehq/coreline-crm/platform/go/tenant"
)

// Errors returned by the service layer. Callers branch with errors.Is; no
// message-string comparison anywhere.
var (
	ErrNotFound            = errors.New("tenant not found")
	ErrDuplicateIdentifier = errors.New("tenant identifier already exists")
	ErrInvalidIdentifier   = errors.New("invalid tenant identifier")
	ErrDatabaseCreation    = errors.New("tenant database creation failed")
	ErrSchemaInit          = errors.New("tenant schema initialization failed")
	ErrUserNotFound        = errors.New("user not found")
)

// Tenant is the domain model for a tenant registry entry. ConnectionDSN stays
// inside the service boundary; HTTP representations never include it.
type Tenant struct {
	ID                    uuid.UUID
	Identifier            string
	Name                  string
	Description           *string
	IsActive              bool
	DatabaseName          string
	ConnectionDSN         string
	Domain                *string
	LogoURL               *string
	Theme                 *string
	SubscriptionPlan      *string
	SubscriptionExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CreateInput represents the request to register a tenant.
type CreateInput struct {
	Identifier       string
	Name             string
	Description      *string
	Domain           *string
	LogoURL          *string
	Theme            *string
	SubscriptionPlan *string
}

// UpdateInput carries mutable tenant fields; nil leaves a field untouched.
type UpdateInput struct {
	Name                  *string
	Description           *string
	IsActive              *bool
	Domain                *string
	LogoURL               *string
	Theme                 *string
	SubscriptionPlan      *string
	SubscriptionExpiresAt *time.Time
}

// Repository abstracts directory persistence for tenants.
type Repository interface {
	Insert(ctx context.Context, t Tenant) (Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (Tenant, error)
	GetByIdentifier(ctx context.Context, identifier string) (Tenant, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Tenant, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]Tenant, error)
}

// ProvisionedDatabase describes a freshly created tenant database.
type ProvisionedDatabase struct {
	Name string
	DSN  string
}

// DatabaseProvisioner creates and destroys isolated tenant databases.
// CreateDatabase must leave the database schema-current or fail atomically.
type DatabaseProvisioner interface {
	CreateDatabase(ctx context.Context, identifier string) (ProvisionedDatabase, error)
	Drop(ctx context.Context, databaseName string) error
}

// UserDirectory is the slice of the identity directory the tenant service
// needs for user-to-tenant assignment.
type UserDirectory interface {
	SetTenant(ctx context.Context, userID uuid.UUID, tenantID *uuid.UUID, tenantIdentifier *string) error
	ClearTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
	ListAssigned(ctx context.Context, tenantID uuid.UUID) ([]AssignedUser, error)
}

// AssignedUser is a directory user as seen from a tenant's member list.
type AssignedUser struct {
	ID          uuid.UUID
	Email       string
	DisplayName *string
	Roles       []string
}

// Service provides tenant registry and lifecycle operations.
type Service struct {
	repo   Repository
	prov   DatabaseProvisioner
	users  UserDirectory
	logger *zap.Logger
}

// New constructs a Service with required dependencies.
func New(repo Repository, prov DatabaseProvisioner, users UserDirectory, logger *zap.Logger) *Service {
	if repo == nil {
		panic("tenants repo is required")
	}
	if prov == nil {
		panic("database provisioner is required")
	}
	if users == nil {
		panic("user directory is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Service{repo: repo, prov: prov, users: users, logger: logger}
}

// Create registers a new tenant. The ordering is the isolation guarantee:
// create database, initialize schema, and only then persist the record, so
// any earlier failure leaves no TenantRecord behind. The storage-level unique
// constraint on the identifier closes the race between concurrent creations.
func (s *Service) Create(ctx context.Context, input CreateInput) (Tenant, error) {
	if !tenant.ValidIdentifier(input.Identifier) {
		return Tenant{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, input.Identifier)
	}
	if input.Name == "" {
		return Tenant{}, fmt.Errorf("%w: name is required", ErrInvalidIdentifier)
	}

	// Fast-path duplicate check; the insert constraint remains authoritative.
	if _, err := s.repo.GetByIdentifier(ctx, input.Identifier); err == nil {
		return Tenant{}, ErrDuplicateIdentifier
	} else if !errors.Is(err, ErrNotFound) {
		return Tenant{}, err
	}

	db, err := s.prov.CreateDatabase(ctx, input.Identifier)
	if err != nil {
		return Tenant{}, err
	}

	now := time.Now().UTC()
	t := Tenant{
		ID:               uuid.New(),
		Identifier:       input.Identifier,
		Name:             input.Name,
		Description:      input.Description,
		IsActive:         true,
		DatabaseName:     db.Name,
		ConnectionDSN:    db.DSN,
		Domain:           input.Domain,
		LogoURL:          input.LogoURL,
		Theme:            input.Theme,
		SubscriptionPlan: input.SubscriptionPlan,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	created, err := s.repo.Insert(ctx, t)
	if err != nil {
		// A concurrent creation won the identifier; the freshly provisioned
		// database is now orphaned and removed best-effort.
		if dropErr := s.prov.Drop(ctx, db.Name); dropErr != nil {
			s.logger.Warn("orphan tenant database left behind after insert failure",
				zap.String("database", db.Name), zap.Error(dropErr))
		}
		return Tenant{}, err
	}

	s.logger.Info("tenant created",
		zap.String("tenant", created.Identifier),
		zap.String("database", created.DatabaseName))
	return created, nil
}

// Get returns a tenant by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByIdentifier returns a tenant by slug.
func (s *Service) GetByIdentifier(ctx context.Context, identifier string) (Tenant, error) {
	return s.repo.GetByIdentifier(ctx, identifier)
}

// List returns all registered tenants.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	return s.repo.List(ctx)
}

// Update modifies mutable fields of a tenant.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Tenant, error) {
	return s.repo.Update(ctx, id, input)
}

// SetActive toggles the tenant's gate. Deactivation keeps the record and the
// database intact; the resolver rejects requests for the tenant until it is
// re-activated.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (Tenant, error) {
	return s.repo.Update(ctx, id, UpdateInput{IsActive: &active})
}

// Delete drops the tenant database and then removes the registry record.
// Irreversible. In-flight requests holding handles to the dropped database
// fail through normal connection errors.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.prov.Drop(ctx, t.DatabaseName); err != nil {
		return fmt.Errorf("drop tenant database: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if cleared, err := s.users.ClearTenant(ctx, id); err != nil {
		s.logger.Warn("detach users from deleted tenant failed",
			zap.String("tenant", t.Identifier), zap.Error(err))
	} else if cleared > 0 {
		s.logger.Info("users detached from deleted tenant",
			zap.String("tenant", t.Identifier), zap.Int64("users", cleared))
	}

	s.logger.Info("tenant deleted",
		zap.String("tenant", t.Identifier),
		zap.String("database", t.DatabaseName))
	return nil
}

// AssignUser points a directory user at a tenant, refreshing the denormalized
// identifier used for claim embedding. Assignment to an inactive tenant is
// allowed; the resolver enforces the gate at request time.
func (s *Service) AssignUser(ctx context.Context, userID, tenantID uuid.UUID) error {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	return s.users.SetTenant(ctx, userID, &t.ID, &t.Identifier)
}

// UnassignUser clears a user's tenant assignment.
func (s *Service) UnassignUser(ctx context.Context, userID uuid.UUID) error {
	return s.users.SetTenant(ctx, userID, nil, nil)
}

// ListUsers returns the directory users currently assigned to the tenant.
func (s *Service) ListUsers(ctx context.Context, tenantID uuid.UUID) ([]AssignedUser, error) {
	if _, err := s.repo.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.users.ListAssigned(ctx, tenantID)
}

// Resolve maps an identifier to a routing descriptor for the request
// pipeline, rejecting unknown and inactive tenants. Read-only.
func (s *Service) Resolve(ctx context.Context, identifier string) (tenant.Descriptor, error) {
	t, err := s.repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return tenant.Descriptor{}, tenant.ErrNotFound
		}
		return tenant.Descriptor{}, err
	}
	if !t.IsActive {
		return tenant.Descriptor{}, tenant.ErrInactive
	}
	return tenant.Descriptor{
		TenantID:      t.ID,
		Identifier:    t.Identifier,
		ConnectionDSN: t.ConnectionDSN,
	}, nil
}
