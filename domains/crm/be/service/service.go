package service

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository abstracts tenant-scoped customer persistence. Every
// implementation reads the bound data handle and tenant id from the request
// context; there is no cross-request state.
type CustomerRepository interface {
	List(ctx context.Context) ([]Customer, error)
	Get(ctx context.Context, id uuid.UUID) (Customer, error)
	Insert(ctx context.Context, c Customer) (Customer, error)
	Update(ctx context.Context, c Customer) (Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContactRepository abstracts tenant-scoped contact persistence.
type ContactRepository interface {
	List(ctx context.Context) ([]Contact, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Contact, error)
	Get(ctx context.Context, id uuid.UUID) (Contact, error)
	Insert(ctx context.Context, c Contact) (Contact, error)
	Update(ctx context.Context, c Contact) (Contact, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DealRepository abstracts tenant-scoped deal persistence.
type DealRepository interface {
	List(ctx context.Context) ([]Deal, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Deal, error)
	Get(ctx context.Context, id uuid.UUID) (Deal, error)
	Insert(ctx context.Context, d Deal) (Deal, error)
	Update(ctx context.Context, d Deal) (Deal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service provides CRM operations over the request's bound tenant database.
type Service struct {
	customers CustomerRepository
	contacts  ContactRepository
	deals     DealRepository
}

// New constructs a Service with required dependencies.
func New(customers CustomerRepository, contacts ContactRepository, deals DealRepository) *Service {
	if customers == nil || contacts == nil || deals == nil {
		panic("crm service requires all repositories")
	}
	return &Service{customers: customers, contacts: contacts, deals: deals}
}
