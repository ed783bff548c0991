package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CustomerInput carries the client-settable customer fields.
type CustomerInput struct {
	Name    string
	Company *string
	Email   *string
	Phone   *string
	Address *string
	Status  *CustomerStatus
}

// ListCustomers returns all customers in the bound tenant database.
func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	return s.customers.List(ctx)
}

// GetCustomer returns one customer by id.
func (s *Service) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	return s.customers.Get(ctx, id)
}

// CreateCustomer validates and persists a new customer.
func (s *Service) CreateCustomer(ctx context.Context, input CustomerInput) (Customer, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Customer{}, fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}

	status := CustomerLead
	if input.Status != nil {
		if !ValidCustomerStatus(*input.Status) {
			return Customer{}, fmt.Errorf("%w: unknown customer status %q", ErrInvalidInput, *input.Status)
		}
		status = *input.Status
	}

	c := Customer{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(input.Name),
		Company:   input.Company,
		Email:     input.Email,
		Phone:     input.Phone,
		Address:   input.Address,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	return s.customers.Insert(ctx, c)
}

// UpdateCustomer applies the non-nil fields of input to an existing customer.
func (s *Service) UpdateCustomer(ctx context.Context, id uuid.UUID, input CustomerInput) (Customer, error) {
	current, err := s.customers.Get(ctx, id)
	if err != nil {
		return Customer{}, err
	}

	if strings.TrimSpace(input.Name) != "" {
		current.Name = strings.TrimSpace(input.Name)
	}
	if input.Company != nil {
		current.Company = input.Company
	}
	if input.Email != nil {
		current.Email = input.Email
	}
	if input.Phone != nil {
		current.Phone = input.Phone
	}
	if input.Address != nil {
		current.Address = input.Address
	}
	if input.Status != nil {
		if !ValidCustomerStatus(*input.Status) {
			return Customer{}, fmt.Errorf("%w: unknown customer status %q", ErrInvalidInput, *input.Status)
		}
		current.Status = *input.Status
	}

	now := time.Now().UTC()
	current.UpdatedAt = &now
	return s.customers.Update(ctx, current)
}

// DeleteCustomer removes a customer and, through the schema's cascade, its
// contacts and deals.
func (s *Service) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	return s.customers.Delete(ctx, id)
}
