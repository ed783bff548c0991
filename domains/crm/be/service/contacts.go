package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContactInput carries the client-settable contact fields.
type ContactInput struct {
	CustomerID uuid.UUID
	FirstName  string
	LastName   string
	Email      *string
	Phone      *string
	Position   *string
}

// ListContacts returns all contacts, optionally filtered by customer.
func (s *Service) ListContacts(ctx context.Context, customerID *uuid.UUID) ([]Contact, error) {
	if customerID != nil {
		return s.contacts.ListByCustomer(ctx, *customerID)
	}
	return s.contacts.List(ctx)
}

// GetContact returns one contact by id.
func (s *Service) GetContact(ctx context.Context, id uuid.UUID) (Contact, error) {
	return s.contacts.Get(ctx, id)
}

// CreateContact validates and persists a new contact under an existing customer.
func (s *Service) CreateContact(ctx context.Context, input ContactInput) (Contact, error) {
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return Contact{}, fmt.Errorf("%w: contact first and last name are required", ErrInvalidInput)
	}
	if input.CustomerID == uuid.Nil {
		return Contact{}, fmt.Errorf("%w: customer id is required", ErrInvalidInput)
	}
	if _, err := s.customers.Get(ctx, input.CustomerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Contact{}, fmt.Errorf("%w: customer %s does not exist", ErrInvalidInput, input.CustomerID)
		}
		return Contact{}, err
	}

	c := Contact{
		ID:         uuid.New(),
		CustomerID: input.CustomerID,
		FirstName:  strings.TrimSpace(input.FirstName),
		LastName:   strings.TrimSpace(input.LastName),
		Email:      input.Email,
		Phone:      input.Phone,
		Position:   input.Position,
		CreatedAt:  time.Now().UTC(),
	}
	return s.contacts.Insert(ctx, c)
}

// UpdateContact applies the non-empty fields of input to an existing contact.
func (s *Service) UpdateContact(ctx context.Context, id uuid.UUID, input ContactInput) (Contact, error) {
	current, err := s.contacts.Get(ctx, id)
	if err != nil {
		return Contact{}, err
	}

	if strings.TrimSpace(input.FirstName) != "" {
		current.FirstName = strings.TrimSpace(input.FirstName)
	}
	if strings.TrimSpace(input.LastName) != "" {
		current.LastName = strings.TrimSpace(input.LastName)
	}
	if input.Email != nil {
		current.Email = input.Email
	}
	if input.Phone != nil {
		current.Phone = input.Phone
	}
	if input.Position != nil {
		current.Position = input.Position
	}

	now := time.Now().UTC()
	current.UpdatedAt = &now
	return s.contacts.Update(ctx, current)
}

// DeleteContact removes a contact.
func (s *Service) DeleteContact(ctx context.Context, id uuid.UUID) error {
	return s.contacts.Delete(ctx, id)
}
