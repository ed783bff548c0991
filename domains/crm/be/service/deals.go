package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DealInput carries the client-settable deal fields.
type DealInput struct {
	CustomerID        uuid.UUID
	Title             string
	Description       *string
	Value             *float64
	Stage             *DealStage
	ExpectedCloseDate *time.Time
}

// ListDeals returns all deals, optionally filtered by customer.
func (s *Service) ListDeals(ctx context.Context, customerID *uuid.UUID) ([]Deal, error) {
	if customerID != nil {
		return s.deals.ListByCustomer(ctx, *customerID)
	}
	return s.deals.List(ctx)
}

// GetDeal returns one deal by id.
func (s *Service) GetDeal(ctx context.Context, id uuid.UUID) (Deal, error) {
	return s.deals.Get(ctx, id)
}

// CreateDeal validates and persists a new deal under an existing customer.
func (s *Service) CreateDeal(ctx context.Context, input DealInput) (Deal, error) {
	if strings.TrimSpace(input.Title) == "" {
		return Deal{}, fmt.Errorf("%w: deal title is required", ErrInvalidInput)
	}
	if input.CustomerID == uuid.Nil {
		return Deal{}, fmt.Errorf("%w: customer id is required", ErrInvalidInput)
	}
	if input.Value != nil && *input.Value < 0 {
		return Deal{}, fmt.Errorf("%w: deal value must not be negative", ErrInvalidInput)
	}
	if _, err := s.customers.Get(ctx, input.CustomerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Deal{}, fmt.Errorf("%w: customer %s does not exist", ErrInvalidInput, input.CustomerID)
		}
		return Deal{}, err
	}

	stage := DealLead
	if input.Stage != nil {
		if !ValidDealStage(*input.Stage) {
			return Deal{}, fmt.Errorf("%w: unknown deal stage %q", ErrInvalidInput, *input.Stage)
		}
		stage = *input.Stage
	}

	d := Deal{
		ID:                uuid.New(),
		CustomerID:        input.CustomerID,
		Title:             strings.TrimSpace(input.Title),
		Description:       input.Description,
		Stage:             stage,
		ExpectedCloseDate: input.ExpectedCloseDate,
		CreatedAt:         time.Now().UTC(),
	}
	if input.Value != nil {
		d.Value = *input.Value
	}
	return s.deals.Insert(ctx, d)
}

// UpdateDeal applies the non-empty fields of input to an existing deal.
func (s *Service) UpdateDeal(ctx context.Context, id uuid.UUID, input DealInput) (Deal, error) {
	current, err := s.deals.Get(ctx, id)
	if err != nil {
		return Deal{}, err
	}

	if strings.TrimSpace(input.Title) != "" {
		current.Title = strings.TrimSpace(input.Title)
	}
	if input.Description != nil {
		current.Description = input.Description
	}
	if input.Value != nil {
		if *input.Value < 0 {
			return Deal{}, fmt.Errorf("%w: deal value must not be negative", ErrInvalidInput)
		}
		current.Value = *input.Value
	}
	if input.Stage != nil {
		if !ValidDealStage(*input.Stage) {
			return Deal{}, fmt.Errorf("%w: unknown deal stage %q", ErrInvalidInput, *input.Stage)
		}
		current.Stage = *input.Stage
	}
	if input.ExpectedCloseDate != nil {
		current.ExpectedCloseDate = input.ExpectedCloseDate
	}

	now := time.Now().UTC()
	current.UpdatedAt = &now
	return s.deals.Update(ctx, current)
}

// DeleteDeal removes a deal.
func (s *Service) DeleteDeal(ctx context.Context, id uuid.UUID) error {
	return s.deals.Delete(ctx, id)
}
