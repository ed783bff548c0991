package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Errors returned by the CRM service layer.
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// CustomerStatus is the sales pipeline position of a customer.
type CustomerStatus string

const (
	CustomerLead     CustomerStatus = "lead"
	CustomerProspect CustomerStatus = "prospect"
	CustomerActive   CustomerStatus = "customer"
	CustomerInactive CustomerStatus = "inactive"
)

// ValidCustomerStatus reports whether s is a known pipeline status.
func ValidCustomerStatus(s CustomerStatus) bool {
	switch s {
	case CustomerLead, CustomerProspect, CustomerActive, CustomerInactive:
		return true
	}
	return false
}

// DealStage is the negotiation stage of a deal.
type DealStage string

const (
	DealLead          DealStage = "lead"
	DealQualification DealStage = "qualification"
	DealProposal      DealStage = "proposal"
	DealNegotiation   DealStage = "negotiation"
	DealClosedWon     DealStage = "closed_won"
	DealClosedLost    DealStage = "closed_lost"
)

// ValidDealStage reports whether s is a known stage.
func ValidDealStage(s DealStage) bool {
	switch s {
	case DealLead, DealQualification, DealProposal, DealNegotiation, DealClosedWon, DealClosedLost:
		return true
	}
	return false
}

// Customer is an organization or person in one tenant's CRM database.
// TenantID repeats the owning tenant as defense in depth; the database itself
// is already tenant-isolated.
type Customer struct {
	ID        uuid.UUID      `json:"id"`
	TenantID  uuid.UUID      `json:"tenantId"`
	Name      string         `json:"name"`
	Company   *string        `json:"company,omitempty"`
	Email     *string        `json:"email,omitempty"`
	Phone     *string        `json:"phone,omitempty"`
	Address   *string        `json:"address,omitempty"`
	Status    CustomerStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt *time.Time     `json:"updatedAt,omitempty"`
}

// Contact is a person attached to a customer.
type Contact struct {
	ID         uuid.UUID  `json:"id"`
	TenantID   uuid.UUID  `json:"tenantId"`
	CustomerID uuid.UUID  `json:"customerId"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      *string    `json:"email,omitempty"`
	Phone      *string    `json:"phone,omitempty"`
	Position   *string    `json:"position,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// Deal is a sales opportunity attached to a customer.
type Deal struct {
	ID                uuid.UUID  `json:"id"`
	TenantID          uuid.UUID  `json:"tenantId"`
	CustomerID        uuid.UUID  `json:"customerId"`
	Title             string     `json:"title"`
	Description       *string    `json:"description,omitempty"`
	Value             float64    `json:"value"`
	Stage             DealStage  `json:"stage"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}
