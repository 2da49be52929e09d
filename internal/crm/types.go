// Package crm holds the business entities and the guarded services that
// operate on them. Every data-mutating operation passes through the
// access guard chain before touching a store.
package crm

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound     = errors.New("crm: not found")
	ErrInvalidInput = errors.New("crm: invalid input")
	ErrConflict     = errors.New("crm: resource conflict")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateInput(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// Customer is a client company contact owned by a commercial
// collaborator.
type Customer struct {
	ID             string    `json:"id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Company        string    `json:"company,omitempty"`
	SalesContactID string    `json:"sales_contact_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Contract ties a customer to an engagement with payment tracking.
// Amounts are in cents.
type Contract struct {
	ID             string    `json:"id"`
	CustomerID     string    `json:"customer_id"`
	SalesContactID string    `json:"sales_contact_id"`
	TotalAmount    int64     `json:"total_amount"`
	AmountDue      int64     `json:"amount_due"`
	Signed         bool      `json:"signed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Event is a planned occasion for a signed contract, optionally assigned
// to a support collaborator.
type Event struct {
	ID               string    `json:"id"`
	ContractID       string    `json:"contract_id"`
	CustomerID       string    `json:"customer_id"`
	SupportContactID string    `json:"support_contact_id,omitempty"`
	Name             string    `json:"name"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	Location         string    `json:"location,omitempty"`
	Attendees        int       `json:"attendees"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
