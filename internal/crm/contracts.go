package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/epic-events/crm/internal/audit"
	"github.com/epic-events/crm/internal/auth"
	"github.com/epic-events/crm/internal/ids"
)

// ContractService manages contracts and their payment state.
type ContractService struct {
	authn     *auth.Authenticator
	store     ContractStore
	customers CustomerStore
	now       func() time.Time
}

// NewContractService constructs a ContractService.
func NewContractService(authn *auth.Authenticator, store ContractStore, customers CustomerStore) (*ContractService, error) {
	if authn == nil || store == nil || customers == nil {
		return nil, errors.New("crm: authenticator, contract store and customer store are required")
	}
	return &ContractService{authn: authn, store: store, customers: customers, now: time.Now}, nil
}

// ContractInput describes a contract to create.
type ContractInput struct {
	CustomerID  string `validate:"required"`
	TotalAmount int64  `validate:"gt=0"`
}

// Create opens an unsigned contract for an existing customer. The sales
// contact is inherited from the customer.
func (s *ContractService) Create(ctx context.Context, in ContractInput) (*Contract, error) {
	ctx, _, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermContractCreate))
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	customer, err := s.customers.Get(ctx, strings.TrimSpace(in.CustomerID))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	contract := &Contract{
		ID:             ids.New(),
		CustomerID:     customer.ID,
		SalesContactID: customer.SalesContactID,
		TotalAmount:    in.TotalAmount,
		AmountDue:      in.TotalAmount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, contract); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "contract.created", map[string]any{
		"contract_id": contract.ID,
		"customer_id": contract.CustomerID,
		"total":       contract.TotalAmount,
	})
	return contract, nil
}

// ContractUpdate describes a partial contract update. Nil fields are
// unchanged.
type ContractUpdate struct {
	TotalAmount *int64
	AmountDue   *int64
}

// Update modifies contract amounts. A commercial caller may only touch
// contracts of customers they own.
func (s *ContractService) Update(ctx context.Context, contractID string, upd ContractUpdate) (*Contract, error) {
	ctx, id, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermContractUpdate))
	if err != nil {
		return nil, err
	}
	contract, err := s.ownedContract(ctx, id, contractID)
	if err != nil {
		return nil, err
	}

	if upd.TotalAmount != nil {
		if *upd.TotalAmount <= 0 {
			return nil, fmt.Errorf("%w: total amount must be positive", ErrInvalidInput)
		}
		contract.TotalAmount = *upd.TotalAmount
	}
	if upd.AmountDue != nil {
		if *upd.AmountDue < 0 || *upd.AmountDue > contract.TotalAmount {
			return nil, fmt.Errorf("%w: amount due must stay within the total", ErrInvalidInput)
		}
		contract.AmountDue = *upd.AmountDue
	}
	contract.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, contract); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "contract.updated", map[string]any{"contract_id": contract.ID})
	return contract, nil
}

// Sign marks a contract as signed. Signing twice is a conflict.
func (s *ContractService) Sign(ctx context.Context, contractID string) (*Contract, error) {
	ctx, id, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermContractSign))
	if err != nil {
		return nil, err
	}
	contract, err := s.ownedContract(ctx, id, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Signed {
		return nil, fmt.Errorf("%w: contract %s is already signed", ErrConflict, contract.ID)
	}
	contract.Signed = true
	contract.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, contract); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "contract.signed", map[string]any{
		"contract_id": contract.ID,
		"customer_id": contract.CustomerID,
	})
	return contract, nil
}

// RecordPayment decrements the amount due. Overpayment is rejected and
// the due amount never goes below zero.
func (s *ContractService) RecordPayment(ctx context.Context, contractID string, amount int64) (*Contract, error) {
	ctx, id, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermContractPayment))
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrInvalidInput)
	}
	contract, err := s.ownedContract(ctx, id, contractID)
	if err != nil {
		return nil, err
	}
	if amount > contract.AmountDue {
		return nil, fmt.Errorf("%w: payment exceeds the %d due", ErrInvalidInput, contract.AmountDue)
	}
	contract.AmountDue -= amount
	contract.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, contract); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "contract.payment", map[string]any{
		"contract_id": contract.ID,
		"amount":      amount,
		"due":         contract.AmountDue,
	})
	return contract, nil
}

// Get returns one contract.
func (s *ContractService) Get(ctx context.Context, contractID string) (*Contract, error) {
	ctx, _, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermRead))
	if err != nil {
		return nil, err
	}
	contractID = strings.TrimSpace(contractID)
	if contractID == "" {
		return nil, fmt.Errorf("%w: contract id is required", ErrInvalidInput)
	}
	return s.store.Get(ctx, contractID)
}

// List returns contracts. Plain listings only need read access; filtered
// listings require the contract filter permission.
func (s *ContractService) List(ctx context.Context, filter ContractFilter) ([]Contract, error) {
	guard := auth.RequirePermission(auth.PermRead)
	if !filter.IsZero() {
		guard = auth.RequirePermission(auth.PermContractFilter)
	}
	ctx, _, err := s.authn.Protect(ctx, guard)
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, filter)
}

func (s *ContractService) ownedContract(ctx context.Context, id auth.Identity, contractID string) (*Contract, error) {
	contractID = strings.TrimSpace(contractID)
	if contractID == "" {
		return nil, fmt.Errorf("%w: contract id is required", ErrInvalidInput)
	}
	contract, err := s.store.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if id.Role() == auth.RoleCommercial && contract.SalesContactID != id.User.ID {
		return nil, fmt.Errorf("%w: contract belongs to another sales contact", auth.ErrForbidden)
	}
	return contract, nil
}
