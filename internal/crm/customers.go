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

// CustomerService manages customers. Commercial collaborators own the
// customers they create and may only update their own.
type CustomerService struct {
	authn *auth.Authenticator
	store CustomerStore
	users UserStore
	now   func() time.Time
}

// NewCustomerService constructs a CustomerService.
func NewCustomerService(authn *auth.Authenticator, store CustomerStore, users UserStore) (*CustomerService, error) {
	if authn == nil || store == nil || users == nil {
		return nil, errors.New("crm: authenticator, customer store and user store are required")
	}
	return &CustomerService{authn: authn, store: store, users: users, now: time.Now}, nil
}

// CustomerInput describes a customer to create.
type CustomerInput struct {
	FullName string `validate:"required"`
	Email    string `validate:"required,email"`
	Phone    string `validate:"omitempty,min=5"`
	Company  string
	// SalesContactID is required for non-commercial callers; commercial
	// callers always become the sales contact themselves.
	SalesContactID string
}

// Create registers a customer. The sales contact must hold a role that is
// allowed to create customers.
func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*Customer, error) {
	ctx, id, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermCustomerCreate))
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	salesContactID := strings.TrimSpace(in.SalesContactID)
	if id.Role() == auth.RoleCommercial || salesContactID == "" {
		salesContactID = id.User.ID
	}
	if err := s.checkSalesContact(ctx, salesContactID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	customer := &Customer{
		ID:             ids.New(),
		FullName:       strings.TrimSpace(in.FullName),
		Email:          strings.TrimSpace(strings.ToLower(in.Email)),
		Phone:          strings.TrimSpace(in.Phone),
		Company:        strings.TrimSpace(in.Company),
		SalesContactID: salesContactID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, customer); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "customer.created", map[string]any{
		"customer_id": customer.ID,
		"email":       customer.Email,
	})
	return customer, nil
}

// CustomerUpdate describes a partial customer update. Nil fields are
// unchanged.
type CustomerUpdate struct {
	FullName *string
	Email    *string
	Phone    *string
	Company  *string
}

// Update modifies a customer. A commercial caller may only touch
// customers they are the sales contact for.
func (s *CustomerService) Update(ctx context.Context, customerID string, upd CustomerUpdate) (*Customer, error) {
	ctx, id, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermCustomerUpdate))
	if err != nil {
		return nil, err
	}
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", ErrInvalidInput)
	}
	customer, err := s.store.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if id.Role() == auth.RoleCommercial && customer.SalesContactID != id.User.ID {
		return nil, fmt.Errorf("%w: customer belongs to another sales contact", auth.ErrForbidden)
	}

	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		if name == "" {
			return nil, fmt.Errorf("%w: full name is required", ErrInvalidInput)
		}
		customer.FullName = name
	}
	if upd.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*upd.Email))
		if err := validate.Var(email, "required,email"); err != nil {
			return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
		}
		customer.Email = email
	}
	if upd.Phone != nil {
		customer.Phone = strings.TrimSpace(*upd.Phone)
	}
	if upd.Company != nil {
		customer.Company = strings.TrimSpace(*upd.Company)
	}
	customer.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, customer); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "customer.updated", map[string]any{"customer_id": customer.ID})
	return customer, nil
}

// Get returns one customer. Every role holds the read permission.
func (s *CustomerService) Get(ctx context.Context, customerID string) (*Customer, error) {
	ctx, _, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermRead))
	if err != nil {
		return nil, err
	}
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", ErrInvalidInput)
	}
	return s.store.Get(ctx, customerID)
}

// List returns all customers.
func (s *CustomerService) List(ctx context.Context) ([]Customer, error) {
	ctx, _, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermRead))
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx)
}

func (s *CustomerService) checkSalesContact(ctx context.Context, userID string) error {
	contact, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return fmt.Errorf("%w: sales contact %s", ErrNotFound, userID)
		}
		return err
	}
	if !contact.Active {
		return fmt.Errorf("%w: sales contact %s is deactivated", ErrInvalidInput, contact.Username)
	}
	for _, role := range auth.RolesWith(auth.PermCustomerCreate) {
		if contact.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%w: %s cannot be a sales contact", ErrInvalidInput, contact.Username)
}
