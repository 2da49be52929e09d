package crm

import (
	"context"

	"github.com/epic-events/crm/internal/auth"
)

// UserStore extends the credential store with directory operations used
// by user management.
type UserStore interface {
	auth.CredentialStore
	FindByID(ctx context.Context, id string) (*auth.User, error)
	List(ctx context.Context, includeInactive bool) ([]auth.User, error)
}

// CustomerStore persists customers.
type CustomerStore interface {
	Create(ctx context.Context, c *Customer) error
	Get(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
	Update(ctx context.Context, c *Customer) error
}

// ContractFilter narrows contract listings.
type ContractFilter struct {
	UnsignedOnly bool
	UnpaidOnly   bool
}

// IsZero reports whether the filter selects everything.
func (f ContractFilter) IsZero() bool { return !f.UnsignedOnly && !f.UnpaidOnly }

// ContractStore persists contracts.
type ContractStore interface {
	Create(ctx context.Context, c *Contract) error
	Get(ctx context.Context, id string) (*Contract, error)
	List(ctx context.Context, filter ContractFilter) ([]Contract, error)
	Update(ctx context.Context, c *Contract) error
}

// EventFilter narrows event listings.
type EventFilter struct {
	UnassignedOnly   bool
	SupportContactID string
}

// IsZero reports whether the filter selects everything.
func (f EventFilter) IsZero() bool { return !f.UnassignedOnly && f.SupportContactID == "" }

// EventStore persists events.
type EventStore interface {
	Create(ctx context.Context, e *Event) error
	Get(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter EventFilter) ([]Event, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id string) error
}
