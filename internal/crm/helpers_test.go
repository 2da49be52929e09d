package crm

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/epic-events/crm/internal/auth"
)

// The fixtures below stand in for the sqlite layer so the services can be
// exercised against plain maps.

type fakeUsers struct {
	byID map[string]*auth.User
}

func newFakeUsers(users ...*auth.User) *fakeUsers {
	f := &fakeUsers{byID: make(map[string]*auth.User)}
	for _, u := range users {
		clone := *u
		f.byID[u.ID] = &clone
	}
	return f
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	for _, u := range f.byID {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUsers) AllActiveUsers(context.Context) ([]auth.User, error) {
	var out []auth.User
	for _, u := range f.byID {
		if u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) List(_ context.Context, includeInactive bool) ([]auth.User, error) {
	var out []auth.User
	for _, u := range f.byID {
		if u.Active || includeInactive {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeUsers) Save(_ context.Context, u *auth.User) error {
	clone := *u
	f.byID[u.ID] = &clone
	return nil
}

type fakeCustomers struct {
	byID map[string]*Customer
}

func newFakeCustomers(customers ...*Customer) *fakeCustomers {
	f := &fakeCustomers{byID: make(map[string]*Customer)}
	for _, c := range customers {
		clone := *c
		f.byID[c.ID] = &clone
	}
	return f
}

func (f *fakeCustomers) Create(_ context.Context, c *Customer) error {
	clone := *c
	f.byID[c.ID] = &clone
	return nil
}

func (f *fakeCustomers) Get(_ context.Context, id string) (*Customer, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (f *fakeCustomers) List(context.Context) ([]Customer, error) {
	var out []Customer
	for _, c := range f.byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCustomers) Update(_ context.Context, c *Customer) error {
	if _, ok := f.byID[c.ID]; !ok {
		return ErrNotFound
	}
	clone := *c
	f.byID[c.ID] = &clone
	return nil
}

type fakeContracts struct {
	byID map[string]*Contract
}

func newFakeContracts(contracts ...*Contract) *fakeContracts {
	f := &fakeContracts{byID: make(map[string]*Contract)}
	for _, c := range contracts {
		clone := *c
		f.byID[c.ID] = &clone
	}
	return f
}

func (f *fakeContracts) Create(_ context.Context, c *Contract) error {
	clone := *c
	f.byID[c.ID] = &clone
	return nil
}

func (f *fakeContracts) Get(_ context.Context, id string) (*Contract, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (f *fakeContracts) List(_ context.Context, filter ContractFilter) ([]Contract, error) {
	var out []Contract
	for _, c := range f.byID {
		if filter.UnsignedOnly && c.Signed {
			continue
		}
		if filter.UnpaidOnly && c.AmountDue == 0 {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeContracts) Update(_ context.Context, c *Contract) error {
	if _, ok := f.byID[c.ID]; !ok {
		return ErrNotFound
	}
	clone := *c
	f.byID[c.ID] = &clone
	return nil
}

type fakeEvents struct {
	byID map[string]*Event
}

func newFakeEvents(events ...*Event) *fakeEvents {
	f := &fakeEvents{byID: make(map[string]*Event)}
	for _, e := range events {
		clone := *e
		f.byID[e.ID] = &clone
	}
	return f
}

func (f *fakeEvents) Create(_ context.Context, e *Event) error {
	clone := *e
	f.byID[e.ID] = &clone
	return nil
}

func (f *fakeEvents) Get(_ context.Context, id string) (*Event, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *e
	return &clone, nil
}

func (f *fakeEvents) List(_ context.Context, filter EventFilter) ([]Event, error) {
	var out []Event
	for _, e := range f.byID {
		if filter.UnassignedOnly && e.SupportContactID != "" {
			continue
		}
		if filter.SupportContactID != "" && e.SupportContactID != filter.SupportContactID {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEvents) Update(_ context.Context, e *Event) error {
	if _, ok := f.byID[e.ID]; !ok {
		return ErrNotFound
	}
	clone := *e
	f.byID[e.ID] = &clone
	return nil
}

func (f *fakeEvents) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeSessions struct {
	token string
}

func (f *fakeSessions) Save(token string) error { f.token = token; return nil }
func (f *fakeSessions) Load() (string, error)   { return f.token, nil }
func (f *fakeSessions) Clear() error            { f.token = ""; return nil }

func account(id, username string, role auth.Role) *auth.User {
	return &auth.User{
		ID:       id,
		Username: username,
		Email:    username + "@epic-events.example",
		FullName: strings.ToUpper(username[:1]) + username[1:],
		Role:     role,
		Active:   true,
	}
}

// loggedIn builds an authenticator whose session already carries a valid
// token for the given account.
func loggedIn(t *testing.T, users *fakeUsers, actor *auth.User) *auth.Authenticator {
	t.Helper()
	codec, err := auth.NewCodec("crm-test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	token, _, err := codec.Encode(actor.Username, actor.Role, time.Hour)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	a, err := auth.NewAuthenticator(users, codec, &fakeSessions{token: token})
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	return a
}

// anonymous builds an authenticator with no session at all.
func anonymous(t *testing.T, users *fakeUsers) *auth.Authenticator {
	t.Helper()
	codec, err := auth.NewCodec("crm-test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	a, err := auth.NewAuthenticator(users, codec, &fakeSessions{})
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	return a
}
