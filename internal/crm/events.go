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

// EventService manages events. Events only exist for signed contracts;
// support collaborators may update the events assigned to them.
type EventService struct {
	authn     *auth.Authenticator
	store     EventStore
	contracts ContractStore
	users     UserStore
	now       func() time.Time
}

// NewEventService constructs an EventService.
func NewEventService(authn *auth.Authenticator, store EventStore, contracts ContractStore, users UserStore) (*EventService, error) {
	if authn == nil || store == nil || contracts == nil || users == nil {
		return nil, errors.New("crm: authenticator, event store, contract store and user store are required")
	}
	return &EventService{authn: authn, store: store, contracts: contracts, users: users, now: time.Now}, nil
}

// EventInput describes an event to create.
type EventInput struct {
	ContractID string    `validate:"required"`
	Name       string    `validate:"required"`
	Start      time.Time `validate:"required"`
	End        time.Time `validate:"required"`
	Location   string
	Attendees  int `validate:"gte=0"`
	Notes      string
}

// Create schedules an event for a signed contract. A commercial caller
// may only schedule events for their own contracts.
func (s *EventService) Create(ctx context.Context, in EventInput) (*Event, error) {
	ctx, id, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermEventCreate))
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !in.End.After(in.Start) {
		return nil, fmt.Errorf("%w: event must end after it starts", ErrInvalidInput)
	}

	contract, err := s.contracts.Get(ctx, strings.TrimSpace(in.ContractID))
	if err != nil {
		return nil, err
	}
	if !contract.Signed {
		return nil, fmt.Errorf("%w: contract %s is not signed", ErrInvalidInput, contract.ID)
	}
	if id.Role() == auth.RoleCommercial && contract.SalesContactID != id.User.ID {
		return nil, fmt.Errorf("%w: contract belongs to another sales contact", auth.ErrForbidden)
	}

	now := s.now().UTC()
	event := &Event{
		ID:         ids.New(),
		ContractID: contract.ID,
		CustomerID: contract.CustomerID,
		Name:       strings.TrimSpace(in.Name),
		Start:      in.Start.UTC(),
		End:        in.End.UTC(),
		Location:   strings.TrimSpace(in.Location),
		Attendees:  in.Attendees,
		Notes:      strings.TrimSpace(in.Notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Create(ctx, event); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "event.created", map[string]any{
		"event_id":    event.ID,
		"contract_id": event.ContractID,
	})
	return event, nil
}

// EventUpdate describes a partial event update. Nil fields are unchanged.
type EventUpdate struct {
	Name      *string
	Start     *time.Time
	End       *time.Time
	Location  *string
	Attendees *int
	Notes     *string
}

// Update modifies an event. A support caller may only touch events
// assigned to them.
func (s *EventService) Update(ctx context.Context, eventID string, upd EventUpdate) (*Event, error) {
	ctx, id, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermEventUpdate))
	if err != nil {
		return nil, err
	}
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if id.Role() == auth.RoleSupport && event.SupportContactID != id.User.ID {
		return nil, fmt.Errorf("%w: event is assigned to another support contact", auth.ErrForbidden)
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: event name is required", ErrInvalidInput)
		}
		event.Name = name
	}
	if upd.Start != nil {
		event.Start = upd.Start.UTC()
	}
	if upd.End != nil {
		event.End = upd.End.UTC()
	}
	if !event.End.After(event.Start) {
		return nil, fmt.Errorf("%w: event must end after it starts", ErrInvalidInput)
	}
	if upd.Location != nil {
		event.Location = strings.TrimSpace(*upd.Location)
	}
	if upd.Attendees != nil {
		if *upd.Attendees < 0 {
			return nil, fmt.Errorf("%w: attendees cannot be negative", ErrInvalidInput)
		}
		event.Attendees = *upd.Attendees
	}
	if upd.Notes != nil {
		event.Notes = strings.TrimSpace(*upd.Notes)
	}
	event.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, event); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "event.updated", map[string]any{"event_id": event.ID})
	return event, nil
}

// AssignSupport sets the support contact of an event. The assignee must
// hold a role eligible for event support duty.
func (s *EventService) AssignSupport(ctx context.Context, eventID, supportUsername string) (*Event, error) {
	ctx, _, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermEventAssign))
	if err != nil {
		return nil, err
	}
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	supportUsername = strings.TrimSpace(strings.ToLower(supportUsername))
	contact, err := s.users.FindByUsername(ctx, supportUsername)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, supportUsername)
		}
		return nil, err
	}
	if !contact.Active {
		return nil, fmt.Errorf("%w: %s is deactivated", ErrInvalidInput, contact.Username)
	}
	eligible := false
	for _, role := range auth.RolesWith(auth.PermEventSupport) {
		if contact.Role == role {
			eligible = true
			break
		}
	}
	if !eligible {
		return nil, fmt.Errorf("%w: %s cannot take support duty", ErrInvalidInput, contact.Username)
	}

	event.SupportContactID = contact.ID
	event.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, event); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "event.support_assigned", map[string]any{
		"event_id": event.ID,
		"support":  contact.Username,
	})
	return event, nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, eventID string) error {
	ctx, _, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermEventDelete))
	if err != nil {
		return err
	}
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, event.ID); err != nil {
		return err
	}
	_ = audit.LogEvent(ctx, "event.deleted", map[string]any{"event_id": event.ID})
	return nil
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, eventID string) (*Event, error) {
	ctx, _, err := s.authn.Protect(ctx, auth.RequirePermission(auth.PermRead))
	if err != nil {
		return nil, err
	}
	return s.getEvent(ctx, eventID)
}

// List returns events. Plain listings only need read access; filtered
// listings require the event filter permission.
func (s *EventService) List(ctx context.Context, filter EventFilter) ([]Event, error) {
	guard := auth.RequirePermission(auth.PermRead)
	if !filter.IsZero() {
		guard = auth.RequirePermission(auth.PermEventFilter)
	}
	ctx, _, err := s.authn.Protect(ctx, guard)
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, filter)
}

func (s *EventService) getEvent(ctx context.Context, eventID string) (*Event, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", ErrInvalidInput)
	}
	return s.store.Get(ctx, eventID)
}
