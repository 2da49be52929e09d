package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/epic-events/crm/internal/crm"
)

// EventStore implements crm.EventStore.
type EventStore struct {
	db *sql.DB
}

const eventColumns = `id, contract_id, customer_id, support_contact_id, name, start_at, end_at, location, attendees, notes, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*crm.Event, error) {
	var (
		e         crm.Event
		support   sql.NullString
		startAt   string
		endAt     string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&e.ID, &e.ContractID, &e.CustomerID, &support, &e.Name, &startAt, &endAt, &e.Location, &e.Attendees, &e.Notes, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, crm.ErrNotFound
		}
		return nil, err
	}
	e.SupportContactID = support.String
	e.Start = parseTime(startAt)
	e.End = parseTime(endAt)
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return &e, nil
}

func supportValue(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func (s *EventStore) Create(ctx context.Context, e *crm.Event) error {
	_, err := s.db.ExecContext(ctx, `
		insert into events (`+eventColumns+`)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ContractID, e.CustomerID, supportValue(e.SupportContactID), e.Name,
		fmtTime(e.Start), fmtTime(e.End), e.Location, e.Attendees, e.Notes,
		fmtTime(e.CreatedAt), fmtTime(e.UpdatedAt),
	)
	return err
}

func (s *EventStore) Get(ctx context.Context, id string) (*crm.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+eventColumns+` from events where id = ?`, id)
	return scanEvent(row)
}

func (s *EventStore) List(ctx context.Context, filter crm.EventFilter) ([]crm.Event, error) {
	query := `select ` + eventColumns + ` from events`
	var args []any
	switch {
	case filter.UnassignedOnly:
		query += ` where support_contact_id is null`
	case filter.SupportContactID != "":
		query += ` where support_contact_id = ?`
		args = append(args, filter.SupportContactID)
	}
	query += ` order by start_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []crm.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *EventStore) Update(ctx context.Context, e *crm.Event) error {
	res, err := s.db.ExecContext(ctx, `
		update events set
			support_contact_id = ?, name = ?, start_at = ?, end_at = ?,
			location = ?, attendees = ?, notes = ?, updated_at = ?
		where id = ?`,
		supportValue(e.SupportContactID), e.Name, fmtTime(e.Start), fmtTime(e.End),
		e.Location, e.Attendees, e.Notes, fmtTime(e.UpdatedAt), e.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, e.ID)
}

func (s *EventStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from events where id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}
