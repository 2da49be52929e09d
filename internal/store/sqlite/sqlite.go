// Package sqlite implements the credential and CRM stores on an embedded
// SQLite database, which fits the single-user terminal deployment model.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
create table if not exists users (
	id            text primary key,
	username      text not null unique,
	email         text not null,
	full_name     text not null,
	password_hash text not null,
	role          text not null,
	active        integer not null default 1,
	created_at    text not null,
	updated_at    text not null
);

create table if not exists customers (
	id               text primary key,
	full_name        text not null,
	email            text not null,
	phone            text not null default '',
	company          text not null default '',
	sales_contact_id text not null references users(id),
	created_at       text not null,
	updated_at       text not null
);

create table if not exists contracts (
	id               text primary key,
	customer_id      text not null references customers(id),
	sales_contact_id text not null references users(id),
	total_amount     integer not null,
	amount_due       integer not null,
	signed           integer not null default 0,
	created_at       text not null,
	updated_at       text not null
);

create table if not exists events (
	id                 text primary key,
	contract_id        text not null references contracts(id),
	customer_id        text not null references customers(id),
	support_contact_id text,
	name               text not null,
	start_at           text not null,
	end_at             text not null,
	location           text not null default '',
	attendees          integer not null default 0,
	notes              text not null default '',
	created_at         text not null,
	updated_at         text not null
);
`

// Open opens (and creates if needed) the database file at path with
// foreign keys enforced.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The CRM is a single-process client; one writer avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return db, nil
}

// Store bundles every persistence interface over one database handle.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the schema when absent.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Users returns the user store view.
func (s *Store) Users() *UserStore { return &UserStore{db: s.db} }

// Customers returns the customer store view.
func (s *Store) Customers() *CustomerStore { return &CustomerStore{db: s.db} }

// Contracts returns the contract store view.
func (s *Store) Contracts() *ContractStore { return &ContractStore{db: s.db} }

// Events returns the event store view.
func (s *Store) Events() *EventStore { return &EventStore{db: s.db} }

// Timestamps are stored as RFC 3339 text so they stay readable in the
// file and portable across drivers.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
