package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/epic-events/crm/internal/auth"
)

// UserStore implements auth.CredentialStore and crm.UserStore.
type UserStore struct {
	db *sql.DB
}

const userColumns = `id, username, email, full_name, password_hash, role, active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*auth.User, error) {
	var (
		u         auth.User
		role      string
		active    int64
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &role, &active, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	u.Role = auth.Role(role)
	u.Active = active != 0
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return &u, nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where username = ?`, username)
	return scanUser(row)
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = ?`, id)
	return scanUser(row)
}

func (s *UserStore) AllActiveUsers(ctx context.Context) ([]auth.User, error) {
	return s.list(ctx, `select `+userColumns+` from users where active = 1 order by username`)
}

func (s *UserStore) List(ctx context.Context, includeInactive bool) ([]auth.User, error) {
	if includeInactive {
		return s.list(ctx, `select `+userColumns+` from users order by username`)
	}
	return s.AllActiveUsers(ctx)
}

func (s *UserStore) list(ctx context.Context, query string) ([]auth.User, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Save inserts or replaces a user record by id.
func (s *UserStore) Save(ctx context.Context, u *auth.User) error {
	active := 0
	if u.Active {
		active = 1
	}
	_, err := s.db.ExecContext(ctx, `
		insert into users (`+userColumns+`)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?)
		on conflict(id) do update set
			username = excluded.username,
			email = excluded.email,
			full_name = excluded.full_name,
			password_hash = excluded.password_hash,
			role = excluded.role,
			active = excluded.active,
			updated_at = excluded.updated_at`,
		u.ID, u.Username, u.Email, u.FullName, u.PasswordHash,
		u.Role.String(), active, fmtTime(u.CreatedAt), fmtTime(u.UpdatedAt),
	)
	return err
}
