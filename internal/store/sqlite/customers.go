package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/epic-events/crm/internal/crm"
)

// CustomerStore implements crm.CustomerStore.
type CustomerStore struct {
	db *sql.DB
}

const customerColumns = `id, full_name, email, phone, company, sales_contact_id, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (*crm.Customer, error) {
	var (
		c         crm.Customer
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.Company, &c.SalesContactID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, crm.ErrNotFound
		}
		return nil, err
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

func (s *CustomerStore) Create(ctx context.Context, c *crm.Customer) error {
	_, err := s.db.ExecContext(ctx, `
		insert into customers (`+customerColumns+`)
		values (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.FullName, c.Email, c.Phone, c.Company, c.SalesContactID,
		fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt),
	)
	return err
}

func (s *CustomerStore) Get(ctx context.Context, id string) (*crm.Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+customerColumns+` from customers where id = ?`, id)
	return scanCustomer(row)
}

func (s *CustomerStore) List(ctx context.Context) ([]crm.Customer, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+customerColumns+` from customers order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []crm.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (s *CustomerStore) Update(ctx context.Context, c *crm.Customer) error {
	res, err := s.db.ExecContext(ctx, `
		update customers set
			full_name = ?, email = ?, phone = ?, company = ?, updated_at = ?
		where id = ?`,
		c.FullName, c.Email, c.Phone, c.Company, fmtTime(c.UpdatedAt), c.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, c.ID)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", crm.ErrNotFound, id)
	}
	return nil
}
