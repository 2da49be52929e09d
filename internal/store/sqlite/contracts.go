package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/epic-events/crm/internal/crm"
)

// ContractStore implements crm.ContractStore.
type ContractStore struct {
	db *sql.DB
}

const contractColumns = `id, customer_id, sales_contact_id, total_amount, amount_due, signed, created_at, updated_at`

func scanContract(row interface{ Scan(...any) error }) (*crm.Contract, error) {
	var (
		c         crm.Contract
		signed    int64
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&c.ID, &c.CustomerID, &c.SalesContactID, &c.TotalAmount, &c.AmountDue, &signed, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, crm.ErrNotFound
		}
		return nil, err
	}
	c.Signed = signed != 0
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

func (s *ContractStore) Create(ctx context.Context, c *crm.Contract) error {
	signed := 0
	if c.Signed {
		signed = 1
	}
	_, err := s.db.ExecContext(ctx, `
		insert into contracts (`+contractColumns+`)
		values (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CustomerID, c.SalesContactID, c.TotalAmount, c.AmountDue, signed,
		fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt),
	)
	return err
}

func (s *ContractStore) Get(ctx context.Context, id string) (*crm.Contract, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+contractColumns+` from contracts where id = ?`, id)
	return scanContract(row)
}

func (s *ContractStore) List(ctx context.Context, filter crm.ContractFilter) ([]crm.Contract, error) {
	query := `select ` + contractColumns + ` from contracts`
	var clauses []string
	if filter.UnsignedOnly {
		clauses = append(clauses, `signed = 0`)
	}
	if filter.UnpaidOnly {
		clauses = append(clauses, `amount_due > 0`)
	}
	for i, clause := range clauses {
		if i == 0 {
			query += ` where ` + clause
		} else {
			query += ` and ` + clause
		}
	}
	query += ` order by created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []crm.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, *c)
	}
	return contracts, rows.Err()
}

func (s *ContractStore) Update(ctx context.Context, c *crm.Contract) error {
	signed := 0
	if c.Signed {
		signed = 1
	}
	res, err := s.db.ExecContext(ctx, `
		update contracts set
			total_amount = ?, amount_due = ?, signed = ?, updated_at = ?
		where id = ?`,
		c.TotalAmount, c.AmountDue, signed, fmtTime(c.UpdatedAt), c.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, c.ID)
}
