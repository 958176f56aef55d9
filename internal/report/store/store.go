package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
	"github.com/MrJamesThe3rd/invoicebox/internal/money"
	"github.com/MrJamesThe3rd/invoicebox/internal/user"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CountUsersByRole(ctx context.Context) (map[user.Role]int, error) {
	query := `SELECT role, COUNT(*) FROM users WHERE deleted_at IS NULL GROUP BY role`

	counts := map[user.Role]int{}

	err := s.scanGroups(ctx, query, func(rows *sql.Rows) error {
		var role string

		var n int

		if err := rows.Scan(&role, &n); err != nil {
			return err
		}

		counts[user.Role(role)] = n

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("counting users by role: %w", err)
	}

	return counts, nil
}

func (s *Store) CountInvoicesByStatus(ctx context.Context) (map[invoice.Status]int, error) {
	query := `SELECT status, COUNT(*) FROM invoices GROUP BY status`

	counts := map[invoice.Status]int{}

	err := s.scanGroups(ctx, query, func(rows *sql.Rows) error {
		var status string

		var n int

		if err := rows.Scan(&status, &n); err != nil {
			return err
		}

		counts[invoice.Status(status)] = n

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("counting invoices by status: %w", err)
	}

	return counts, nil
}

func (s *Store) RevenueByCurrency(ctx context.Context) (map[money.Currency]decimal.Decimal, error) {
	query := `SELECT currency, SUM(total) FROM invoices WHERE status = 'paid' GROUP BY currency`

	revenue := map[money.Currency]decimal.Decimal{}

	err := s.scanGroups(ctx, query, func(rows *sql.Rows) error {
		var currency string

		var total decimal.Decimal

		if err := rows.Scan(&currency, &total); err != nil {
			return err
		}

		revenue[money.Currency(currency)] = total

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("summing revenue: %w", err)
	}

	return revenue, nil
}

func (s *Store) scanGroups(ctx context.Context, query string, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}

	return rows.Err()
}
