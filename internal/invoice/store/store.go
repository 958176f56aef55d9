package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
	"github.com/MrJamesThe3rd/invoicebox/internal/money"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Querier is satisfied by both *sql.DB and *sql.Tx, so the payment store can
// read and settle invoices inside its own transaction.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanInvoice reads an invoice row.
// Expected column order: id, number, provider_id, purchaser_id, provider_name, purchaser_name,
// items, currency, subtotal, tax, total, due_date, status, created_at, updated_at
func scanInvoice(s scanner) (*invoice.Invoice, error) {
	var inv invoice.Invoice

	var currency, status string

	var items []byte

	var subtotal, tax, total decimal.Decimal

	if err := s.Scan(
		&inv.ID, &inv.Number, &inv.ProviderID, &inv.PurchaserID, &inv.ProviderName, &inv.PurchaserName,
		&items, &currency, &subtotal, &tax, &total, &inv.DueDate, &status,
		&inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &inv.Items); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}

	inv.Currency = money.Currency(currency)
	inv.Subtotal = money.New(subtotal, inv.Currency)
	inv.Tax = money.New(tax, inv.Currency)
	inv.Total = money.New(total, inv.Currency)
	inv.Status = invoice.Status(status)

	return &inv, nil
}

const selectInvoiceColumns = `
	i.id, i.number, i.provider_id, i.purchaser_id, p.name AS provider_name, c.name AS purchaser_name,
	i.items, i.currency, i.subtotal, i.tax, i.total, i.due_date, i.status, i.created_at, i.updated_at
`

const fromInvoices = `
	FROM invoices i
	JOIN users p ON i.provider_id = p.id
	JOIN users c ON i.purchaser_id = c.id
`

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("encoding items: %w", err)
	}

	query := `
		INSERT INTO invoices (number, provider_id, purchaser_id, items, currency, subtotal, tax, total, due_date, status, created_at, updated_at)
		VALUES ('INV-' || LPAD(nextval('invoice_number_seq')::text, 6, '0'), $1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id, number, created_at, updated_at,
			(SELECT name FROM users WHERE id = invoices.provider_id),
			(SELECT name FROM users WHERE id = invoices.purchaser_id)
	`

	err = s.db.QueryRowContext(ctx, query,
		inv.ProviderID,
		inv.PurchaserID,
		string(items),
		inv.Currency,
		inv.Subtotal.Amount(),
		inv.Tax.Amount(),
		inv.Total.Amount(),
		inv.DueDate,
		inv.Status,
	).Scan(&inv.ID, &inv.Number, &inv.CreatedAt, &inv.UpdatedAt, &inv.ProviderName, &inv.PurchaserName)
	if err != nil {
		return fmt.Errorf("creating invoice: %w", err)
	}

	return nil
}

func (s *Store) GetInvoice(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	return get(ctx, s.db, id, false)
}

// GetForUpdate reads the invoice and locks its row until the surrounding
// transaction ends.
func GetForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*invoice.Invoice, error) {
	return get(ctx, q, id, true)
}

func get(ctx context.Context, q Querier, id uuid.UUID, forUpdate bool) (*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + fromInvoices + `WHERE i.id = $1`
	if forUpdate {
		query += ` FOR UPDATE OF i`
	}

	inv, err := scanInvoice(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invoice.ErrNotFound
		}

		return nil, fmt.Errorf("getting invoice: %w", err)
	}

	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + fromInvoices + `WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.ProviderID != nil {
		query += fmt.Sprintf(" AND i.provider_id = $%d", argIdx)

		args = append(args, *filter.ProviderID)
		argIdx++
	}

	if filter.PurchaserID != nil {
		query += fmt.Sprintf(" AND i.purchaser_id = $%d", argIdx)

		args = append(args, *filter.PurchaserID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND i.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.DueBefore != nil {
		query += fmt.Sprintf(" AND i.due_date < $%d", argIdx)

		args = append(args, *filter.DueBefore)
	}

	query += " ORDER BY i.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*invoice.Invoice

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}

		invoices = append(invoices, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoice rows: %w", err)
	}

	return invoices, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, from, to invoice.Status) error {
	return UpdateStatus(ctx, s.db, id, from, to)
}

// UpdateStatus is a compare-and-set on the invoice status. When no row
// matches, it tells a missing invoice apart from a concurrent change.
func UpdateStatus(ctx context.Context, q Querier, id uuid.UUID, from, to invoice.Status) error {
	query := `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	res, err := q.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("updating invoice status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating invoice status: %w", err)
	}

	if n > 0 {
		return nil
	}

	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking invoice: %w", err)
	}

	if !exists {
		return invoice.ErrNotFound
	}

	return invoice.ErrStatusConflict
}
