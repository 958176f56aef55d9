package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
	invoicestore "github.com/MrJamesThe3rd/invoicebox/internal/invoice/store"
	"github.com/MrJamesThe3rd/invoicebox/internal/money"
	"github.com/MrJamesThe3rd/invoicebox/internal/payment"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// scanPayment reads a payment row.
// Expected column order: id, invoice_id, invoice_number, recorded_by, amount, currency, method, notes, payment_date, status, created_at
func scanPayment(s scanner) (*payment.Payment, error) {
	var p payment.Payment

	var amount decimal.Decimal

	var currency, method, status string

	var notes sql.NullString

	if err := s.Scan(
		&p.ID, &p.InvoiceID, &p.InvoiceNumber, &p.RecordedBy, &amount, &currency,
		&method, &notes, &p.PaymentDate, &status, &p.CreatedAt,
	); err != nil {
		return nil, err
	}

	p.Amount = money.New(amount, money.Currency(currency))
	p.Method = payment.Method(method)
	p.Notes = notes.String
	p.Status = payment.Status(status)

	return &p, nil
}

const selectPaymentColumns = `
	p.id, p.invoice_id, i.number AS invoice_number, p.recorded_by, p.amount, p.currency,
	p.method, p.notes, p.payment_date, p.status, p.created_at
`

const fromPayments = `
	FROM payments p
	JOIN invoices i ON p.invoice_id = i.id
`

func listPayments(ctx context.Context, q invoicestore.Querier, filter payment.ListFilter) ([]*payment.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + fromPayments + `WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.InvoiceID != nil {
		query += fmt.Sprintf(" AND p.invoice_id = $%d", argIdx)

		args = append(args, *filter.InvoiceID)
		argIdx++
	}

	if filter.ProviderID != nil {
		query += fmt.Sprintf(" AND i.provider_id = $%d", argIdx)

		args = append(args, *filter.ProviderID)
		argIdx++
	}

	if filter.PurchaserID != nil {
		query += fmt.Sprintf(" AND i.purchaser_id = $%d", argIdx)

		args = append(args, *filter.PurchaserID)
	}

	query += " ORDER BY p.payment_date ASC, p.created_at ASC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}

		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payment rows: %w", err)
	}

	return payments, nil
}

func (s *Store) ListPayments(ctx context.Context, filter payment.ListFilter) ([]*payment.Payment, error) {
	return listPayments(ctx, s.db, filter)
}

func recordLockKey(invoiceID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("payment:"))
	h.Write(invoiceID[:])

	return int64(h.Sum64())
}

type recordTx struct {
	tx *sql.Tx
}

// BeginRecord starts a transaction holding the advisory lock of the invoice,
// so payments against the same invoice are recorded one at a time.
func (s *Store) BeginRecord(ctx context.Context, invoiceID uuid.UUID) (payment.RecordTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning record tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", recordLockKey(invoiceID)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring record lock: %w", err)
	}

	return &recordTx{tx: dbTx}, nil
}

func (rtx *recordTx) Commit() error   { return rtx.tx.Commit() }
func (rtx *recordTx) Rollback() error { return rtx.tx.Rollback() }

func (rtx *recordTx) LockInvoice(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	return invoicestore.GetForUpdate(ctx, rtx.tx, id)
}

func (rtx *recordTx) ListInvoicePayments(ctx context.Context, invoiceID uuid.UUID) ([]*payment.Payment, error) {
	return listPayments(ctx, rtx.tx, payment.ListFilter{InvoiceID: &invoiceID})
}

func (rtx *recordTx) CreatePayment(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (invoice_id, recorded_by, amount, currency, method, notes, payment_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err := rtx.tx.QueryRowContext(ctx, query,
		p.InvoiceID,
		p.RecordedBy,
		p.Amount.Amount(),
		p.Amount.Currency(),
		p.Method,
		sql.NullString{String: p.Notes, Valid: p.Notes != ""},
		p.PaymentDate,
		p.Status,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating payment: %w", err)
	}

	return nil
}

func (rtx *recordTx) UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, from, to invoice.Status) error {
	return invoicestore.UpdateStatus(ctx, rtx.tx, id, from, to)
}
