package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoicebox/internal/actor"
	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
	"github.com/MrJamesThe3rd/invoicebox/internal/money"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=payment
type Repository interface {
	ListPayments(ctx context.Context, filter ListFilter) ([]*Payment, error)

	// BeginRecord opens a unit of work that is serialized per invoice.
	BeginRecord(ctx context.Context, invoiceID uuid.UUID) (RecordTx, error)
}

type RecordTx interface {
	LockInvoice(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error)
	ListInvoicePayments(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error)
	CreatePayment(ctx context.Context, p *Payment) error
	UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, from, to invoice.Status) error
	Commit() error
	Rollback() error
}

type InvoiceReader interface {
	Get(ctx context.Context, a actor.Actor, id uuid.UUID) (*invoice.Invoice, error)
}

type Service struct {
	repo     Repository
	invoices InvoiceReader
	now      func() time.Time
}

func NewService(repo Repository, invoices InvoiceReader) *Service {
	return &Service{repo: repo, invoices: invoices, now: time.Now}
}

type RecordParams struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
	// Currency defaults to the invoice currency when empty.
	Currency    money.Currency
	Method      Method
	Notes       string
	PaymentDate time.Time
	// Status defaults to completed when empty.
	Status Status
}

type ListFilter struct {
	InvoiceID   *uuid.UUID
	ProviderID  *uuid.UUID
	PurchaserID *uuid.UUID
}

type RecordResult struct {
	Payment *Payment
	Invoice *invoice.Invoice
	Balance Balance
	// Settled is true when this payment moved the invoice to paid.
	Settled bool
}

// Ledger is an invoice with its payment history.
type Ledger struct {
	Invoice  *invoice.Invoice
	Payments []*Payment
	Balance  Balance
}

func canRecord(a actor.Actor, inv *invoice.Invoice) error {
	switch a := a.(type) {
	case actor.Purchaser:
		if inv.PurchaserID != a.ID {
			return invoice.ErrNotFound
		}

		return nil
	case actor.Provider:
		if inv.ProviderID != a.ID {
			return invoice.ErrNotFound
		}

		return nil
	case actor.Admin:
		return ErrForbidden
	}

	return ErrForbidden
}

func (p RecordParams) validate() error {
	if !p.Method.IsValid() {
		return &invoice.ValidationError{Index: -1, Field: "payment_method", Reason: fmt.Sprintf("unsupported method %q", p.Method)}
	}

	if !p.Status.IsValid() {
		return &invoice.ValidationError{Index: -1, Field: "status", Reason: fmt.Sprintf("unsupported status %q", p.Status)}
	}

	if p.Currency != "" && !p.Currency.IsValid() {
		return &invoice.ValidationError{Index: -1, Field: "currency", Reason: fmt.Sprintf("unsupported currency %q", p.Currency)}
	}

	return nil
}

// Record appends a payment to an invoice. Validation, insertion and the
// settlement transition run in one transaction serialized per invoice, so two
// concurrent payments can never overdraw the remaining balance.
func (s *Service) Record(ctx context.Context, a actor.Actor, params RecordParams) (*RecordResult, error) {
	if _, ok := a.(actor.Admin); ok {
		return nil, ErrForbidden
	}

	if params.Status == "" {
		params.Status = StatusCompleted
	}

	if params.PaymentDate.IsZero() {
		params.PaymentDate = s.now()
	}

	if err := params.validate(); err != nil {
		return nil, err
	}

	rtx, err := s.repo.BeginRecord(ctx, params.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("begin record: %w", err)
	}
	defer rtx.Rollback()

	inv, err := rtx.LockInvoice(ctx, params.InvoiceID)
	if err != nil {
		return nil, err
	}

	if err := canRecord(a, inv); err != nil {
		return nil, err
	}

	if inv.Status == invoice.StatusDefaulted {
		return nil, ErrInvoiceClosed
	}

	currency := params.Currency
	if currency == "" {
		currency = inv.Currency
	}

	if currency != inv.Currency {
		return nil, &money.CurrencyMismatchError{Left: inv.Currency, Right: currency}
	}

	existing, err := rtx.ListInvoicePayments(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	amount := money.New(params.Amount, currency)

	if params.Status.Counts() {
		if _, err := ValidateNewPayment(inv, existing, amount); err != nil {
			return nil, err
		}
	} else if err := checkAmount(amount); err != nil {
		return nil, err
	}

	p := &Payment{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.Number,
		RecordedBy:    a.UserID(),
		Amount:        amount,
		Method:        params.Method,
		Notes:         strings.TrimSpace(params.Notes),
		PaymentDate:   params.PaymentDate,
		Status:        params.Status,
	}
	if err := rtx.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	balance, err := Reconcile(inv, append(existing, p))
	if err != nil {
		return nil, err
	}

	result := &RecordResult{Payment: p, Invoice: inv, Balance: balance}

	if balance.IsSettled() && inv.Status != invoice.StatusPaid {
		next, err := invoice.Settle(inv.Status)
		if err != nil {
			return nil, err
		}

		if err := rtx.UpdateInvoiceStatus(ctx, inv.ID, inv.Status, next); err != nil {
			return nil, fmt.Errorf("settle invoice: %w", err)
		}

		inv.Status = next
		result.Settled = true
	}

	if err := rtx.Commit(); err != nil {
		return nil, fmt.Errorf("commit record: %w", err)
	}

	return result, nil
}

// ListForInvoice returns the invoice ledger when the actor may see the invoice.
func (s *Service) ListForInvoice(ctx context.Context, a actor.Actor, invoiceID uuid.UUID) (*Ledger, error) {
	inv, err := s.invoices.Get(ctx, a, invoiceID)
	if err != nil {
		return nil, err
	}

	payments, err := s.repo.ListPayments(ctx, ListFilter{InvoiceID: &inv.ID})
	if err != nil {
		return nil, err
	}

	balance, err := Reconcile(inv, payments)
	if err != nil {
		return nil, err
	}

	return &Ledger{Invoice: inv, Payments: payments, Balance: balance}, nil
}

// ListMine returns payments made by a purchaser, received by a provider, or
// every payment for an admin.
func (s *Service) ListMine(ctx context.Context, a actor.Actor) ([]*Payment, error) {
	var filter ListFilter

	switch a := a.(type) {
	case actor.Purchaser:
		filter.PurchaserID = &a.ID
	case actor.Provider:
		filter.ProviderID = &a.ID
	case actor.Admin:
	default:
		return nil, ErrForbidden
	}

	return s.repo.ListPayments(ctx, filter)
}
