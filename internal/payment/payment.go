package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicebox/internal/money"
)

type Method string

const (
	MethodBankTransfer Method = "bank transfer"
	MethodCash         Method = "cash"
	MethodMobileMoney  Method = "mobile money"
	MethodCreditCard   Method = "credit card"
)

var Methods = []Method{MethodBankTransfer, MethodCash, MethodMobileMoney, MethodCreditCard}

func (m Method) IsValid() bool {
	switch m {
	case MethodBankTransfer, MethodCash, MethodMobileMoney, MethodCreditCard:
		return true
	}

	return false
}

// Status of a payment. Failed payments stay on record but never count toward the balance.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}

	return false
}

// Counts reports whether a payment in this status reduces the remaining balance.
func (s Status) Counts() bool {
	return s != StatusFailed
}

var (
	ErrNotFound      = errors.New("payment not found")
	ErrForbidden     = errors.New("not allowed to record payments")
	ErrInvoiceClosed = errors.New("invoice is defaulted and no longer accepts payments")
)

// InvalidAmountError is returned for a payment amount that is zero, negative
// or finer than the currency's minor unit.
type InvalidAmountError struct {
	Amount money.Money
}

func (e *InvalidAmountError) Error() string {
	if !e.Amount.IsPositive() {
		return fmt.Sprintf("payment amount must be greater than zero, got %s", e.Amount.Display())
	}

	return fmt.Sprintf("payment amount %s has more than %d decimal places", e.Amount.Amount(), money.DisplayPlaces)
}

// checkAmount accepts positive amounts expressed in whole minor units.
func checkAmount(m money.Money) error {
	if !m.IsPositive() || !m.Amount().Equal(m.Amount().Round(money.DisplayPlaces)) {
		return &InvalidAmountError{Amount: m}
	}

	return nil
}

// OverpaymentError is returned when a payment exceeds what is still owed.
type OverpaymentError struct {
	Proposed  money.Money
	Remaining money.Money
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %s exceeds remaining balance of %s", e.Proposed.Display(), e.Remaining.Display())
}

// Payment is an append-only record against one invoice.
type Payment struct {
	ID            uuid.UUID
	InvoiceID     uuid.UUID
	InvoiceNumber string
	RecordedBy    uuid.UUID
	Amount        money.Money
	Method        Method
	Notes         string
	PaymentDate   time.Time
	Status        Status
	CreatedAt     time.Time
}
