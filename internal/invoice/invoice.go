package invoice

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicebox/internal/money"
)

// Status represents the lifecycle state of an invoice.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusDefaulted Status = "defaulted"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusPaid, StatusOverdue, StatusDefaulted}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue, StatusDefaulted:
		return true
	}

	return false
}

var (
	ErrNotFound       = errors.New("invoice not found")
	ErrForbidden      = errors.New("not allowed to act on this invoice")
	ErrStatusConflict = errors.New("invoice status changed concurrently")
)

// Invoice is issued by a provider to a purchaser. Users are referenced by ID;
// the names are loaded via JOIN for display only.
type Invoice struct {
	ID            uuid.UUID
	Number        string
	ProviderID    uuid.UUID
	PurchaserID   uuid.UUID
	ProviderName  string
	PurchaserName string
	Items         []Item
	Currency      money.Currency
	Subtotal      money.Money
	Tax           money.Money
	Total         money.Money
	DueDate       time.Time
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// IsParty reports whether the user is the provider or the purchaser of the invoice.
func (inv *Invoice) IsParty(userID uuid.UUID) bool {
	return inv.ProviderID == userID || inv.PurchaserID == userID
}
