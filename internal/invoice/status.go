package invoice

import (
	"fmt"
	"slices"

	"github.com/MrJamesThe3rd/invoicebox/internal/actor"
)

// IllegalTransitionError is returned for a status change the state machine does not allow.
type IllegalTransitionError struct {
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %s to %s", e.From, e.To)
}

// transitions lists the legal targets per status. Paid and defaulted are terminal.
var transitions = map[Status][]Status{
	StatusPending: {StatusDefaulted, StatusOverdue, StatusPaid},
	StatusOverdue: {StatusPaid},
}

// NextLegalStatuses returns the statuses reachable from the given one.
func NextLegalStatuses(from Status) []Status {
	return slices.Clone(transitions[from])
}

func IsTerminal(s Status) bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// CheckTransition validates a status change against the state machine.
func CheckTransition(from, to Status) error {
	if !slices.Contains(transitions[from], to) {
		return &IllegalTransitionError{From: from, To: to}
	}

	return nil
}

// Settle returns the status an invoice takes once its balance is fully paid.
func Settle(from Status) (Status, error) {
	if err := CheckTransition(from, StatusPaid); err != nil {
		return from, err
	}

	return StatusPaid, nil
}

// Authorize reports whether the actor may explicitly move the invoice to the
// target status. Only the issuing provider drives explicit transitions.
func Authorize(a actor.Actor, inv *Invoice, _ Status) error {
	switch a := a.(type) {
	case actor.Provider:
		if inv.ProviderID != a.ID {
			return ErrForbidden
		}

		return nil
	case actor.Purchaser:
		return ErrForbidden
	case actor.Admin:
		return ErrForbidden
	}

	return ErrForbidden
}

// CanView reports whether the actor may read the invoice.
func CanView(a actor.Actor, inv *Invoice) bool {
	switch a := a.(type) {
	case actor.Provider:
		return inv.ProviderID == a.ID
	case actor.Purchaser:
		return inv.PurchaserID == a.ID
	case actor.Admin:
		return true
	}

	return false
}

// AllowedFor returns the explicit transitions the actor may perform on the invoice.
func AllowedFor(a actor.Actor, inv *Invoice) []Status {
	if Authorize(a, inv, "") != nil {
		return []Status{}
	}

	return NextLegalStatuses(inv.Status)
}
