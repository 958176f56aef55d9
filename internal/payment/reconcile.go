package payment

import (
	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
	"github.com/MrJamesThe3rd/invoicebox/internal/money"
)

// Balance is the ledger position of an invoice. AmountPaid + Remaining always equals Total.
type Balance struct {
	Total      money.Money `json:"total"`
	AmountPaid money.Money `json:"amount_paid"`
	Remaining  money.Money `json:"remaining"`
}

func (b Balance) IsSettled() bool {
	return b.Remaining.IsZero()
}

// Reconcile sums the payments that count toward the invoice total.
func Reconcile(inv *invoice.Invoice, payments []*Payment) (Balance, error) {
	paid := money.Zero(inv.Currency)

	for _, p := range payments {
		if !p.Status.Counts() {
			continue
		}

		sum, err := paid.Add(p.Amount)
		if err != nil {
			return Balance{}, err
		}

		paid = sum
	}

	remaining, err := inv.Total.Sub(paid)
	if err != nil {
		return Balance{}, err
	}

	return Balance{Total: inv.Total, AmountPaid: paid, Remaining: remaining}, nil
}

// ValidateNewPayment checks a proposed amount against the invoice balance
// before it is recorded and returns that balance.
func ValidateNewPayment(inv *invoice.Invoice, existing []*Payment, proposed money.Money) (Balance, error) {
	balance, err := Reconcile(inv, existing)
	if err != nil {
		return Balance{}, err
	}

	if err := checkAmount(proposed); err != nil {
		return balance, err
	}

	cmp, err := proposed.Cmp(balance.Remaining)
	if err != nil {
		return balance, err
	}

	if cmp > 0 {
		return balance, &OverpaymentError{Proposed: proposed, Remaining: balance.Remaining}
	}

	return balance, nil
}
