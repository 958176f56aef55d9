package invoice

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/invoicebox/internal/money"
)

// TaxRate is the flat tax applied to every invoice subtotal.
var TaxRate = decimal.RequireFromString("0.10")

var maxQuantity = decimal.NewFromInt(math.MaxInt64)

// ValidationError identifies malformed invoice input. Index is the offending
// line item, or -1 when the problem is not tied to a single line.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}

	return fmt.Sprintf("item %d: %s %s", e.Index, e.Field, e.Reason)
}

// LineItem is one billable row as entered by the provider.
type LineItem struct {
	Description string
	Quantity    int64
	UnitPrice   decimal.Decimal
}

func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(li.Quantity))
}

func (li LineItem) validate(index int) error {
	if strings.TrimSpace(li.Description) == "" {
		return &ValidationError{Index: index, Field: "description", Reason: "must not be empty"}
	}

	if li.Quantity < 1 {
		return &ValidationError{Index: index, Field: "quantity", Reason: "must be at least 1"}
	}

	if li.UnitPrice.IsNegative() {
		return &ValidationError{Index: index, Field: "unit_price", Reason: "must not be negative"}
	}

	return nil
}

// Item is a stored line item with its computed total.
type Item struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// Totals is the result of ComputeTotals. All amounts are rounded to two places.
type Totals struct {
	Items    []Item
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals derives line totals, subtotal, tax and total from the items.
// Accumulation is exact; only the reported values are rounded.
func ComputeTotals(items []LineItem) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, &ValidationError{Index: -1, Field: "items", Reason: "at least one line item is required"}
	}

	computed := make([]Item, 0, len(items))
	sum := decimal.Zero

	for i, li := range items {
		if err := li.validate(i); err != nil {
			return Totals{}, err
		}

		lineTotal := li.LineTotal()
		sum = sum.Add(lineTotal)

		computed = append(computed, Item{
			Description: strings.TrimSpace(li.Description),
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Total:       lineTotal.Round(money.DisplayPlaces),
		})
	}

	subtotal := sum.Round(money.DisplayPlaces)
	tax := subtotal.Mul(TaxRate).Round(money.DisplayPlaces)

	return Totals{
		Items:    computed,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}, nil
}

// ParseLineItem coerces raw form or CSV values into a LineItem.
func ParseLineItem(index int, description, quantity, unitPrice string) (LineItem, error) {
	qty, err := decimal.NewFromString(strings.TrimSpace(quantity))
	if err != nil {
		return LineItem{}, &ValidationError{Index: index, Field: "quantity", Reason: "must be a number"}
	}

	if !qty.IsInteger() {
		return LineItem{}, &ValidationError{Index: index, Field: "quantity", Reason: "must be a whole number"}
	}

	if qty.GreaterThan(maxQuantity) {
		return LineItem{}, &ValidationError{Index: index, Field: "quantity", Reason: "is too large"}
	}

	price, err := decimal.NewFromString(strings.TrimSpace(unitPrice))
	if err != nil {
		return LineItem{}, &ValidationError{Index: index, Field: "unit_price", Reason: "must be a number"}
	}

	li := LineItem{
		Description: description,
		Quantity:    qty.IntPart(),
		UnitPrice:   price,
	}

	if err := li.validate(index); err != nil {
		return LineItem{}, err
	}

	return li, nil
}
