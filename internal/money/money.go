package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency is an ISO 4217 code accepted on invoices.
type Currency string

const (
	USD Currency = "USD"
	UGX Currency = "UGX"
	LYD Currency = "LYD"
)

// DisplayPlaces is the number of decimal places amounts are rounded to for display.
const DisplayPlaces = 2

// Currencies lists the supported currencies in display order.
var Currencies = []Currency{USD, UGX, LYD}

// ParseCurrency validates a currency code.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(s)
	if !c.IsValid() {
		return "", fmt.Errorf("unsupported currency %q", s)
	}

	return c, nil
}

func (c Currency) IsValid() bool {
	switch c {
	case USD, UGX, LYD:
		return true
	}

	return false
}

func (c Currency) String() string { return string(c) }

// CurrencyMismatchError is returned by arithmetic between amounts in different currencies.
type CurrencyMismatchError struct {
	Left  Currency
	Right Currency
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("currency mismatch: %s and %s", e.Left, e.Right)
}

// Money is an immutable decimal amount tagged with a currency.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

func New(amount decimal.Decimal, c Currency) Money {
	return Money{amount: amount, currency: c}
}

// FromString parses a decimal amount such as "137.50".
func FromString(amount string, c Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("parsing amount %q: %w", amount, err)
	}

	return New(d, c), nil
}

func Zero(c Currency) Money {
	return Money{amount: decimal.Zero, currency: c}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsPositive() bool        { return m.amount.IsPositive() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return &CurrencyMismatchError{Left: m.currency, Right: other.currency}
	}

	return nil
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}

	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}

	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Cmp compares two amounts: -1 when m < other, 0 when equal, +1 when m > other.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}

	return m.amount.Cmp(other.amount), nil
}

func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

func (m Money) Round(places int32) Money {
	return Money{amount: m.amount.Round(places), currency: m.currency}
}

func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Display renders the amount rounded to two places, e.g. "137.50".
func (m Money) Display() string {
	return m.amount.StringFixed(DisplayPlaces)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.currency, m.Display())
}

// Format renders the amount with its currency symbol for the given language.
func (m Money) Format(tag language.Tag) string {
	unit, err := currency.ParseISO(string(m.currency))
	if err != nil {
		return m.String()
	}

	f, _ := m.amount.Round(DisplayPlaces).Float64()

	return message.NewPrinter(tag).Sprint(currency.Symbol(unit.Amount(f)))
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.Display(), Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	c, err := ParseCurrency(string(v.Currency))
	if err != nil {
		return err
	}

	parsed, err := FromString(v.Amount, c)
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}
