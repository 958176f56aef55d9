package money_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/invoicebox/internal/money"
)

func TestMoney_Add(t *testing.T) {
	type testCase struct {
		name      string
		left      money.Money
		right     money.Money
		want      string
		wantErrAs bool
	}

	tests := []testCase{
		{
			name:  "SameCurrency",
			left:  money.New(decimal.RequireFromString("50.00"), money.USD),
			right: money.New(decimal.RequireFromString("87.50"), money.USD),
			want:  "137.50",
		},
		{
			name:      "CurrencyMismatch",
			left:      money.New(decimal.RequireFromString("1"), money.USD),
			right:     money.New(decimal.RequireFromString("1"), money.UGX),
			wantErrAs: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.left.Add(tt.right)

			if tt.wantErrAs {
				var mismatch *money.CurrencyMismatchError
				require.ErrorAs(t, err, &mismatch)
				assert.Equal(t, money.USD, mismatch.Left)
				assert.Equal(t, money.UGX, mismatch.Right)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Display())
		})
	}
}

func TestMoney_SubAndCmp(t *testing.T) {
	total := money.New(decimal.RequireFromString("100"), money.LYD)
	paid := money.New(decimal.RequireFromString("100.01"), money.LYD)

	remaining, err := total.Sub(paid)
	require.NoError(t, err)
	assert.True(t, remaining.IsNegative())

	cmp, err := paid.Cmp(total)
	require.NoError(t, err)
	assert.Equal(t, 1, cmp)

	_, err = paid.Cmp(money.Zero(money.USD))
	assert.Error(t, err)
}

func TestParseCurrency(t *testing.T) {
	for _, c := range money.Currencies {
		got, err := money.ParseCurrency(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := money.ParseCurrency("EUR")
	assert.Error(t, err)
}

func TestMoney_JSON(t *testing.T) {
	m := money.New(decimal.RequireFromString("12.5"), money.UGX)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"12.50","currency":"UGX"}`, string(data))

	var decoded money.Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equal(money.New(decimal.RequireFromString("12.50"), money.UGX)))

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"1","currency":"EUR"}`), &decoded))
}

func TestMoney_Round(t *testing.T) {
	m := money.New(decimal.RequireFromString("0.125"), money.USD)
	assert.Equal(t, "0.13", m.Round(2).Amount().String())
	assert.Equal(t, "USD 0.13", m.String())
}
