package importer_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/invoicebox/internal/importer"
	"github.com/MrJamesThe3rd/invoicebox/internal/invoice"
)

func TestParser_Parse(t *testing.T) {
	type testCase struct {
		name          string
		content       []byte
		wantProfile   string
		wantDelimiter string
		wantCharset   string
		wantItems     []invoice.LineItem
	}

	tests := []testCase{
		{
			name: "StandardComma",
			content: []byte(`description,quantity,unit price
Consulting,2,50.00
Setup,1,25
`),
			wantProfile:   "standard",
			wantDelimiter: ",",
			wantCharset:   "UTF-8",
			wantItems: []invoice.LineItem{
				{Description: "Consulting", Quantity: 2, UnitPrice: decimal.RequireFromString("50")},
				{Description: "Setup", Quantity: 1, UnitPrice: decimal.RequireFromString("25")},
			},
		},
		{
			name: "ShortSemicolonWithPreamble",
			content: []byte(`Acme Ltd;October
Item;Qty;Price;Total
Hosting;3;"1.234,50";3703,50

Domain;1;12,00;12,00
`),
			wantProfile:   "short",
			wantDelimiter: ";",
			wantCharset:   "UTF-8",
			wantItems: []invoice.LineItem{
				{Description: "Hosting", Quantity: 3, UnitPrice: decimal.RequireFromString("1234.50")},
				{Description: "Domain", Quantity: 1, UnitPrice: decimal.RequireFromString("12")},
			},
		},
		{
			name: "EuropeanLatin1",
			// "Descrição;Quantidade;Preço unitário\nManutenção;2;1.500\n" in Windows-1252.
			content: append(append(append(
				[]byte("Descri\xe7\xe3o;Quantidade;Pre\xe7o unit\xe1rio\n"),
				[]byte("Manuten\xe7\xe3o;2;1.500\n")...),
				[]byte("Pe\xe7as;4;7,25\n")...),
				[]byte{}...),
			wantProfile:   "european",
			wantDelimiter: ";",
			wantCharset:   "windows-1252",
			wantItems: []invoice.LineItem{
				{Description: "Manutenção", Quantity: 2, UnitPrice: decimal.RequireFromString("1500")},
				{Description: "Peças", Quantity: 4, UnitPrice: decimal.RequireFromString("7.25")},
			},
		},
		{
			name: "HeaderSpellingAndOrder",
			content: []byte(`Unit_Price,Description,QUANTITY
9.99,Widget,5
`),
			wantProfile:   "standard",
			wantDelimiter: ",",
			wantCharset:   "UTF-8",
			wantItems: []invoice.LineItem{
				{Description: "Widget", Quantity: 5, UnitPrice: decimal.RequireFromString("9.99")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := importer.NewParser().Parse(bytes.NewReader(tt.content))
			require.NoError(t, err)

			assert.Equal(t, tt.wantProfile, got.Profile)
			assert.Equal(t, tt.wantDelimiter, got.Delimiter)
			assert.Equal(t, tt.wantCharset, got.Charset)
			require.Len(t, got.Items, len(tt.wantItems))

			for i, want := range tt.wantItems {
				assert.Equal(t, want.Description, got.Items[i].Description)
				assert.Equal(t, want.Quantity, got.Items[i].Quantity)
				assert.True(t, want.UnitPrice.Equal(got.Items[i].UnitPrice), "item %d price %s", i, got.Items[i].UnitPrice)
			}
		})
	}
}

func TestParser_NoHeader(t *testing.T) {
	_, err := importer.NewParser().Parse(strings.NewReader("foo,bar\n1,2\n"))
	assert.ErrorIs(t, err, importer.ErrNoHeader)
}

func TestParser_InvalidRow(t *testing.T) {
	_, err := importer.NewParser().Parse(strings.NewReader("description,quantity,unit price\nOk,1,1\nBad,0,1\n"))

	var verr *invoice.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, verr.Index)
	assert.Equal(t, "quantity", verr.Field)
}

func TestParser_QuantityOverflow(t *testing.T) {
	_, err := importer.NewService().Preview(strings.NewReader("description,quantity,unit price\nHuge,18446744073709551617,1\n"))

	var verr *invoice.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, verr.Index)
	assert.Equal(t, "quantity", verr.Field)
}

func TestService_Preview(t *testing.T) {
	got, err := importer.NewService().Preview(strings.NewReader("description,quantity,unit price\nConsulting,2,50\nSetup,1,25\n"))
	require.NoError(t, err)

	assert.Equal(t, "125.00", got.Totals.Subtotal.StringFixed(2))
	assert.Equal(t, "12.50", got.Totals.Tax.StringFixed(2))
	assert.Equal(t, "137.50", got.Totals.Total.StringFixed(2))
}

func TestService_Preview_HeaderOnly(t *testing.T) {
	_, err := importer.NewService().Preview(strings.NewReader("description,quantity,unit price\n"))

	var verr *invoice.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items", verr.Field)
}
