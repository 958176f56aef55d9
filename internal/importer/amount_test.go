package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAmount(t *testing.T) {
	type testCase struct {
		in       string
		european bool
		want     string
	}

	tests := []testCase{
		{in: "12.50", want: "12.50"},
		{in: "1,234.56", want: "1234.56"},
		{in: "1.234,56", want: "1234.56"},
		{in: "10,5", want: "10.5"},
		{in: "1,234", want: "1234"},
		{in: "1,234,567", want: "1234567"},
		{in: "$ 1,200.00", want: "1200.00"},
		{in: "-3,00", want: "-3.00"},
		{in: "3", want: "3"},
		{in: "1.234", european: true, want: "1234"},
		{in: "12.50", european: true, want: "12.50"},
		{in: "1.234.567,8", european: true, want: "1234567.8"},
		{in: "25,000", european: true, want: "25.000"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAmount(tt.in, tt.european))
		})
	}
}
