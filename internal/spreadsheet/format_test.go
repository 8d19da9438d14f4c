package spreadsheet

import (
	"testing"

	"beneficiary-data/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"0":          "",
		"5":          "₱5.00",
		"1234.5":     "₱1,234.50",
		"1000000":    "₱1,000,000.00",
		"2500.456":   "₱2,500.46",
		"999.999":    "₱1,000.00",
		"0.5":        "₱0.50",
		"100":        "₱100.00",
		"-5":         "-₱5.00",
		"-1234567.8": "-₱1,234,567.80",

		"12345678901234567.89": "₱12,345,678,901,234,567.89",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatAmount(decimal.RequireFromString(in)), in)
	}
}

func TestFormatAmount_RoundTripsThroughParseAmount(t *testing.T) {
	for _, in := range []string{
		"1234.5",
		"-5",
		"9007199254740993.01",
		"12345678901234567.89",
		"98765432109876543210987654321.99",
	} {
		want := decimal.RequireFromString(in)
		got, err := domain.ParseAmount(FormatAmount(want))
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s came back as %s", in, got)
	}
}

func TestNormalizeBirthMonth(t *testing.T) {
	cases := map[string]string{
		"January":   "01",
		"december":  "12",
		"Sep":       "09",
		"3":         "03",
		"03":        "03",
		"12":        "12",
		"13":        "13",
		"Unknown":   "Unknown",
		"":          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeBirthMonth(in), in)
	}
}
