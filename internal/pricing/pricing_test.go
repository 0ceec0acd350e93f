package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadTimeDays(t *testing.T) {
	tests := []struct {
		qty  int
		want int
	}{
		{0, 0}, {10, 0}, {11, 1}, {100, 1}, {101, 4}, {1000, 4}, {1001, 7}, {50000, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LeadTimeDays(tt.qty), "qty=%d", tt.qty)
	}
}

func TestDeliveryDate(t *testing.T) {
	t.Run("iso date", func(t *testing.T) {
		d, err := DeliveryDate("2025-04-01", 2000)
		require.NoError(t, err)
		assert.Equal(t, "2025-04-08", FormatDate(d))
	})

	t.Run("timestamp suffix", func(t *testing.T) {
		d, err := DeliveryDate("2025-04-01T09:30:00", 50)
		require.NoError(t, err)
		assert.Equal(t, "2025-04-02", FormatDate(d))
	})

	t.Run("malformed date falls back to today", func(t *testing.T) {
		restore := now
		now = func() time.Time { return time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC) }
		defer func() { now = restore }()

		d, err := DeliveryDate("next tuesday", 500)
		require.Error(t, err)

		var warn *DateParseWarning
		require.True(t, errors.As(err, &warn))
		assert.ErrorIs(t, err, ErrDateParse)
		assert.Equal(t, "next tuesday", warn.Input)
		assert.Equal(t, "2025-06-14", FormatDate(d))
	})
}

func TestPriceWithCommissionAndDiscount(t *testing.T) {
	base := decimal.RequireFromString("2.50") // 50 sheets of A4 at 0.05

	tests := []struct {
		name        string
		rate        float64
		wantFinal   string
		wantApplied float64
	}{
		{"no discount", 0, "2.625", 0},
		{"max discount", 0.03, "2.55", 0.03},
		{"clamped above", 0.2, "2.55", 0.03},
		{"clamped below", -0.5, "2.625", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			final, applied := PriceWithCommissionAndDiscount(base, tt.rate)
			assert.True(t, final.Equal(decimal.RequireFromString(tt.wantFinal)), "got %s", final)
			assert.InDelta(t, tt.wantApplied, applied, 1e-12)
		})
	}
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("2025-13-01")
	assert.ErrorIs(t, err, ErrDateParse)

	d, err := ParseDate(" 2025-01-31 ")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-31", FormatDate(d))
}
