package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout = "2006-01-02"

	MaxDiscountRate = 0.03
)

var (
	ErrDateParse = errors.New("unparseable date")

	commission = decimal.NewFromFloat(1.05)
)

// now is replaced in tests.
var now = time.Now

// DateParseWarning is returned next to a usable fallback date.
type DateParseWarning struct {
	Input    string
	Fallback time.Time
}

func (w *DateParseWarning) Error() string {
	return fmt.Sprintf("could not parse date %q, using %s", w.Input, w.Fallback.Format(DateLayout))
}

func (w *DateParseWarning) Unwrap() error {
	return ErrDateParse
}

// ParseDate accepts YYYY-MM-DD with an optional time suffix.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i == len(DateLayout) {
		s = s[:i]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrDateParse, s)
	}
	return t, nil
}

// FormatDate renders the ISO date used everywhere in the ledger.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns the process date with the time stripped.
func Today() time.Time {
	y, m, d := now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDateOrToday never fails: on a bad input it returns today and a warning.
func ParseDateOrToday(s string) (time.Time, *DateParseWarning) {
	t, err := ParseDate(s)
	if err != nil {
		today := Today()
		return today, &DateParseWarning{Input: s, Fallback: today}
	}
	return t, nil
}

// LeadTimeDays maps an order quantity to supplier lead time.
func LeadTimeDays(quantity int) int {
	switch {
	case quantity <= 10:
		return 0
	case quantity <= 100:
		return 1
	case quantity <= 1000:
		return 4
	default:
		return 7
	}
}

// DeliveryDate adds the lead time to orderDate. A malformed orderDate is
// replaced by today and reported as a *DateParseWarning; the date returned
// is always usable.
func DeliveryDate(orderDate string, quantity int) (time.Time, error) {
	base, warn := ParseDateOrToday(orderDate)
	delivery := base.AddDate(0, 0, LeadTimeDays(quantity))
	if warn != nil {
		return delivery, warn
	}
	return delivery, nil
}

// ClampDiscount keeps rate within [0, MaxDiscountRate].
func ClampDiscount(rate float64) float64 {
	switch {
	case math.IsNaN(rate), rate < 0:
		return 0
	case rate > MaxDiscountRate:
		return MaxDiscountRate
	default:
		return rate
	}
}

// PriceWithCommissionAndDiscount applies the 5% commission and a loyalty
// discount, both on the base total. It returns the final price and the rate
// actually applied.
func PriceWithCommissionAndDiscount(base decimal.Decimal, rate float64) (decimal.Decimal, float64) {
	applied := ClampDiscount(rate)
	discount := base.Mul(decimal.NewFromFloat(applied))
	return base.Mul(commission).Sub(discount), applied
}

// BaseTotal is unit price times quantity.
func BaseTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
