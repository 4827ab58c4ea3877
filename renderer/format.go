package renderer

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// NA is displayed in place of a missing value.
const NA = "N/A"

const usd = "USD"

var hundred = decimal.NewFromInt(100)

// Dollars formats an amount of US dollars, like "$1,234.50".
func Dollars(amount decimal.Decimal) string {
	// to get a never nil currency I need to call the Money constructor
	cur := *money.New(0, usd).Currency()
	cents := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(cents.IntPart())
}

// ExpenseRatio formats a fraction as a percentage with 3 decimals.
func ExpenseRatio(er *decimal.Decimal) string {
	if er == nil {
		return NA
	}
	return er.Mul(hundred).StringFixed(3) + "%"
}

// Weight formats a weight already in percentage points.
func Weight(w decimal.Decimal) string {
	return w.StringFixed(2) + "%"
}

// Fraction formats a fraction (0..1) as a percentage with 2 decimals.
func Fraction(f decimal.Decimal) string {
	if f.IsZero() {
		return NA
	}
	return f.Mul(hundred).StringFixed(2) + "%"
}

// DividendAmount formats a dividend per share.
func DividendAmount(amount decimal.Decimal) string {
	if amount.IsZero() {
		return NA
	}
	return "$" + amount.StringFixed(3)
}

// Date formats an ISO date as "Mar 15, 2024", unknown formats are kept as is.
func Date(s string) string {
	if s == "" {
		return NA
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return s
}
