package cli

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"optionflow/internal/pricing"
)

// FormatFixed rounds v half away from zero to places decimals. NaN and
// infinities print as "NaN", "+Inf" and "-Inf".
func FormatFixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := decimal.NewFromFloat(v).StringFixed(places)
	if strings.Trim(s, "-0.") == "" {
		// Avoid "-0.00" for values that round to zero.
		s = strings.TrimPrefix(s, "-")
	}
	return s
}

// FormatMoney formats a dollar amount with two decimals.
func FormatMoney(v float64) string {
	s := FormatFixed(v, 2)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// FormatLoss formats a value lost as a negative dollar amount.
func FormatLoss(v float64) string {
	if FormatFixed(v, 2) == "0.00" {
		return "$0.00"
	}
	return "-" + FormatMoney(v)
}

// FormatPercent formats a 0-100 percentage with one decimal.
func FormatPercent(v float64) string {
	return FormatFixed(v, 1) + "%"
}

// FormatLossPercent formats a loss percentage with a leading minus.
func FormatLossPercent(v float64) string {
	s := FormatFixed(v, 1)
	if s == "0.0" {
		return "0.0%"
	}
	return "-" + s + "%"
}

// FormatRate formats a decimal rate (0.25) as a percentage (25.0%).
func FormatRate(v float64) string {
	return FormatFixed(v*100, 1) + "%"
}

// FormatDays converts years to whole calendar days.
func FormatDays(years float64) string {
	return decimal.NewFromFloat(years * pricing.DaysPerYear).Round(0).String()
}

// FormatSignedPercent formats a percentage with an explicit sign.
func FormatSignedPercent(v float64) string {
	s := FormatFixed(v, 2)
	if v > 0 && s != "0.00" {
		s = "+" + s
	}
	return s + "%"
}

// FormatDateTime formats a timestamp for tables.
func FormatDateTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// TruncateString shortens s to maxLen runes with an ellipsis.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
