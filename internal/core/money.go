// Package core provides money parsing and handling utilities.
//
// Amounts are entered in AED as free text. Parsing is lenient about the
// separators users type and strict about everything else.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered amount to a decimal.
//
// It accepts a dot decimal separator, thousands commas (1,500.50) and a
// trailing AED suffix. A single comma followed by one or two digits is
// treated as a decimal comma (12,5). Negative values are rejected.
//
// Examples:
//
//	ParseAmount("1,500")     -> 1500
//	ParseAmount("12,5")      -> 12.5
//	ParseAmount("200 AED")   -> 200
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "AED"))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if i := strings.LastIndex(s, ","); i >= 0 && !strings.Contains(s, ".") && strings.Count(s, ",") == 1 && len(s)-i-1 <= 2 {
		s = s[:i] + "." + s[i+1:]
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// SumAmounts adds every parsable value. Blank values count as zero; values
// that do not parse are skipped and counted.
func SumAmounts(values []string) (total decimal.Decimal, skipped int) {
	total = decimal.Zero
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		d, err := ParseAmount(v)
		if err != nil {
			skipped++
			continue
		}
		total = total.Add(d)
	}
	return total, skipped
}

// FormatAED renders an amount as "167,500 AED", keeping up to two decimals.
func FormatAED(d decimal.Decimal) string {
	return FormatNumber(d) + " AED"
}

// FormatNumber renders d with thousands separators and at most two decimals.
func FormatNumber(d decimal.Decimal) string {
	s := d.Round(2).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
