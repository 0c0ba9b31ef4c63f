package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// isHTMX reports whether htmx issued the request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// percentOf scales part against max into 0..100 for bar widths.
// Non-zero values get at least 2 so they stay visible.
func percentOf(part, max decimal.Decimal) int {
	if !max.IsPositive() || !part.IsPositive() {
		return 0
	}
	p := int(part.Mul(decimal.NewFromInt(100)).Div(max).Round(0).IntPart())
	switch {
	case p < 2:
		return 2
	case p > 100:
		return 100
	}
	return p
}

// trendClass picks the badge style for a percentage change. For expense
// figures a drop is good news.
func trendClass(trend int, inverted bool) string {
	if inverted {
		trend = -trend
	}
	switch {
	case trend > 0:
		return "trend--up"
	case trend < 0:
		return "trend--down"
	}
	return "trend--flat"
}
