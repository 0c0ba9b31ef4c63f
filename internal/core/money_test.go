package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.5", "1.5", true},
		{"12,5", "12.5", true},
		{"1,500", "1500", true},
		{"1,500.25", "1500.25", true},
		{" 200 AED ", "200", true},
		{"0", "0", true},
		{"-1", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestSumAmounts(t *testing.T) {
	total, skipped := SumAmounts([]string{"100", "", "2,50", "lots", "1,000"})
	if !total.Equal(decimal.RequireFromString("1102.5")) {
		t.Fatalf("expected 1102.5, got %s", total)
	}
	if skipped != 1 {
		t.Fatalf("expected 1 skipped value, got %d", skipped)
	}
}

func TestFormatAED(t *testing.T) {
	cases := map[string]string{
		"167500":  "167,500 AED",
		"999":     "999 AED",
		"1000.5":  "1,000.5 AED",
		"-86320":  "-86,320 AED",
		"1234567": "1,234,567 AED",
	}
	for in, want := range cases {
		if got := FormatAED(decimal.RequireFromString(in)); got != want {
			t.Fatalf("%s: expected %q, got %q", in, want, got)
		}
	}
}
