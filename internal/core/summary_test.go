package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTotalsCards(t *testing.T) {
	totals := Totals{
		Revenue:   decimal.NewFromInt(167500),
		Expenses:  decimal.NewFromInt(86320),
		EventsRun: 24,
		Trends:    map[string]int{"revenue": 12, "expenses": -8},
	}
	want := map[string]string{
		"Total Revenue":           "167,500 AED",
		"Total Expenses":          "86,320 AED",
		"Net Profit":              "81,180 AED",
		"ROI":                     "94%",
		"Events Run":              "24",
		"Avg. Revenue per Event":  "6,979 AED",
		"Avg. Profit per Event":   "3,382 AED",
		"Avg. Expenses per Event": "3,597 AED",
	}
	cards := totals.Cards()
	if len(cards) != len(want) {
		t.Fatalf("expected %d cards, got %d", len(want), len(cards))
	}
	for _, c := range cards {
		if c.Value != want[c.Title] {
			t.Fatalf("%s: expected %q, got %q", c.Title, want[c.Title], c.Value)
		}
	}
	if cards[0].Trend != 12 || cards[1].Trend != -8 {
		t.Fatalf("unexpected trends %d %d", cards[0].Trend, cards[1].Trend)
	}
}

func TestTotalsCardsNoEvents(t *testing.T) {
	for _, c := range (Totals{}).Cards() {
		if c.Value == "" {
			t.Fatalf("%s rendered empty", c.Title)
		}
	}
}

func TestMonthlyPerformanceROI(t *testing.T) {
	cases := []struct {
		revenue, expenses int64
		roi               int64
	}{
		{42000, 18000, 133},
		{38000, 17000, 123},
		{52000, 22000, 136},
		{46000, 19000, 142},
		{1000, 0, 0},
	}
	for _, tc := range cases {
		m := MonthlyPerformance{Revenue: decimal.NewFromInt(tc.revenue), Expenses: decimal.NewFromInt(tc.expenses)}
		if got := m.ROI(); got != tc.roi {
			t.Fatalf("%d/%d expected roi %d, got %d", tc.revenue, tc.expenses, tc.roi, got)
		}
	}
}

func TestGoalPercent(t *testing.T) {
	g := Goal{Target: decimal.NewFromInt(12000), Achieved: decimal.NewFromInt(7800)}
	if g.Percent() != 65 {
		t.Fatalf("expected 65, got %d", g.Percent())
	}
	g.Achieved = decimal.NewFromInt(20000)
	if g.Percent() != 100 {
		t.Fatalf("expected cap at 100, got %d", g.Percent())
	}
	if (Goal{}).Percent() != 0 {
		t.Fatalf("expected 0 for zero target")
	}
}

func TestFilterEvents(t *testing.T) {
	// Wednesday
	now := time.Date(2025, 4, 16, 10, 0, 0, 0, time.UTC)
	events := []Event{
		{ID: "1", Date: NewDate(2025, 4, 12)}, // last week, completed
		{ID: "2", Date: NewDate(2025, 4, 13)}, // last week (Sunday), completed
		{ID: "3", Date: NewDate(2025, 4, 19)}, // this week, upcoming
		{ID: "4", Date: NewDate(2025, 4, 20)}, // this week (Sunday), upcoming
		{ID: "5", Type: Weekly},               // no date, upcoming
	}
	cases := []struct {
		filter string
		ids    string
	}{
		{FilterAll, "12345"},
		{"", "12345"},
		{FilterCompleted, "12"},
		{FilterUpcoming, "345"},
		{FilterThisWeek, "34"},
		{FilterLastWeek, "12"},
	}
	for _, tc := range cases {
		got := ""
		for _, e := range FilterEvents(events, tc.filter, now) {
			got += e.ID
		}
		if got != tc.ids {
			t.Fatalf("filter %q: expected %s, got %s", tc.filter, tc.ids, got)
		}
	}
}
