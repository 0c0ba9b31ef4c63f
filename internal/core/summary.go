package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event table filters.
const (
	FilterAll       = "all"
	FilterUpcoming  = "upcoming"
	FilterCompleted = "completed"
	FilterThisWeek  = "thisWeek"
	FilterLastWeek  = "lastWeek"
)

// StatCard is one headline metric of the dashboard.
type StatCard struct {
	Title     string
	Value     string
	Trend     int // percentage change versus the previous period
	Trendless bool
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// WeeklyPoint is a revenue/expense pair for the weekly chart.
type WeeklyPoint struct {
	Label    string
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
}

// Goal tracks progress toward a revenue target.
type Goal struct {
	Title    string
	Target   decimal.Decimal
	Achieved decimal.Decimal
}

// Percent returns the achieved share of the target, capped at 100.
func (g Goal) Percent() int {
	if !g.Target.IsPositive() {
		return 0
	}
	p := g.Achieved.Mul(decimal.NewFromInt(100)).Div(g.Target).IntPart()
	if p > 100 {
		return 100
	}
	return int(p)
}

// MonthlyPerformance is a row of the reports table.
type MonthlyPerformance struct {
	Month    string
	Events   int
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
}

// Profit is revenue minus expenses.
func (m MonthlyPerformance) Profit() decimal.Decimal {
	return m.Revenue.Sub(m.Expenses)
}

// ROI is profit over expenses as a whole percentage, truncated.
func (m MonthlyPerformance) ROI() int64 {
	if !m.Expenses.IsPositive() {
		return 0
	}
	return m.Profit().Mul(decimal.NewFromInt(100)).Div(m.Expenses).IntPart()
}

// DashboardSnapshot bundles the data shown on the dashboard.
type DashboardSnapshot struct {
	Totals     Totals
	Weekly     []WeeklyPoint
	Categories []CategoryAmount
	Goal       Goal
}

// Totals are the raw figures behind the stat cards.
type Totals struct {
	Revenue   decimal.Decimal
	Expenses  decimal.Decimal
	EventsRun int
	Trends    map[string]int
}

// Cards renders the totals as the dashboard's stat cards.
func (t Totals) Cards() []StatCard {
	profit := t.Revenue.Sub(t.Expenses)
	roi := int64(0)
	if t.Expenses.IsPositive() {
		roi = profit.Mul(decimal.NewFromInt(100)).Div(t.Expenses).IntPart()
	}
	perEvent := func(d decimal.Decimal) decimal.Decimal {
		if t.EventsRun == 0 {
			return decimal.Zero
		}
		return d.Div(decimal.NewFromInt(int64(t.EventsRun))).RoundBank(0)
	}
	return []StatCard{
		{Title: "Total Revenue", Value: FormatAED(t.Revenue), Trend: t.Trends["revenue"]},
		{Title: "Total Expenses", Value: FormatAED(t.Expenses), Trend: t.Trends["expenses"]},
		{Title: "Net Profit", Value: FormatAED(profit), Trend: t.Trends["profit"]},
		{Title: "ROI", Value: decimal.NewFromInt(roi).String() + "%", Trend: t.Trends["roi"]},
		{Title: "Events Run", Value: decimal.NewFromInt(int64(t.EventsRun)).String(), Trendless: true},
		{Title: "Avg. Revenue per Event", Value: FormatAED(perEvent(t.Revenue)), Trend: t.Trends["avgRevenue"]},
		{Title: "Avg. Profit per Event", Value: FormatAED(perEvent(profit)), Trend: t.Trends["avgProfit"]},
		{Title: "Avg. Expenses per Event", Value: FormatAED(perEvent(t.Expenses)), Trend: t.Trends["avgExpenses"]},
	}
}

// FilterEvents returns the events matching filter, relative to now.
// Weeks start on Monday. Unknown filters behave like FilterAll.
func FilterEvents(events []Event, filter string, now time.Time) []Event {
	weekStart := startOfWeek(now)
	out := make([]Event, 0, len(events))
	for _, e := range events {
		keep := true
		switch filter {
		case FilterUpcoming:
			keep = e.Status(now) == StatusUpcoming
		case FilterCompleted:
			keep = e.Status(now) == StatusCompleted
		case FilterThisWeek:
			keep = inRange(e.Date, weekStart, weekStart.AddDate(0, 0, 7))
		case FilterLastWeek:
			keep = inRange(e.Date, weekStart.AddDate(0, 0, -7), weekStart)
		}
		if keep {
			out = append(out, e)
		}
	}
	return out
}

func startOfWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func inRange(d Date, from, to time.Time) bool {
	if d.IsZero() {
		return false
	}
	return !d.Before(from) && d.Before(to)
}
