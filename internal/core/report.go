package core

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Expense categories of the dashboard breakdown.
const (
	CategoryPromoters   = "Promoters"
	CategoryStaff       = "Staff"
	CategoryAdvertising = "Advertising"
	CategoryCommissions = "Commissions"
)

// Figures are the money amounts carried by one submission.
type Figures struct {
	Revenue     decimal.Decimal
	Promoters   decimal.Decimal
	Staff       decimal.Decimal
	Advertising decimal.Decimal
	Commissions decimal.Decimal
}

// Expenses sums every expense category.
func (f Figures) Expenses() decimal.Decimal {
	return f.Promoters.Add(f.Staff).Add(f.Advertising).Add(f.Commissions)
}

func (f Figures) add(o Figures) Figures {
	return Figures{
		Revenue:     f.Revenue.Add(o.Revenue),
		Promoters:   f.Promoters.Add(o.Promoters),
		Staff:       f.Staff.Add(o.Staff),
		Advertising: f.Advertising.Add(o.Advertising),
		Commissions: f.Commissions.Add(o.Commissions),
	}
}

// Figures extracts the amounts of s. Unparsable values count as zero.
func (s Submission) Figures() Figures {
	amount := func(values ...string) decimal.Decimal {
		total, _ := SumAmounts(values)
		return total
	}
	f := Figures{}
	switch s.Kind {
	case KindEventData:
		f.Revenue = amount(s.Fields["revenue"], s.Fields["entranceRevenue"])
		f.Advertising = amount(s.Fields["adSpend"])
		f.Commissions = amount(s.Fields["tableCommissions"], s.Fields["vipCommissions"])
	default:
		f.Revenue = amount(s.Fields["netRevenue"], s.Fields["entranceRevenue"])
		f.Commissions = amount(s.Fields["netCommission"])
	}
	for _, p := range s.Promoters {
		f.Promoters = f.Promoters.Add(amount(p.Payment))
	}
	for _, m := range s.Staff {
		f.Staff = f.Staff.Add(amount(m.Payment))
	}
	for _, c := range s.TableCommissions {
		f.Commissions = f.Commissions.Add(amount(c.Amount))
	}
	for _, a := range s.AdCampaigns {
		f.Advertising = f.Advertising.Add(amount(a.Amount))
	}
	return f
}

// Day returns the date the submission refers to, falling back to its
// creation time.
func (s Submission) Day() time.Time {
	if d, err := ParseDate(s.Date()); err == nil {
		return d.Time
	}
	return s.CreatedAt
}

// Summarize derives the dashboard from recorded submissions. Trends
// compare the month of now with the previous month.
func Summarize(subs []Submission, now time.Time, goal decimal.Decimal) DashboardSnapshot {
	var all, cur, prev Figures
	events := map[string]bool{}
	curEvents, prevEvents := map[string]bool{}, map[string]bool{}

	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	for _, s := range subs {
		f := s.Figures()
		all = all.add(f)
		events[s.EventID] = true
		day := s.Day()
		switch {
		case !day.Before(thisMonth) && day.Before(thisMonth.AddDate(0, 1, 0)):
			cur = cur.add(f)
			curEvents[s.EventID] = true
		case !day.Before(lastMonth) && day.Before(thisMonth):
			prev = prev.add(f)
			prevEvents[s.EventID] = true
		}
	}

	perEvent := func(d decimal.Decimal, n int) decimal.Decimal {
		if n == 0 {
			return decimal.Zero
		}
		return d.Div(decimal.NewFromInt(int64(n)))
	}
	curProfit, prevProfit := cur.Revenue.Sub(cur.Expenses()), prev.Revenue.Sub(prev.Expenses())

	return DashboardSnapshot{
		Totals: Totals{
			Revenue:   all.Revenue,
			Expenses:  all.Expenses(),
			EventsRun: len(events),
			Trends: map[string]int{
				"revenue":     Trend(cur.Revenue, prev.Revenue),
				"expenses":    Trend(cur.Expenses(), prev.Expenses()),
				"profit":      Trend(curProfit, prevProfit),
				"roi":         Trend(ratio(curProfit, cur.Expenses()), ratio(prevProfit, prev.Expenses())),
				"avgRevenue":  Trend(perEvent(cur.Revenue, len(curEvents)), perEvent(prev.Revenue, len(prevEvents))),
				"avgProfit":   Trend(perEvent(curProfit, len(curEvents)), perEvent(prevProfit, len(prevEvents))),
				"avgExpenses": Trend(perEvent(cur.Expenses(), len(curEvents)), perEvent(prev.Expenses(), len(prevEvents))),
			},
		},
		Weekly: weekly(subs, now, 5),
		Categories: []CategoryAmount{
			{Name: CategoryPromoters, Amount: all.Promoters},
			{Name: CategoryStaff, Amount: all.Staff},
			{Name: CategoryAdvertising, Amount: all.Advertising},
			{Name: CategoryCommissions, Amount: all.Commissions},
		},
		Goal: Goal{Title: "This Month's Revenue Goal", Target: goal, Achieved: cur.Revenue},
	}
}

// Trend is the whole percentage change from prev to cur. A zero
// previous value has no trend.
func Trend(cur, prev decimal.Decimal) int {
	if prev.IsZero() {
		return 0
	}
	return int(cur.Sub(prev).Mul(decimal.NewFromInt(100)).Div(prev.Abs()).IntPart())
}

func ratio(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// weekly buckets revenue and expenses into the n weeks ending with the
// week of now.
func weekly(subs []Submission, now time.Time, n int) []WeeklyPoint {
	first := startOfWeek(now).AddDate(0, 0, -7*(n-1))
	points := make([]WeeklyPoint, n)
	for i := range points {
		points[i] = WeeklyPoint{Label: fmt.Sprintf("Week %d", i+1), Revenue: decimal.Zero, Expenses: decimal.Zero}
	}
	for _, s := range subs {
		day := s.Day()
		if day.Before(first) {
			continue
		}
		i := int(day.Sub(first).Hours() / (24 * 7))
		if i >= n {
			continue
		}
		f := s.Figures()
		points[i].Revenue = points[i].Revenue.Add(f.Revenue)
		points[i].Expenses = points[i].Expenses.Add(f.Expenses())
	}
	return points
}

// ByMonth groups submissions of year by month, in calendar order. Months
// without submissions are omitted.
func ByMonth(subs []Submission, year int) []MonthlyPerformance {
	type bucket struct {
		figures Figures
		events  map[string]bool
	}
	buckets := map[time.Month]*bucket{}
	for _, s := range subs {
		day := s.Day()
		if day.Year() != year {
			continue
		}
		b, ok := buckets[day.Month()]
		if !ok {
			b = &bucket{events: map[string]bool{}}
			buckets[day.Month()] = b
		}
		b.figures = b.figures.add(s.Figures())
		b.events[s.EventID] = true
	}

	months := make([]time.Month, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	slices.Sort(months)

	out := make([]MonthlyPerformance, 0, len(months))
	for _, m := range months {
		b := buckets[m]
		out = append(out, MonthlyPerformance{
			Month:    m.String(),
			Events:   len(b.events),
			Revenue:  b.figures.Revenue,
			Expenses: b.figures.Expenses(),
		})
	}
	return out
}

// WithProfits fills each event's Profit from the submissions recorded
// against it. Events without submissions keep their stored profit.
func WithProfits(events []Event, subs []Submission) []Event {
	byEvent := map[string]Figures{}
	for _, s := range subs {
		byEvent[s.EventID] = byEvent[s.EventID].add(s.Figures())
	}
	out := make([]Event, len(events))
	for i, e := range events {
		if f, ok := byEvent[e.ID]; ok {
			e.Profit = f.Revenue.Sub(f.Expenses()).IntPart()
		}
		out[i] = e
	}
	return out
}
