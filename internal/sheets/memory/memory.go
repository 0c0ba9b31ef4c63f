package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rumba/internal/core"
	ports "rumba/internal/sheets"
)

var (
	_ ports.EventCatalog     = (*Store)(nil)
	_ ports.SubmissionWriter = (*Store)(nil)
	_ ports.SubmissionLister = (*Store)(nil)
	_ ports.DashboardReader  = (*Store)(nil)
	_ ports.ReportReader     = (*Store)(nil)
)

// Store keeps everything in process memory. The dashboard and reports
// serve a fixed snapshot so a fresh instance has something to show.
type Store struct {
	mu       sync.Mutex
	events   []core.Event
	items    []core.Submission
	snapshot core.DashboardSnapshot
	monthly  []core.MonthlyPerformance
}

func New(events []core.Event, snapshot core.DashboardSnapshot, monthly []core.MonthlyPerformance) *Store {
	return &Store{
		events:   slices.Clone(events),
		snapshot: snapshot,
		monthly:  slices.Clone(monthly),
	}
}

// NewSeeded returns a store holding the sample events, dated around now,
// and the sample figures.
func NewSeeded(now time.Time) *Store {
	return New(SeedEvents(now), SeedSnapshot(), SeedMonthly())
}

// ListEvents returns the catalog in insertion order.
func (s *Store) ListEvents(_ context.Context) ([]core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events), nil
}

func (s *Store) GetEvent(_ context.Context, id string) (core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Event{}, core.ErrEventNotFound
}

// CreateEvent validates e and adds it to the catalog, assigning an ID
// when it has none.
func (s *Store) CreateEvent(_ context.Context, e core.Event) (core.Event, error) {
	if err := e.Validate(); err != nil {
		return core.Event{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return e, nil
}

// Append stores the submission and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, sub core.Submission) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, sub)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

func (s *Store) ListSubmissions(_ context.Context, limit int) ([]core.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.items)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ReadDashboard(_ context.Context, _ time.Time) (core.DashboardSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot, nil
}

// ReadMonthly serves the seeded table regardless of year.
func (s *Store) ReadMonthly(_ context.Context, _ int) ([]core.MonthlyPerformance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.monthly), nil
}

// SeedEvents returns the four sample events: last Friday and Saturday,
// already run, and the coming Friday and Saturday.
func SeedEvents(now time.Time) []core.Event {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	back := (int(today.Weekday()) + 1) % 7
	if back == 0 {
		back = 7
	}
	lastSat := today.AddDate(0, 0, -back)
	nextFri := today.AddDate(0, 0, (int(time.Friday)-int(today.Weekday())+7)%7)

	event := func(id, name string, day time.Time, deal core.DealType, terms string, profit int64) core.Event {
		e := core.Event{
			ID:           id,
			Name:         fmt.Sprintf("%s (%s)", name, day.Format("January 2")),
			Type:         core.OneTime,
			Date:         core.Date{Time: day},
			Venue:        "Club XYZ",
			Deal:         deal,
			PaymentTerms: terms,
			Profit:       profit,
		}
		if deal == core.RevenueShareEntrance {
			e.EntranceShare = "50"
		}
		return e
	}
	return []core.Event{
		event("1", "Friday Night Rumba", lastSat.AddDate(0, 0, -1), core.RevenueShareEntrance, "one-week", 3200),
		event("2", "Saturday Exclusive", lastSat, core.RevenueShare, "two-weeks", 4750),
		event("3", "Friday Night Rumba", nextFri, core.RevenueShareEntrance, "one-week", 0),
		event("4", "Saturday Exclusive", nextFri.AddDate(0, 0, 1), core.RevenueShare, "two-weeks", 0),
	}
}

// SeedSnapshot is the sample dashboard.
func SeedSnapshot() core.DashboardSnapshot {
	d := decimal.NewFromInt
	return core.DashboardSnapshot{
		Totals: core.Totals{
			Revenue:   d(167500),
			Expenses:  d(86320),
			EventsRun: 24,
			Trends: map[string]int{
				"revenue": 12, "expenses": -8, "profit": 18, "roi": 5,
				"avgRevenue": 4, "avgProfit": 7, "avgExpenses": -3,
			},
		},
		Weekly: []core.WeeklyPoint{
			{Label: "Week 1", Revenue: d(24000), Expenses: d(15000)},
			{Label: "Week 2", Revenue: d(36000), Expenses: d(18000)},
			{Label: "Week 3", Revenue: d(30000), Expenses: d(16000)},
			{Label: "Week 4", Revenue: d(42000), Expenses: d(20000)},
			{Label: "Week 5", Revenue: d(35000), Expenses: d(17500)},
		},
		Categories: []core.CategoryAmount{
			{Name: core.CategoryPromoters, Amount: d(28000)},
			{Name: core.CategoryStaff, Amount: d(18500)},
			{Name: core.CategoryAdvertising, Amount: d(15200)},
			{Name: "Venue", Amount: d(12500)},
			{Name: "Other", Amount: d(12120)},
		},
		Goal: core.Goal{Title: "This Month's Revenue Goal", Target: d(12000), Achieved: d(7800)},
	}
}

// SeedMonthly is the sample reports table.
func SeedMonthly() []core.MonthlyPerformance {
	d := decimal.NewFromInt
	return []core.MonthlyPerformance{
		{Month: "January", Events: 4, Revenue: d(42000), Expenses: d(18000)},
		{Month: "February", Events: 4, Revenue: d(38000), Expenses: d(17000)},
		{Month: "March", Events: 5, Revenue: d(52000), Expenses: d(22000)},
		{Month: "April", Events: 4, Revenue: d(46000), Expenses: d(19000)},
	}
}
