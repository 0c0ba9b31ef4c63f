package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"rumba/internal/core"
	"rumba/internal/log"
)

var eventFilters = []filterOption{
	{Value: core.FilterAll, Label: "All Events"},
	{Value: core.FilterUpcoming, Label: "Upcoming"},
	{Value: core.FilterCompleted, Label: "Completed"},
	{Value: core.FilterThisWeek, Label: "This Week"},
	{Value: core.FilterLastWeek, Label: "Last Week"},
}

type filterOption struct {
	Value string
	Label string
}

type cardView struct {
	core.StatCard
	Class string
}

type weeklyBar struct {
	Label       string
	Revenue     decimal.Decimal
	Expenses    decimal.Decimal
	RevenuePct  int
	ExpensesPct int
}

type categoryBar struct {
	Name    string
	Amount  decimal.Decimal
	Percent int
}

type eventRow struct {
	core.Event
	Status core.EventStatus
	When   string
}

type eventsView struct {
	Filter  string
	Filters []filterOption
	Rows    []eventRow
}

type dashboardView struct {
	Unavailable bool
	Cards       []cardView
	Weekly      []weeklyBar
	Categories  []categoryBar
	Goal        core.Goal
	GoalPercent int
	Events      eventsView
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	filter := parseFilter(r.URL.Query().Get("filter"))

	ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
	defer cancel()

	var (
		snap   core.DashboardSnapshot
		events []core.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = s.dashboard.ReadDashboard(gctx, now)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.events.List(gctx)
		return err
	})

	var view dashboardView
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to load dashboard",
			log.FieldError, err,
			log.FieldOperation, log.OpRead)
		view.Unavailable = true
	} else {
		view = buildDashboard(snap)
		view.Events = s.eventsView(events, filter)
	}

	s.renderPage(w, r, http.StatusOK, "dashboard.html", s.newPage(r, "Dashboard", "dashboard", view))
}

// handleEventsTable serves the events table for the filter tabs.
func (s *Server) handleEventsTable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
	defer cancel()

	events, err := s.events.List(ctx)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list events",
			log.FieldError, err,
			log.FieldOperation, log.OpList)
		InternalServerError("Events could not be loaded.").WriteHeader(w)
		return
	}
	view := s.eventsView(events, parseFilter(r.URL.Query().Get("filter")))
	s.renderFragment(w, r, NewHTMXResponse(), "events_table", view)
}

func parseFilter(v string) string {
	v = strings.TrimSpace(v)
	for _, f := range eventFilters {
		if f.Value == v {
			return v
		}
	}
	return core.FilterAll
}

func (s *Server) eventsView(events []core.Event, filter string) eventsView {
	now := s.now()
	filtered := core.FilterEvents(events, filter, now)
	rows := make([]eventRow, len(filtered))
	for i, e := range filtered {
		when := e.Date.ISO()
		if when == "" && e.DayOfWeek != "" {
			when = "Every " + strings.ToUpper(e.DayOfWeek[:1]) + e.DayOfWeek[1:]
		}
		rows[i] = eventRow{Event: e, Status: e.Status(now), When: when}
	}
	return eventsView{Filter: filter, Filters: eventFilters, Rows: rows}
}

func buildDashboard(snap core.DashboardSnapshot) dashboardView {
	v := dashboardView{Goal: snap.Goal, GoalPercent: snap.Goal.Percent()}

	for _, c := range snap.Totals.Cards() {
		inverted := strings.Contains(c.Title, "Expenses")
		v.Cards = append(v.Cards, cardView{StatCard: c, Class: trendClass(c.Trend, inverted)})
	}

	peak := decimal.Zero
	for _, p := range snap.Weekly {
		peak = decimal.Max(peak, p.Revenue, p.Expenses)
	}
	for _, p := range snap.Weekly {
		v.Weekly = append(v.Weekly, weeklyBar{
			Label:       p.Label,
			Revenue:     p.Revenue,
			Expenses:    p.Expenses,
			RevenuePct:  percentOf(p.Revenue, peak),
			ExpensesPct: percentOf(p.Expenses, peak),
		})
	}

	total := decimal.Zero
	for _, c := range snap.Categories {
		total = total.Add(c.Amount)
	}
	for _, c := range snap.Categories {
		v.Categories = append(v.Categories, categoryBar{Name: c.Name, Amount: c.Amount, Percent: percentOf(c.Amount, total)})
	}
	return v
}
