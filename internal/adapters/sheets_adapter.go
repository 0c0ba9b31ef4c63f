package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"rumba/internal/core"
	ports "rumba/internal/sheets"
)

// SheetsStore is what the Google Sheets client offers on its own.
type SheetsStore interface {
	ports.EventCatalog
	ports.SubmissionWriter
	ports.SubmissionLister
}

// SheetsAdapter adds the dashboard and report readers on top of a store that
// only keeps raw rows, deriving the figures from the submissions.
type SheetsAdapter struct {
	SheetsStore
	goal decimal.Decimal
}

var (
	_ ports.DashboardReader = (*SheetsAdapter)(nil)
	_ ports.ReportReader    = (*SheetsAdapter)(nil)
)

func NewSheetsAdapter(store SheetsStore, goal decimal.Decimal) *SheetsAdapter {
	return &SheetsAdapter{SheetsStore: store, goal: goal}
}

// ListEvents implements ports.EventCatalog with profits filled in.
func (a *SheetsAdapter) ListEvents(ctx context.Context) ([]core.Event, error) {
	events, err := a.SheetsStore.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := a.ListSubmissions(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list submissions for profits: %w", err)
	}
	return core.WithProfits(events, subs), nil
}

// ReadDashboard implements ports.DashboardReader
func (a *SheetsAdapter) ReadDashboard(ctx context.Context, now time.Time) (core.DashboardSnapshot, error) {
	subs, err := a.ListSubmissions(ctx, 0)
	if err != nil {
		return core.DashboardSnapshot{}, fmt.Errorf("read dashboard: %w", err)
	}
	return core.Summarize(subs, now, a.goal), nil
}

// ReadMonthly implements ports.ReportReader
func (a *SheetsAdapter) ReadMonthly(ctx context.Context, year int) ([]core.MonthlyPerformance, error) {
	subs, err := a.ListSubmissions(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("read monthly report: %w", err)
	}
	return core.ByMonth(subs, year), nil
}
