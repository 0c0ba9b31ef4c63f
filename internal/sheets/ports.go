package sheets

import (
	"context"
	"time"

	"rumba/internal/core"
)

// Ports for outbound adapters.
type (
	// EventCatalog is the reference list data-entry pages select from.
	EventCatalog interface {
		ListEvents(ctx context.Context) ([]core.Event, error)
		// GetEvent returns core.ErrEventNotFound for unknown IDs.
		GetEvent(ctx context.Context, id string) (core.Event, error)
		CreateEvent(ctx context.Context, e core.Event) (core.Event, error)
	}

	SubmissionWriter interface {
		Append(ctx context.Context, s core.Submission) (rowRef string, err error)
	}

	// SubmissionLister returns recorded submissions, newest first.
	// A limit <= 0 returns all of them.
	SubmissionLister interface {
		ListSubmissions(ctx context.Context, limit int) ([]core.Submission, error)
	}

	// DashboardReader provides the figures behind the dashboard.
	DashboardReader interface {
		ReadDashboard(ctx context.Context, now time.Time) (core.DashboardSnapshot, error)
	}

	// ReportReader provides the monthly performance table.
	ReportReader interface {
		ReadMonthly(ctx context.Context, year int) ([]core.MonthlyPerformance, error)
	}
)
