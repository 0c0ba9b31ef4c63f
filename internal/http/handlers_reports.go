package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"rumba/internal/core"
	"rumba/internal/export"
	"rumba/internal/log"
)

const submissionsShown = 50

type reportsView struct {
	Year        int
	PrevYear    int
	NextYear    int
	Unavailable bool
	Rows        []core.MonthlyPerformance
	Total       core.MonthlyPerformance
	ExportURL   string
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	year := ParseYear(r.URL.Query(), s.now())
	view := reportsView{
		Year:      year,
		PrevYear:  year - 1,
		NextYear:  year + 1,
		ExportURL: "/reports/export?year=" + strconv.Itoa(year),
	}

	ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
	defer cancel()

	rows, err := s.reports.ReadMonthly(ctx, year)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to read monthly report",
			log.FieldError, err,
			"year", year,
			log.FieldOperation, log.OpRead)
		view.Unavailable = true
	} else {
		view.Rows = rows
		view.Total = totalPerformance(rows)
	}

	s.renderPage(w, r, http.StatusOK, "reports.html", s.newPage(r, "Reports", "reports", view))
}

func totalPerformance(rows []core.MonthlyPerformance) core.MonthlyPerformance {
	t := core.MonthlyPerformance{Month: "Total", Revenue: decimal.Zero, Expenses: decimal.Zero}
	for _, m := range rows {
		t.Events += m.Events
		t.Revenue = t.Revenue.Add(m.Revenue)
		t.Expenses = t.Expenses.Add(m.Expenses)
	}
	return t
}

// handleExport streams the dashboard summary and the monthly table as a
// workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	year := ParseYear(r.URL.Query(), now)

	ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
	defer cancel()

	rep := export.Report{Year: year}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rep.Snapshot, err = s.dashboard.ReadDashboard(gctx, now)
		return err
	})
	g.Go(func() error {
		var err error
		rep.Monthly, err = s.reports.ReadMonthly(gctx, year)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to load report data",
			log.FieldError, err,
			log.FieldOperation, log.OpExport)
		InternalServerError("The report could not be generated.").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, rep); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to build workbook",
			log.FieldError, err,
			log.FieldOperation, log.OpExport)
		InternalServerError("The report could not be generated.").Write(w)
		return
	}

	s.metrics.exports.Add(1)
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

type submissionRow struct {
	core.Submission
	EventName string
	Figures   core.Figures
}

type submissionsView struct {
	Unavailable bool
	Rows        []submissionRow
}

func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), backendTimeout)
	defer cancel()

	var (
		subs   []core.Submission
		events []core.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subs, err = s.lister.ListSubmissions(gctx, submissionsShown)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.events.List(gctx)
		return err
	})

	var view submissionsView
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list submissions",
			log.FieldError, err,
			log.FieldOperation, log.OpList)
		view.Unavailable = true
	} else {
		names := make(map[string]string, len(events))
		for _, e := range events {
			names[e.ID] = e.Name
		}
		for _, sub := range subs {
			name, ok := names[sub.EventID]
			if !ok {
				name = "Event " + sub.EventID
			}
			view.Rows = append(view.Rows, submissionRow{Submission: sub, EventName: name, Figures: sub.Figures()})
		}
	}

	s.renderPage(w, r, http.StatusOK, "submissions.html", s.newPage(r, "Submissions", "submissions", view))
}
