package google

import (
	"testing"
	"time"

	"rumba/internal/core"
)

func TestSubmissionRowRoundTrip(t *testing.T) {
	s := core.Submission{
		ID:        "sub-1",
		Kind:      core.KindExpense,
		EventID:   "1",
		Fields:    map[string]string{"date": "2025-04-12", "netRevenue": "5000", "notes": "busy"},
		Promoters: []core.Promoter{{Name: "A", Payment: "200"}},
		Staff:     []core.StaffMember{},
		CreatedAt: time.Date(2025, 4, 12, 23, 0, 0, 0, time.UTC),
	}
	row, err := submissionRow(s)
	if err != nil {
		t.Fatalf("row: %v", err)
	}
	if len(row) != len(SubmissionHeader) {
		t.Fatalf("row has %d columns, header %d", len(row), len(SubmissionHeader))
	}
	if row[4] != "5000" || row[5] != "200" || row[6] != 1 || row[10] != "busy" {
		t.Fatalf("unexpected summary columns %v", row[:11])
	}

	header := make([]any, len(SubmissionHeader))
	for i, h := range SubmissionHeader {
		header[i] = h
	}
	got := parseSubmissions([][]any{header, row, {"broken", "row"}})
	if len(got) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(got))
	}
	if got[0].ID != "sub-1" || got[0].Promoters[0].Payment != "200" || got[0].Fields["notes"] != "busy" {
		t.Fatalf("unexpected submission %+v", got[0])
	}
}

func TestParseEvents(t *testing.T) {
	values := [][]any{
		{"ID", "Name", "Type", "Day", "Date", "Venue", "Deal", "Entrance Share", "Commissions", "Progressive", "Payment Terms", "Created At"},
		{"1", "Friday Night Rumba (April 12)", "weekly", "friday", "2025-04-12", "Club XYZ", "revenue-share-entrance", "50", "", "TRUE", "one-week", ""},
		{"2", "Saturday Exclusive (April 13)", "weekly", "saturday", "2025-04-13", "Club XYZ", "revenue-share"},
		{"", "No ID", "weekly"},
		{"5", "Invalid", "daily", "", "", "", "revenue-share"},
	}
	events := parseEvents(values)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %+v", events)
	}
	if !events[0].EntranceEligible() || !events[0].Progressive || events[0].Date.ISO() != "2025-04-12" {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].EntranceEligible() || events[1].PaymentTerms != "" {
		t.Fatalf("unexpected second event %+v", events[1])
	}
}

func TestEventRowMatchesHeader(t *testing.T) {
	e := core.Event{ID: "9", Name: "Ladies Night", Type: core.OneTime, Deal: core.RevenueShare, Date: core.NewDate(2025, 5, 2)}
	row := eventRow(e)
	if len(row) != len(EventHeader) {
		t.Fatalf("row has %d columns, header %d", len(row), len(EventHeader))
	}
	back := parseEvents([][]any{row})
	if len(back) != 1 || back[0].Date.ISO() != "2025-05-02" {
		t.Fatalf("unexpected parse %+v", back)
	}
}

func TestLastColumn(t *testing.T) {
	if got := lastColumn(len(SubmissionHeader)); got != "M" {
		t.Fatalf("expected M, got %s", got)
	}
	if got := lastColumn(len(EventHeader)); got != "L" {
		t.Fatalf("expected L, got %s", got)
	}
}
