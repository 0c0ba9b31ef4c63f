package google

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rumba/internal/core"
)

// SubmissionHeader is the expected first row of the submissions sheet.
// The trailing payload column holds the full submission as JSON; the
// other columns are for people reading the sheet.
var SubmissionHeader = []string{
	"ID", "Kind", "Event", "Date", "Revenue (AED)", "Expenses (AED)",
	"Promoters", "Staff", "Table Commissions", "Ad Campaigns", "Notes", "Created At", "Payload",
}

// EventHeader is the expected first row of the events sheet.
var EventHeader = []string{
	"ID", "Name", "Type", "Day", "Date", "Venue", "Deal",
	"Entrance Share", "Commissions", "Progressive", "Payment Terms", "Created At",
}

func submissionRow(s core.Submission) ([]any, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}
	f := s.Figures()
	return []any{
		s.ID,
		string(s.Kind),
		s.EventID,
		s.Date(),
		f.Revenue.String(),
		f.Expenses().String(),
		len(s.Promoters),
		len(s.Staff),
		len(s.TableCommissions),
		len(s.AdCampaigns),
		s.Notes(),
		s.CreatedAt.UTC().Format(time.RFC3339),
		string(payload),
	}, nil
}

// parseSubmissions decodes the payload column of every row. A header
// row and rows without a valid payload are skipped.
func parseSubmissions(values [][]any) []core.Submission {
	payloadCol := len(SubmissionHeader) - 1
	var out []core.Submission
	for _, row := range values {
		cols := toStrings(row)
		raw := safeGet(cols, payloadCol)
		if raw == "" || !strings.HasPrefix(raw, "{") {
			continue
		}
		var s core.Submission
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

func eventRow(e core.Event) []any {
	return []any{
		e.ID,
		e.Name,
		string(e.Type),
		e.DayOfWeek,
		e.Date.ISO(),
		e.Venue,
		string(e.Deal),
		e.EntranceShare,
		e.Commissions,
		strconv.FormatBool(e.Progressive),
		e.PaymentTerms,
		e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// parseEvents converts the events sheet into catalog entries. The header
// row and rows that do not validate are skipped.
func parseEvents(values [][]any) []core.Event {
	var out []core.Event
	for i, row := range values {
		cols := toStrings(row)
		if i == 0 && strings.EqualFold(safeGet(cols, 0), "ID") {
			continue
		}
		e := core.Event{
			ID:            safeGet(cols, 0),
			Name:          safeGet(cols, 1),
			Type:          core.EventType(safeGet(cols, 2)),
			DayOfWeek:     safeGet(cols, 3),
			Venue:         safeGet(cols, 5),
			Deal:          core.DealType(safeGet(cols, 6)),
			EntranceShare: safeGet(cols, 7),
			Commissions:   safeGet(cols, 8),
			PaymentTerms:  safeGet(cols, 10),
		}
		if d, err := core.ParseDate(safeGet(cols, 4)); err == nil {
			e.Date = d
		}
		e.Progressive, _ = strconv.ParseBool(safeGet(cols, 9))
		if t, err := time.Parse(time.RFC3339, safeGet(cols, 11)); err == nil {
			e.CreatedAt = t
		}
		if e.ID == "" || e.Validate() != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
