package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Weekly  EventType = "weekly"
	Monthly EventType = "monthly"
	OneTime EventType = "one-time"
)

const (
	RevenueShare         DealType = "revenue-share"
	RevenueShareEntrance DealType = "revenue-share-entrance"
)

const (
	StatusUpcoming  EventStatus = "upcoming"
	StatusCompleted EventStatus = "completed"
)

const (
	KindExpense   SubmissionKind = "expense"
	KindEventData SubmissionKind = "event_data"
)

type (
	EventType      string
	DealType       string
	EventStatus    string
	SubmissionKind string

	Date struct {
		time.Time
	}

	// Event is an entry of the event catalog. Data-entry pages reference it by ID.
	Event struct {
		ID            string
		Name          string
		Type          EventType
		DayOfWeek     string // weekly events only
		Date          Date   // zero for weekly events
		Venue         string
		Deal          DealType
		EntranceShare string // percentage, entrance deals only
		Commissions   string // free-form commission brackets
		Progressive   bool
		PaymentTerms  string
		Profit        int64 // AED, whole units
		CreatedAt     time.Time
	}

	// Submission is the aggregated payload of a data-entry form.
	// Group slices are never nil so they encode as [] rather than null.
	Submission struct {
		ID               string            `json:"id"`
		Kind             SubmissionKind    `json:"kind"`
		EventID          string            `json:"eventId"`
		Fields           map[string]string `json:"fields"`
		Promoters        []Promoter        `json:"promoters"`
		Staff            []StaffMember     `json:"staff"`
		TableCommissions []TableCommission `json:"tableCommissions"`
		AdCampaigns      []AdCampaign      `json:"adCampaigns"`
		CreatedAt        time.Time         `json:"createdAt"`
	}
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrEmptyEventName   = errors.New("empty event name")
	ErrInvalidEventType = errors.New("invalid event type")
	ErrInvalidDealType  = errors.New("invalid deal type")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// ISO returns the date as 2006-01-02, or "" for the zero date.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// Status reports whether the event already took place relative to now.
// Weekly events without a date are always upcoming.
func (e Event) Status(now time.Time) EventStatus {
	if e.Date.IsZero() {
		return StatusUpcoming
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if e.Date.Before(today) {
		return StatusCompleted
	}
	return StatusUpcoming
}

// EntranceEligible reports whether the event's deal includes entrance revenue.
func (e Event) EntranceEligible() bool {
	return e.Deal == RevenueShareEntrance
}

func (e Event) Validate() error {
	if len(strings.TrimSpace(e.Name)) < 2 {
		return ErrEmptyEventName
	}
	switch e.Type {
	case Weekly, Monthly, OneTime:
	default:
		return ErrInvalidEventType
	}
	switch e.Deal {
	case RevenueShare, RevenueShareEntrance:
	default:
		return ErrInvalidDealType
	}
	return nil
}

// Notes returns the free-text notes field, if any.
func (s Submission) Notes() string {
	return s.Fields["notes"]
}

// Date returns the submission's event date field.
func (s Submission) Date() string {
	return s.Fields["date"]
}
