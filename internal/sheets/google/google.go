package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"rumba/internal/core"
	"rumba/internal/log"
	ports "rumba/internal/sheets"
)

// Default sheet (tab) names.
const (
	DefaultSubmissionsSheet = "Submissions"
	DefaultEventsSheet      = "Events"
)

type Client struct {
	svc              *gsheet.Service
	spreadsheetID    string
	submissionsSheet string
	eventsSheet      string
	logger           *log.Logger
	now              func() time.Time
}

// Ensure interface conformance
var (
	_ ports.EventCatalog     = (*Client)(nil)
	_ ports.SubmissionWriter = (*Client)(nil)
	_ ports.SubmissionLister = (*Client)(nil)
)

// Options configure a Client.
type Options struct {
	SpreadsheetID    string
	SubmissionsSheet string
	EventsSheet      string
	// Service account credentials, inline or from a file.
	CredentialsJSON string
	CredentialsFile string
	// Extra client options, e.g. an endpoint override in tests.
	ClientOptions []goption.ClientOption
	Logger        *log.Logger
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewDiscard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	clientOpts := opts.ClientOptions
	if len(clientOpts) == 0 {
		credentialsJSON, err := readCredentials(opts)
		if err != nil {
			return nil, err
		}
		clientOpts = []goption.ClientOption{
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", opts.SpreadsheetID)

	return &Client{
		svc:              svc,
		spreadsheetID:    opts.SpreadsheetID,
		submissionsSheet: orDefault(opts.SubmissionsSheet, DefaultSubmissionsSheet),
		eventsSheet:      orDefault(opts.EventsSheet, DefaultEventsSheet),
		logger:           logger,
		now:              time.Now,
	}, nil
}

func readCredentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// Append writes the submission as a new row of the submissions sheet and
// returns the updated range.
func (c *Client) Append(ctx context.Context, s core.Submission) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	row, err := submissionRow(s)
	if err != nil {
		return "", err
	}
	rng := fmt.Sprintf("%s!A:%s", c.submissionsSheet, lastColumn(len(SubmissionHeader)))
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.submissionsSheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Submission appended to sheet",
		log.FieldSubmissionID, s.ID,
		log.FieldSheetsRef, ref)
	return ref, nil
}

// ListSubmissions reads the submissions sheet, newest first.
func (c *Client) ListSubmissions(ctx context.Context, limit int) ([]core.Submission, error) {
	values, err := c.read(ctx, c.submissionsSheet, lastColumn(len(SubmissionHeader)))
	if err != nil {
		return nil, err
	}
	subs := parseSubmissions(values)
	for i, j := 0, len(subs)-1; i < j; i, j = i+1, j-1 {
		subs[i], subs[j] = subs[j], subs[i]
	}
	if limit > 0 && len(subs) > limit {
		subs = subs[:limit]
	}
	return subs, nil
}

// ListEvents reads the events sheet in row order.
func (c *Client) ListEvents(ctx context.Context) ([]core.Event, error) {
	values, err := c.read(ctx, c.eventsSheet, lastColumn(len(EventHeader)))
	if err != nil {
		return nil, err
	}
	return parseEvents(values), nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (core.Event, error) {
	events, err := c.ListEvents(ctx)
	if err != nil {
		return core.Event{}, err
	}
	for _, e := range events {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Event{}, core.ErrEventNotFound
}

// CreateEvent appends a row to the events sheet.
func (c *Client) CreateEvent(ctx context.Context, e core.Event) (core.Event, error) {
	if err := e.Validate(); err != nil {
		return core.Event{}, err
	}
	if c.svc == nil {
		return core.Event{}, errors.New("sheets service not initialized")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = c.now().UTC()
	}
	rng := fmt.Sprintf("%s!A:%s", c.eventsSheet, lastColumn(len(EventHeader)))
	vr := &gsheet.ValueRange{Values: [][]any{eventRow(e)}}
	if _, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do(); err != nil {
		return core.Event{}, fmt.Errorf("append to sheet %s: %w", c.eventsSheet, err)
	}
	c.logger.InfoContext(ctx, "Event appended to sheet", log.FieldEventID, e.ID)
	return e, nil
}

// Ping reads the spreadsheet metadata.
func (c *Client) Ping(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if _, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	return nil
}

func (c *Client) read(ctx context.Context, sheet, last string) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:%s", sheet, last)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// lastColumn returns the letter of column n (1-based, up to 26).
func lastColumn(n int) string {
	return string(rune('A' + n - 1))
}
