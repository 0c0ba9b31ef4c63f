package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rumba/internal/core"
	"rumba/internal/log"
	ports "rumba/internal/sheets"

	_ "modernc.org/sqlite"
)

// Sync states of a stored submission.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// DefaultRevenueGoal is the monthly revenue target shown on the dashboard.
var DefaultRevenueGoal = decimal.NewFromInt(12000)

var (
	_ ports.EventCatalog     = (*SQLiteRepository)(nil)
	_ ports.SubmissionWriter = (*SQLiteRepository)(nil)
	_ ports.SubmissionLister = (*SQLiteRepository)(nil)
	_ ports.DashboardReader  = (*SQLiteRepository)(nil)
	_ ports.ReportReader     = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	logger  *log.Logger
	goal    decimal.Decimal
	version uint
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.NewDiscard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger = logger.WithComponent(log.ComponentStorage)
	logger.Info("SQLite repository ready", "db_path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, logger: logger, goal: DefaultRevenueGoal, version: version}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SchemaVersion returns the migration version applied at startup.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.version
}

const eventColumns = `id, name, type, day_of_week, date, venue, deal, entrance_share, commissions, progressive, payment_terms, profit, created_at`

func scanEvent(row interface{ Scan(...any) error }) (core.Event, error) {
	var (
		e               core.Event
		typ, deal, date string
		progressive     int64
	)
	if err := row.Scan(&e.ID, &e.Name, &typ, &e.DayOfWeek, &date, &e.Venue, &deal, &e.EntranceShare,
		&e.Commissions, &progressive, &e.PaymentTerms, &e.Profit, &e.CreatedAt); err != nil {
		return core.Event{}, err
	}
	e.Type = core.EventType(typ)
	e.Deal = core.DealType(deal)
	e.Progressive = progressive != 0
	if date != "" {
		d, err := core.ParseDate(date)
		if err != nil {
			return core.Event{}, fmt.Errorf("event %s date %q: %w", e.ID, date, err)
		}
		e.Date = d
	}
	return e, nil
}

// ListEvents implements sheets.EventCatalog
func (r *SQLiteRepository) ListEvents(ctx context.Context) ([]core.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date, created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []core.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	subs, err := r.ListSubmissions(ctx, 0)
	if err != nil {
		return nil, err
	}
	return core.WithProfits(events, subs), nil
}

// GetEvent implements sheets.EventCatalog
func (r *SQLiteRepository) GetEvent(ctx context.Context, id string) (core.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Event{}, core.ErrEventNotFound
	}
	if err != nil {
		return core.Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return e, nil
}

// CreateEvent implements sheets.EventCatalog
func (r *SQLiteRepository) CreateEvent(ctx context.Context, e core.Event) (core.Event, error) {
	if err := e.Validate(); err != nil {
		return core.Event{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	progressive := 0
	if e.Progressive {
		progressive = 1
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, string(e.Type), e.DayOfWeek, e.Date.ISO(), e.Venue, string(e.Deal), e.EntranceShare,
		e.Commissions, progressive, e.PaymentTerms, e.Profit, e.CreatedAt)
	if err != nil {
		return core.Event{}, fmt.Errorf("create event: %w", err)
	}

	r.logger.InfoContext(ctx, "Event saved to SQLite", log.FieldEventID, e.ID, "name", e.Name)
	return e, nil
}

// Append implements sheets.SubmissionWriter. The submission is stored as
// pending sync.
func (r *SQLiteRepository) Append(ctx context.Context, s core.Submission) (string, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode submission: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO submissions (id, kind, event_id, event_date, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, string(s.Kind), s.EventID, s.Date(), string(payload), s.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("create submission: %w", err)
	}

	r.logger.InfoContext(ctx, "Submission saved to SQLite",
		log.FieldSubmissionID, s.ID,
		log.FieldKind, s.Kind,
		log.FieldEventID, s.EventID)

	return "sqlite:" + s.ID, nil
}

// ListSubmissions implements sheets.SubmissionLister
func (r *SQLiteRepository) ListSubmissions(ctx context.Context, limit int) ([]core.Submission, error) {
	query := `SELECT payload FROM submissions ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []core.Submission
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		var s core.Submission
		if err := json.Unmarshal([]byte(payload), &s); err != nil {
			return nil, fmt.Errorf("decode submission: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSubmission retrieves a single submission by ID.
func (r *SQLiteRepository) GetSubmission(ctx context.Context, id string) (core.Submission, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM submissions WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		return core.Submission{}, fmt.Errorf("get submission %s: %w", id, err)
	}
	var s core.Submission
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return core.Submission{}, fmt.Errorf("decode submission: %w", err)
	}
	return s, nil
}

// ReadDashboard implements sheets.DashboardReader
func (r *SQLiteRepository) ReadDashboard(ctx context.Context, now time.Time) (core.DashboardSnapshot, error) {
	subs, err := r.ListSubmissions(ctx, 0)
	if err != nil {
		return core.DashboardSnapshot{}, err
	}
	return core.Summarize(subs, now, r.goal), nil
}

// ReadMonthly implements sheets.ReportReader
func (r *SQLiteRepository) ReadMonthly(ctx context.Context, year int) ([]core.MonthlyPerformance, error) {
	subs, err := r.ListSubmissions(ctx, 0)
	if err != nil {
		return nil, err
	}
	return core.ByMonth(subs, year), nil
}

// PendingSubmission is the minimal data needed for sync queue messages.
type PendingSubmission struct {
	ID        string
	Version   int64
	CreatedAt time.Time
}

// GetPendingSync returns submissions that still need to reach Google Sheets,
// oldest first.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSubmission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM submissions WHERE sync_status != ? ORDER BY created_at LIMIT ?`,
		SyncSynced, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync submissions: %w", err)
	}
	defer rows.Close()

	var out []PendingSubmission
	for rows.Next() {
		var p PendingSubmission
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending submission: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced marks a submission as successfully synced
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE submissions SET sync_status = ?, synced_at = ? WHERE id = ?`,
		SyncSynced, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("mark submission synced: %w", err)
	}
	r.logger.InfoContext(ctx, "Submission marked as synced", log.FieldSubmissionID, id)
	return nil
}

// MarkSyncError marks a submission as having sync errors
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE submissions SET sync_status = ?, version = version + 1 WHERE id = ?`,
		SyncError, id); err != nil {
		return fmt.Errorf("mark submission sync error: %w", err)
	}
	r.logger.WarnContext(ctx, "Submission marked with sync error", log.FieldSubmissionID, id)
	return nil
}

// SyncStatus returns the sync state of a submission.
func (r *SQLiteRepository) SyncStatus(ctx context.Context, id string) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM submissions WHERE id = ?`, id).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("get sync status %s: %w", id, err)
	}
	return status, nil
}
