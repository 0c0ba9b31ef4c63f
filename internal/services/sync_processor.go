package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"rumba/internal/core"
	"rumba/internal/log"
	ports "rumba/internal/sheets"
	"rumba/internal/storage"
)

// SyncStore is the local side of the Sheets sync.
type SyncStore interface {
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingSubmission, error)
	GetSubmission(ctx context.Context, id string) (core.Submission, error)
	SyncStatus(ctx context.Context, id string) (string, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to look for pending submissions (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of submissions per poll cycle (default: 10)
	BatchSize int

	// Concurrency bounds parallel appends to Sheets (default: 4)
	Concurrency int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    10,
		Concurrency:  4,
	}
}

// BatchResult counts the outcome of one sync pass.
type BatchResult struct {
	Total  int
	Synced int
	Failed int
}

// SyncProcessor copies locally stored submissions to Google Sheets. It
// serves both the AMQP handler (SyncOne) and the polling fallback.
type SyncProcessor struct {
	store  SyncStore
	sheets ports.SubmissionWriter
	config SyncProcessorConfig
	logger *log.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(store SyncStore, sheetsWriter ports.SubmissionWriter, config SyncProcessorConfig, logger *log.Logger) *SyncProcessor {
	def := DefaultSyncProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.Concurrency <= 0 {
		config.Concurrency = def.Concurrency
	}
	if logger == nil {
		logger = log.NewDiscard()
	}
	return &SyncProcessor{
		store:  store,
		sheets: sheetsWriter,
		config: config,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// SyncOne appends a stored submission to Sheets and marks it synced.
// Already synced submissions are skipped so redelivered messages are harmless.
func (p *SyncProcessor) SyncOne(ctx context.Context, id string) error {
	status, err := p.store.SyncStatus(ctx, id)
	if err != nil {
		return fmt.Errorf("get sync status: %w", err)
	}
	if status == storage.SyncSynced {
		p.logger.DebugContext(ctx, "Submission already synced", log.FieldSubmissionID, id)
		return nil
	}

	sub, err := p.store.GetSubmission(ctx, id)
	if err != nil {
		return fmt.Errorf("get submission %s: %w", id, err)
	}

	ref, err := p.sheets.Append(ctx, sub)
	if err != nil {
		if markErr := p.store.MarkSyncError(ctx, id); markErr != nil {
			p.logger.ErrorContext(ctx, "Failed to mark sync error", log.FieldSubmissionID, id, log.FieldError, markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := p.store.MarkSynced(ctx, id); err != nil {
		// The row is in Sheets already; a retry would duplicate it.
		p.logger.ErrorContext(ctx, "Failed to mark as synced", log.FieldSubmissionID, id, log.FieldError, err)
	}

	p.logger.InfoContext(ctx, "Synced submission to Google Sheets",
		log.FieldSubmissionID, id,
		log.FieldKind, sub.Kind,
		log.FieldSheetsRef, ref)
	return nil
}

// ProcessBatch syncs up to limit pending submissions, oldest first.
// Individual failures are counted, not returned.
func (p *SyncProcessor) ProcessBatch(ctx context.Context, limit int) (BatchResult, error) {
	if limit <= 0 {
		limit = p.config.BatchSize
	}
	pending, err := p.store.GetPendingSync(ctx, limit)
	if err != nil {
		return BatchResult{}, fmt.Errorf("get pending submissions: %w", err)
	}
	if len(pending) == 0 {
		return BatchResult{}, nil
	}

	var synced, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Concurrency)
	for _, item := range pending {
		g.Go(func() error {
			if err := p.SyncOne(gctx, item.ID); err != nil {
				p.logger.WarnContext(gctx, "Sync failed",
					log.FieldSubmissionID, item.ID,
					"version", item.Version,
					log.FieldError, err)
				failed.Add(1)
				return nil
			}
			synced.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	res := BatchResult{Total: len(pending), Synced: int(synced.Load()), Failed: int(failed.Load())}
	p.logger.InfoContext(ctx, "Processed pending submissions",
		"total", res.Total,
		"synced", res.Synced,
		"errors", res.Failed)
	return res, nil
}

// Start begins the polling loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for the current batch to finish.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx, p.config.BatchSize); err != nil {
				p.logger.ErrorContext(ctx, "Failed to process pending submissions", log.FieldError, err)
			}
		}
	}
}
