package worker

import (
	"context"
	"fmt"

	"rumba/internal/amqp"
	"rumba/internal/log"
	"rumba/internal/services"
)

// Syncer copies stored submissions to Google Sheets.
type Syncer interface {
	SyncOne(ctx context.Context, id string) error
	ProcessBatch(ctx context.Context, limit int) (services.BatchResult, error)
}

// SyncWorker handles submission messages from AMQP
type SyncWorker struct {
	syncer    Syncer
	batchSize int
	logger    *log.Logger
}

func NewSyncWorker(syncer Syncer, batchSize int, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.NewDiscard()
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		syncer:    syncer,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSubmissionRecorded processes a single submission message. A returned
// error requeues the message.
func (w *SyncWorker) HandleSubmissionRecorded(ctx context.Context, msg *amqp.SubmissionRecordedMessage) error {
	w.logger.InfoContext(ctx, "Processing submission message",
		log.FieldSubmissionID, msg.ID,
		log.FieldKind, msg.Kind,
		log.FieldEventID, msg.EventID,
		"version", msg.Version)

	if err := w.syncer.SyncOne(ctx, msg.ID); err != nil {
		return fmt.Errorf("sync submission %s: %w", msg.ID, err)
	}
	return nil
}

// StartupSyncCheck syncs submissions whose messages were lost while the
// worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	res, err := w.syncer.ProcessBatch(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if res.Total == 0 {
		w.logger.InfoContext(ctx, "No pending submissions found on startup")
		return nil
	}
	w.logger.InfoContext(ctx, "Startup sync completed",
		"total", res.Total,
		"synced", res.Synced,
		"errors", res.Failed)
	return nil
}
