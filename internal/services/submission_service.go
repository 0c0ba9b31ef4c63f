package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rumba/internal/core"
	"rumba/internal/log"
	ports "rumba/internal/sheets"
)

// Publisher announces stored submissions to the sync worker.
type Publisher interface {
	PublishSubmissionRecorded(ctx context.Context, id, kind, eventID string, version int64) error
}

// Notifier sends a notice about a stored submission.
type Notifier interface {
	NotifySubmission(ctx context.Context, s core.Submission, event core.Event) error
}

// SubmissionService records aggregated form payloads. The store write is
// the only step that can fail a submission; publish and notify are best effort.
type SubmissionService struct {
	store     ports.SubmissionWriter
	catalog   ports.EventCatalog
	publisher Publisher
	notifier  Notifier
	logger    *log.Logger
	events    *log.StructuredLogger
}

type SubmissionOption func(*SubmissionService)

// WithPublisher enables the AMQP announcement after each write.
func WithPublisher(p Publisher) SubmissionOption {
	return func(s *SubmissionService) { s.publisher = p }
}

// WithNotifier enables submission emails.
func WithNotifier(n Notifier) SubmissionOption {
	return func(s *SubmissionService) { s.notifier = n }
}

func NewSubmissionService(store ports.SubmissionWriter, catalog ports.EventCatalog, logger *log.Logger, opts ...SubmissionOption) *SubmissionService {
	if logger == nil {
		logger = log.NewDiscard()
	}
	s := &SubmissionService{
		store:   store,
		catalog: catalog,
		logger:  logger.WithComponent(log.ComponentSubmission),
		events:  log.NewStructuredLogger(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record stores a submission and returns the backend row reference.
// A missing ID or timestamp is filled in.
func (s *SubmissionService) Record(ctx context.Context, sub core.Submission) (string, error) {
	if s.store == nil {
		return "", errors.New("submission store not configured")
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	ref, err := s.store.Append(ctx, sub)
	if err != nil {
		return "", fmt.Errorf("save submission: %w", err)
	}
	s.events.LogSubmissionRecorded(ctx, sub.ID, string(sub.Kind), sub.EventID, ref, sub)

	if s.publisher != nil {
		// Version 1 for a fresh submission; retries bump it in storage.
		if err := s.publisher.PublishSubmissionRecorded(ctx, sub.ID, string(sub.Kind), sub.EventID, 1); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish submission message",
				log.FieldSubmissionID, sub.ID,
				log.FieldError, err)
		}
	}

	if s.notifier != nil {
		event := core.Event{ID: sub.EventID}
		if s.catalog != nil {
			if e, err := s.catalog.GetEvent(ctx, sub.EventID); err == nil {
				event = e
			}
		}
		if err := s.notifier.NotifySubmission(ctx, sub, event); err != nil {
			s.logger.WarnContext(ctx, "Failed to send submission notification",
				log.FieldSubmissionID, sub.ID,
				log.FieldError, err)
		}
	}

	return ref, nil
}
