package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rumba/internal/adapters"
	"rumba/internal/amqp"
	"rumba/internal/log"
	"rumba/internal/notify"
	"rumba/internal/services"
	gsheet "rumba/internal/sheets/google"
	"rumba/internal/sheets/memory"
	"rumba/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.NewDiscard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var opts []services.SubmissionOption
	if config.ResendAPIKey != "" && len(config.NotifyTo) > 0 {
		opts = append(opts, services.WithNotifier(
			notify.NewResendNotifier(config.ResendAPIKey, config.NotifyFrom, config.NotifyTo, f.logger)))
		f.logger.Info("Submission emails enabled", log.FieldCount, len(config.NotifyTo))
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config, opts)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		res = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if res.Submissions == nil {
		res.Submissions = services.NewSubmissionService(res.Backend, res.Backend, f.logger, opts...)
	}
	res.Events = services.NewEventService(res.Backend, f.logger)
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config, opts []services.SubmissionOption) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional: without it the worker's polling fallback syncs.
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync messages", log.FieldError, err)
		} else {
			opts = append(opts, services.WithPublisher(amqpClient))
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}
	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"schema_version", repo.SchemaVersion(),
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Backend:     repo,
		Submissions: services.NewSubmissionService(repo, repo, f.logger, opts...),
		Ping:        repo.Ping,
		Cleanup: func() error {
			var errs []error
			if amqpClient != nil {
				if err := amqpClient.Close(); err != nil {
					errs = append(errs, fmt.Errorf("amqp: %w", err))
				}
			}
			if err := repo.Close(); err != nil {
				errs = append(errs, fmt.Errorf("storage: %w", err))
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:    config.GoogleSpreadsheetID,
		SubmissionsSheet: config.GoogleSubmissionsSheet,
		CredentialsJSON:  config.GoogleServiceAccountJSON,
		CredentialsFile:  config.GoogleServiceAccountFile,
		Logger:           f.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)

	return &BackendResult{
		Backend: adapters.NewSheetsAdapter(cli, storage.DefaultRevenueGoal),
		Ping:    cli.Ping,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	f.logger.Info("Initialized memory backend with seeded catalog")
	return &BackendResult{Backend: memory.NewSeeded(time.Now())}
}
