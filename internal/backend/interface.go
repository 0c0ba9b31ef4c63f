package backend

import (
	"context"

	ports "rumba/internal/sheets"
	"rumba/internal/services"
)

// Backend represents a unified backend interface that provides all necessary operations
type Backend interface {
	ports.EventCatalog
	ports.SubmissionWriter
	ports.SubmissionLister
	ports.DashboardReader
	ports.ReportReader
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance, the services built on it
// and an optional cleanup function
type BackendResult struct {
	Backend     Backend
	Submissions *services.SubmissionService
	Events      *services.EventService
	Cleanup     CleanupFunc
	// Ping checks the backend for /readyz. Nil means always ready.
	Ping func(ctx context.Context) error
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
