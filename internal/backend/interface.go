package backend

import (
	"context"
	"time"

	"puntos/internal/ports"
	gsheet "puntos/internal/sheets/google"
)

// BackendType names a storage backend.
type BackendType string

const (
	FileBackend     BackendType = "file"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	SheetsBackend   BackendType = "sheets"
	MemoryBackend   BackendType = "memory"
)

// IsValid reports whether t names a known backend.
func (t BackendType) IsValid() bool {
	switch t {
	case FileBackend, SQLiteBackend, PostgresBackend, SheetsBackend, MemoryBackend:
		return true
	}
	return false
}

func (t BackendType) String() string { return string(t) }

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// PingFunc checks the backend is reachable.
type PingFunc func(ctx context.Context) error

// BackendResult contains the store and what else the backend supports.
type BackendResult struct {
	Store ports.Store
	// Importer is nil for backends whose catalog is not writable.
	Importer ports.CatalogImporter
	Ping     PingFunc
	Cleanup  CleanupFunc
}

// Close runs the cleanup function if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// File backend
	DataDirectory     string
	ActivitiesCatalog string
	RewardsCatalog    string

	// SQLite
	SQLiteDBPath string

	// Postgres
	DatabaseURL string
	MaxConns    int

	// Google Sheets
	Sheets gsheet.Config

	// Timeout bounds every call to a networked backend.
	Timeout time.Duration
}
