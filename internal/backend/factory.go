package backend

import (
	"context"
	"fmt"
	"os"

	applog "puntos/internal/log"
	gsheet "puntos/internal/sheets/google"
	"puntos/internal/storage"
	"puntos/internal/storage/file"
	"puntos/internal/storage/memory"
	"puntos/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case FileBackend:
		return f.createFileBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	store := file.New(file.Options{
		Dir:               config.DataDirectory,
		ActivitiesCatalog: config.ActivitiesCatalog,
		RewardsCatalog:    config.RewardsCatalog,
	})

	f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)

	return &BackendResult{
		Store: store,
		Ping: func(context.Context) error {
			_, err := os.Stat(config.DataDirectory)
			return err
		},
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:    repo,
		Importer: repo,
		Ping:     repo.Ping,
		Cleanup:  repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	db, err := postgres.Connect(ctx, config.DatabaseURL, config.MaxConns, config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = postgres.Close(db)
		return nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}
	repo := postgres.NewRepository(db, config.Timeout)

	f.logger.Info("Initialized postgres backend", "max_conns", config.MaxConns, "timeout", config.Timeout)

	return &BackendResult{
		Store:    repo,
		Importer: repo,
		Ping:     repo.Ping,
		Cleanup:  func() error { return postgres.Close(db) },
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.New(ctx, config.Sheets)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend")

	return &BackendResult{
		Store: cli,
		Ping: func(ctx context.Context) error {
			_, err := cli.ListActivities(ctx)
			return err
		},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	store := memory.New(nil, nil)

	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Store:    store,
		Importer: store,
		Ping:     func(context.Context) error { return nil },
	}, nil
}
