// Package storage is the SQLite backend: both catalogs and both ledgers in
// one database file, schema managed by embedded migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"puntos/internal/core"
	"puntos/internal/ports"

	_ "modernc.org/sqlite"
)

var (
	_ ports.Store           = (*SQLiteRepository)(nil)
	_ ports.CatalogImporter = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// DSN turns a database path into a modernc DSN with WAL and a busy timeout.
// synchronous(FULL) makes every committed append durable.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListActivities(ctx context.Context) (core.Catalog, error) {
	rows, err := r.queries.ListActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list activities: %v", core.ErrConfiguration, err)
	}
	return catalogFromRows("activities", rows)
}

func (r *SQLiteRepository) ListRewards(ctx context.Context) (core.Catalog, error) {
	rows, err := r.queries.ListRecompensas(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list rewards: %v", core.ErrConfiguration, err)
	}
	return catalogFromRows("recompensas", rows)
}

func catalogFromRows(table string, rows []CatalogRow) (core.Catalog, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: table %s is empty, import a catalog first", core.ErrConfiguration, table)
	}
	cat := make(core.Catalog, len(rows))
	for _, row := range rows {
		cat[row.Nombre] = row.Valor
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// ImportCatalog upserts both catalogs in one transaction.
func (r *SQLiteRepository) ImportCatalog(ctx context.Context, activities, rewards core.Catalog) error {
	if err := activities.Validate(); err != nil {
		return err
	}
	if err := rewards.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.StorageWriteError("begin catalog import", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for name, pts := range activities {
		if err := q.UpsertActivity(ctx, name, pts); err != nil {
			return core.StorageWriteError("upsert activity "+name, err)
		}
	}
	for name, cost := range rewards {
		if err := q.UpsertRecompensa(ctx, name, cost); err != nil {
			return core.StorageWriteError("upsert reward "+name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return core.StorageWriteError("commit catalog import", err)
	}

	slog.InfoContext(ctx, "Catalog imported into SQLite",
		"activities", len(activities),
		"rewards", len(rewards))
	return nil
}

func (r *SQLiteRepository) ListActivityRecords(ctx context.Context, person core.Person) ([]core.ActivityRecord, error) {
	rows, err := r.queries.ListRegistroActividades(ctx, string(person))
	if err != nil {
		return nil, fmt.Errorf("list activity records: %w", err)
	}
	out := make([]core.ActivityRecord, 0, len(rows))
	for _, row := range rows {
		date, err := core.ParseDate(row.Fecha)
		if err != nil {
			return nil, core.DataIntegrityError("registro_actividades id %d has bad fecha %q", row.ID, row.Fecha)
		}
		out = append(out, core.ActivityRecord{
			ID:       strconv.FormatInt(row.ID, 10),
			Person:   core.Person(row.Nombre),
			Activity: row.Actividad,
			Date:     date,
			Points:   row.Puntos,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) ListRedemptionRecords(ctx context.Context, person core.Person) ([]core.RedemptionRecord, error) {
	rows, err := r.queries.ListRegistroRecompensas(ctx, string(person))
	if err != nil {
		return nil, fmt.Errorf("list redemption records: %w", err)
	}
	out := make([]core.RedemptionRecord, 0, len(rows))
	for _, row := range rows {
		date, err := core.ParseDate(row.Fecha)
		if err != nil {
			return nil, core.DataIntegrityError("registro_recompensas id %d has bad fecha %q", row.ID, row.Fecha)
		}
		out = append(out, core.RedemptionRecord{
			ID:     strconv.FormatInt(row.ID, 10),
			Person: core.Person(row.Nombre),
			Reward: row.Recompensa,
			Date:   date,
			Cost:   row.Puntos,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) AppendActivity(ctx context.Context, rec core.ActivityRecord) (core.ActivityRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.ActivityRecord{}, err
	}
	id, err := r.queries.CreateRegistroActividad(ctx, CreateRegistroActividadParams{
		Nombre:    string(rec.Person),
		Actividad: rec.Activity,
		Fecha:     rec.Date.String(),
		Puntos:    rec.Points,
	})
	if err != nil {
		return core.ActivityRecord{}, core.StorageWriteError("insert activity record", err)
	}
	rec.ID = strconv.FormatInt(id, 10)

	slog.InfoContext(ctx, "Activity saved to SQLite",
		"id", id,
		"person", rec.Person,
		"activity", rec.Activity,
		"points", rec.Points,
		"date", rec.Date.String())
	return rec, nil
}

func (r *SQLiteRepository) AppendRedemption(ctx context.Context, rec core.RedemptionRecord) (core.RedemptionRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.RedemptionRecord{}, err
	}
	id, err := r.queries.CreateRegistroRecompensa(ctx, CreateRegistroRecompensaParams{
		Nombre:     string(rec.Person),
		Recompensa: rec.Reward,
		Puntos:     rec.Cost,
		Fecha:      rec.Date.String(),
	})
	if err != nil {
		return core.RedemptionRecord{}, core.StorageWriteError("insert redemption record", err)
	}
	rec.ID = strconv.FormatInt(id, 10)

	slog.InfoContext(ctx, "Redemption saved to SQLite",
		"id", id,
		"person", rec.Person,
		"reward", rec.Reward,
		"cost", rec.Cost,
		"date", rec.Date.String())
	return rec, nil
}
