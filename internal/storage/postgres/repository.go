package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"puntos/internal/core"
	"puntos/internal/ports"
)

var (
	_ ports.Store           = (*Repository)(nil)
	_ ports.CatalogImporter = (*Repository)(nil)
)

// Repository runs every call under a fixed timeout.
type Repository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewRepository(db *gorm.DB, timeout time.Duration) *Repository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Repository{db: db, timeout: timeout}
}

func (r *Repository) withTimeout(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx), cancel
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (r *Repository) ListActivities(ctx context.Context) (core.Catalog, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []activityModel
	if err := db.Order("puntos, nombre").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list activities: %v", core.ErrConfiguration, err)
	}
	cat := make(core.Catalog, len(rows))
	for _, row := range rows {
		cat[row.Nombre] = row.Puntos
	}
	return checkCatalog("activities", cat)
}

func (r *Repository) ListRewards(ctx context.Context) (core.Catalog, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []recompensaModel
	if err := db.Order("costo, nombre").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list rewards: %v", core.ErrConfiguration, err)
	}
	cat := make(core.Catalog, len(rows))
	for _, row := range rows {
		cat[row.Nombre] = row.Costo
	}
	return checkCatalog("recompensas", cat)
}

func checkCatalog(table string, cat core.Catalog) (core.Catalog, error) {
	if len(cat) == 0 {
		return nil, fmt.Errorf("%w: table %s is empty, import a catalog first", core.ErrConfiguration, table)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// ImportCatalog upserts both catalogs in one transaction.
func (r *Repository) ImportCatalog(ctx context.Context, activities, rewards core.Catalog) error {
	if err := activities.Validate(); err != nil {
		return err
	}
	if err := rewards.Validate(); err != nil {
		return err
	}
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		for name, pts := range activities {
			m := activityModel{Nombre: name, Puntos: pts}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "nombre"}},
				DoUpdates: clause.AssignmentColumns([]string{"puntos"}),
			}).Create(&m).Error; err != nil {
				return fmt.Errorf("upsert activity %s: %w", name, err)
			}
		}
		for name, cost := range rewards {
			m := recompensaModel{Nombre: name, Costo: cost}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "nombre"}},
				DoUpdates: clause.AssignmentColumns([]string{"costo"}),
			}).Create(&m).Error; err != nil {
				return fmt.Errorf("upsert reward %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return core.StorageWriteError("import catalog", err)
	}
	slog.InfoContext(ctx, "Catalog imported into Postgres", "activities", len(activities), "rewards", len(rewards))
	return nil
}

func (r *Repository) ListActivityRecords(ctx context.Context, person core.Person) ([]core.ActivityRecord, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	q := db.Order("fecha DESC, id DESC")
	if person != "" {
		q = q.Where("nombre = ?", string(person))
	}
	var rows []registroActividadModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list activity records: %w", err)
	}
	out := make([]core.ActivityRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := activityFromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Repository) ListRedemptionRecords(ctx context.Context, person core.Person) ([]core.RedemptionRecord, error) {
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	q := db.Order("fecha DESC, id DESC")
	if person != "" {
		q = q.Where("nombre = ?", string(person))
	}
	var rows []registroRecompensaModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list redemption records: %w", err)
	}
	out := make([]core.RedemptionRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := redemptionFromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Repository) AppendActivity(ctx context.Context, rec core.ActivityRecord) (core.ActivityRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.ActivityRecord{}, err
	}
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	m := activityToModel(rec)
	if err := db.Create(&m).Error; err != nil {
		return core.ActivityRecord{}, core.StorageWriteError("insert activity record", err)
	}
	saved, err := activityFromModel(m)
	if err != nil {
		return core.ActivityRecord{}, err
	}
	slog.InfoContext(ctx, "Activity saved to Postgres", "id", m.ID, "person", rec.Person, "activity", rec.Activity)
	return saved, nil
}

func (r *Repository) AppendRedemption(ctx context.Context, rec core.RedemptionRecord) (core.RedemptionRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.RedemptionRecord{}, err
	}
	db, cancel := r.withTimeout(ctx)
	defer cancel()

	m := redemptionToModel(rec)
	if err := db.Create(&m).Error; err != nil {
		return core.RedemptionRecord{}, core.StorageWriteError("insert redemption record", err)
	}
	saved, err := redemptionFromModel(m)
	if err != nil {
		return core.RedemptionRecord{}, err
	}
	slog.InfoContext(ctx, "Redemption saved to Postgres", "id", m.ID, "person", rec.Person, "reward", rec.Reward)
	return saved, nil
}
