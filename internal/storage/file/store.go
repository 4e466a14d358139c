// Package file implements the flat-file backend: catalog files plus two
// append-only JSON array ledgers, laid out like the original app's data dir.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"puntos/internal/core"
	"puntos/internal/ports"
)

const (
	DefaultActivitiesCatalog = "actividades.json"
	DefaultRewardsCatalog    = "recompensas.json"
	ActivitiesLedgerFile     = "registro_actividades.json"
	RedemptionsLedgerFile    = "registro_recompensas.json"
)

// Ensure interface conformance
var _ ports.Store = (*Store)(nil)

type Options struct {
	// Dir holds the ledger files and, unless overridden, the catalog files.
	Dir string
	// ActivitiesCatalog and RewardsCatalog override the catalog file paths.
	ActivitiesCatalog string
	RewardsCatalog    string
}

type Store struct {
	// mu serializes read-modify-write cycles so concurrent appends in one
	// process cannot lose records.
	mu sync.Mutex

	activitiesCatalog string
	rewardsCatalog    string
	activitiesPath    string
	redemptionsPath   string
	newID             func() string
}

type activityRow struct {
	ID        string    `json:"id,omitempty"`
	Nombre    string    `json:"nombre"`
	Actividad string    `json:"actividad"`
	Fecha     core.Date `json:"fecha"`
	Puntos    int64     `json:"puntos"`
}

type redemptionRow struct {
	ID         string    `json:"id,omitempty"`
	Nombre     string    `json:"nombre,omitempty"`
	Recompensa string    `json:"recompensa"`
	Fecha      core.Date `json:"fecha"`
	Costo      int64     `json:"costo"`
}

func New(opts Options) *Store {
	dir := opts.Dir
	if dir == "" {
		dir = "data"
	}
	acts := opts.ActivitiesCatalog
	if acts == "" {
		acts = filepath.Join(dir, DefaultActivitiesCatalog)
	}
	rews := opts.RewardsCatalog
	if rews == "" {
		rews = filepath.Join(dir, DefaultRewardsCatalog)
	}
	return &Store{
		activitiesCatalog: acts,
		rewardsCatalog:    rews,
		activitiesPath:    filepath.Join(dir, ActivitiesLedgerFile),
		redemptionsPath:   filepath.Join(dir, RedemptionsLedgerFile),
		newID:             uuid.NewString,
	}
}

// ListActivities re-reads the activities catalog file on every call.
func (s *Store) ListActivities(_ context.Context) (core.Catalog, error) {
	return LoadCatalogFile(s.activitiesCatalog)
}

// ListRewards re-reads the rewards catalog file on every call.
func (s *Store) ListRewards(_ context.Context) (core.Catalog, error) {
	return LoadCatalogFile(s.rewardsCatalog)
}

// ListActivityRecords returns the activity ledger newest first. A missing
// file is an empty ledger; a corrupt one is reported to the caller.
func (s *Store) ListActivityRecords(_ context.Context, person core.Person) ([]core.ActivityRecord, error) {
	var rows []activityRow
	if err := readLedger(s.activitiesPath, &rows); err != nil {
		return nil, err
	}
	out := make([]core.ActivityRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.ActivityRecord{
			ID:       r.ID,
			Person:   core.Person(r.Nombre),
			Activity: r.Actividad,
			Date:     r.Fecha,
			Points:   r.Puntos,
		})
	}
	out = core.FilterActivities(out, person)
	core.SortActivitiesNewestFirst(out)
	return out, nil
}

func (s *Store) ListRedemptionRecords(_ context.Context, person core.Person) ([]core.RedemptionRecord, error) {
	var rows []redemptionRow
	if err := readLedger(s.redemptionsPath, &rows); err != nil {
		return nil, err
	}
	out := make([]core.RedemptionRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.RedemptionRecord{
			ID:     r.ID,
			Person: core.Person(r.Nombre),
			Reward: r.Recompensa,
			Date:   r.Fecha,
			Cost:   r.Costo,
		})
	}
	out = core.FilterRedemptions(out, person)
	core.SortRedemptionsNewestFirst(out)
	return out, nil
}

// AppendActivity adds rec to the ledger file and returns once it is on disk.
func (s *Store) AppendActivity(ctx context.Context, rec core.ActivityRecord) (core.ActivityRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.ActivityRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []activityRow
	if err := readLedger(s.activitiesPath, &rows); err != nil {
		// Never overwrite a ledger we could not parse.
		return core.ActivityRecord{}, core.StorageWriteError("append activity", err)
	}
	rec.ID = s.newID()
	rows = append(rows, activityRow{
		ID:        rec.ID,
		Nombre:    string(rec.Person),
		Actividad: rec.Activity,
		Fecha:     rec.Date,
		Puntos:    rec.Points,
	})
	if err := writeLedger(s.activitiesPath, rows); err != nil {
		return core.ActivityRecord{}, core.StorageWriteError("append activity", err)
	}
	slog.DebugContext(ctx, "Activity appended to ledger file", "id", rec.ID, "path", s.activitiesPath, "records", len(rows))
	return rec, nil
}

func (s *Store) AppendRedemption(ctx context.Context, rec core.RedemptionRecord) (core.RedemptionRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.RedemptionRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []redemptionRow
	if err := readLedger(s.redemptionsPath, &rows); err != nil {
		return core.RedemptionRecord{}, core.StorageWriteError("append redemption", err)
	}
	rec.ID = s.newID()
	rows = append(rows, redemptionRow{
		ID:         rec.ID,
		Nombre:     string(rec.Person),
		Recompensa: rec.Reward,
		Fecha:      rec.Date,
		Costo:      rec.Cost,
	})
	if err := writeLedger(s.redemptionsPath, rows); err != nil {
		return core.RedemptionRecord{}, core.StorageWriteError("append redemption", err)
	}
	slog.DebugContext(ctx, "Redemption appended to ledger file", "id", rec.ID, "path", s.redemptionsPath, "records", len(rows))
	return rec, nil
}

func readLedger(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read ledger %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse ledger %s: %w", path, err)
	}
	return nil
}

// writeLedger replaces path atomically: temp file, fsync, rename.
func writeLedger(path string, v any) error {
	body, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		d.Close()
	}
	return nil
}
