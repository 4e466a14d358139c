// Package memory is a process-local store seeded from catalogs. Nothing
// survives a restart; it backs demos and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"puntos/internal/core"
	"puntos/internal/ports"
)

var (
	_ ports.Store           = (*Store)(nil)
	_ ports.CatalogImporter = (*Store)(nil)
)

// DefaultActivities and DefaultRewards seed a store started without catalogs.
var (
	DefaultActivities = core.Catalog{"Run 5k": 10, "Swim": 15, "Read 30 min": 5}
	DefaultRewards    = core.Catalog{"Cinema": 20, "Dinner out": 40}
)

type Store struct {
	mu          sync.Mutex
	activities  core.Catalog
	rewards     core.Catalog
	acts        []core.ActivityRecord
	reds        []core.RedemptionRecord
	nextID      int
	failAppends error
}

func New(activities, rewards core.Catalog) *Store {
	if len(activities) == 0 {
		activities = DefaultActivities
	}
	if len(rewards) == 0 {
		rewards = DefaultRewards
	}
	return &Store{activities: activities.Clone(), rewards: rewards.Clone()}
}

// FailAppends makes every subsequent append fail with err (nil restores).
func (s *Store) FailAppends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAppends = err
}

func (s *Store) ListActivities(_ context.Context) (core.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activities.Clone(), nil
}

func (s *Store) ListRewards(_ context.Context) (core.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewards.Clone(), nil
}

// ImportCatalog merges entries into the seeded catalogs.
func (s *Store) ImportCatalog(_ context.Context, activities, rewards core.Catalog) error {
	if err := activities.Validate(); err != nil {
		return err
	}
	if err := rewards.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range activities {
		s.activities[k] = v
	}
	for k, v := range rewards {
		s.rewards[k] = v
	}
	return nil
}

func (s *Store) ListActivityRecords(_ context.Context, person core.Person) ([]core.ActivityRecord, error) {
	s.mu.Lock()
	out := core.FilterActivities(append([]core.ActivityRecord(nil), s.acts...), person)
	s.mu.Unlock()
	core.SortActivitiesNewestFirst(out)
	return out, nil
}

func (s *Store) ListRedemptionRecords(_ context.Context, person core.Person) ([]core.RedemptionRecord, error) {
	s.mu.Lock()
	out := core.FilterRedemptions(append([]core.RedemptionRecord(nil), s.reds...), person)
	s.mu.Unlock()
	core.SortRedemptionsNewestFirst(out)
	return out, nil
}

// AppendActivity stores rec and assigns a synthetic "mem:N" ID.
func (s *Store) AppendActivity(_ context.Context, rec core.ActivityRecord) (core.ActivityRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.ActivityRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppends != nil {
		return core.ActivityRecord{}, core.StorageWriteError("append activity", s.failAppends)
	}
	s.nextID++
	rec.ID = fmt.Sprintf("mem:%d", s.nextID)
	s.acts = append(s.acts, rec)
	return rec, nil
}

func (s *Store) AppendRedemption(_ context.Context, rec core.RedemptionRecord) (core.RedemptionRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.RedemptionRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppends != nil {
		return core.RedemptionRecord{}, core.StorageWriteError("append redemption", s.failAppends)
	}
	s.nextID++
	rec.ID = fmt.Sprintf("mem:%d", s.nextID)
	s.reds = append(s.reds, rec)
	return rec, nil
}
