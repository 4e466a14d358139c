package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"puntos/internal/core"
	applog "puntos/internal/log"
	"puntos/internal/metrics"
	"puntos/internal/ports"
)

// MaxRollupDays bounds the rollup window a caller may ask for.
const MaxRollupDays = 366

// Reloader is implemented by catalog sources that hold a snapshot.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Options configures a PointsService. Catalog and Ledger are required.
type Options struct {
	Catalog   ports.CatalogReader
	Ledger    ports.Ledger
	Roster    core.Roster
	Publisher ports.EventPublisher
	Metrics   *metrics.Metrics
	Logger    *applog.Logger
	// Now and Location decide what "today" is. Defaults: time.Now, time.Local.
	Now      func() time.Time
	Location *time.Location
}

// PointsService orchestrates catalog lookups, ledger appends and balance
// queries for the two roster members.
type PointsService struct {
	catalog   ports.CatalogReader
	ledger    ports.Ledger
	roster    core.Roster
	publisher ports.EventPublisher
	metrics   *metrics.Metrics
	logger    *applog.Logger
	now       func() time.Time
	loc       *time.Location
}

func NewPointsService(opts Options) (*PointsService, error) {
	if opts.Catalog == nil || opts.Ledger == nil {
		return nil, fmt.Errorf("%w: points service needs a catalog and a ledger", core.ErrConfiguration)
	}
	roster := opts.Roster
	if roster == (core.Roster{}) {
		roster = core.DefaultRoster
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &PointsService{
		catalog:   opts.Catalog,
		ledger:    opts.Ledger,
		roster:    roster,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logger:    logger.WithComponent(applog.ComponentPoints),
		now:       now,
		loc:       loc,
	}, nil
}

// Roster returns the two people this service accepts.
func (s *PointsService) Roster() core.Roster { return s.roster }

// Today is the current calendar date in the configured location.
func (s *PointsService) Today() core.Date {
	return core.DateOf(s.now().In(s.loc))
}

// Catalogs bundles both catalogs for the dashboard and the API.
type Catalogs struct {
	Activities core.Catalog `json:"activities"`
	Rewards    core.Catalog `json:"rewards"`
}

func (s *PointsService) Catalog(ctx context.Context) (Catalogs, error) {
	acts, err := s.catalog.ListActivities(ctx)
	if err != nil {
		return Catalogs{}, fmt.Errorf("list activities: %w", err)
	}
	rews, err := s.catalog.ListRewards(ctx)
	if err != nil {
		return Catalogs{}, fmt.Errorf("list rewards: %w", err)
	}
	return Catalogs{Activities: acts, Rewards: rews}, nil
}

// ReloadCatalog drops any cached snapshot and returns the fresh catalogs.
func (s *PointsService) ReloadCatalog(ctx context.Context) (Catalogs, error) {
	if r, ok := s.catalog.(Reloader); ok {
		if err := r.Reload(ctx); err != nil {
			return Catalogs{}, fmt.Errorf("reload catalog: %w", err)
		}
	}
	return s.Catalog(ctx)
}

// LogActivity records that person completed activity on date, worth the
// catalog's current points. A zero date means today.
func (s *PointsService) LogActivity(ctx context.Context, person, activity string, date core.Date) (core.ActivityRecord, error) {
	p, err := s.roster.Resolve(person)
	if err != nil {
		return core.ActivityRecord{}, err
	}
	acts, err := s.catalog.ListActivities(ctx)
	if err != nil {
		return core.ActivityRecord{}, fmt.Errorf("list activities: %w", err)
	}
	points, err := acts.Lookup("activity", activity)
	if err != nil {
		return core.ActivityRecord{}, err
	}
	if date.IsZero() {
		date = s.Today()
	}
	return s.appendActivity(ctx, core.ActivityRecord{Person: p, Activity: activity, Date: date, Points: points})
}

// Redeem records that person spent the reward's current cost on date.
// A zero date means today. The balance may go negative.
func (s *PointsService) Redeem(ctx context.Context, person, reward string, date core.Date) (core.RedemptionRecord, error) {
	p, err := s.roster.Resolve(person)
	if err != nil {
		return core.RedemptionRecord{}, err
	}
	rews, err := s.catalog.ListRewards(ctx)
	if err != nil {
		return core.RedemptionRecord{}, fmt.Errorf("list rewards: %w", err)
	}
	cost, err := rews.Lookup("reward", reward)
	if err != nil {
		return core.RedemptionRecord{}, err
	}
	if date.IsZero() {
		date = s.Today()
	}
	return s.appendRedemption(ctx, core.RedemptionRecord{Person: p, Reward: reward, Date: date, Cost: cost})
}

// AppendActivity stores a fully specified record. The person must be on the
// roster and the activity in the catalog; the points are taken as given.
func (s *PointsService) AppendActivity(ctx context.Context, rec core.ActivityRecord) (core.ActivityRecord, error) {
	p, err := s.roster.Resolve(string(rec.Person))
	if err != nil {
		return core.ActivityRecord{}, err
	}
	rec.Person = p
	acts, err := s.catalog.ListActivities(ctx)
	if err != nil {
		return core.ActivityRecord{}, fmt.Errorf("list activities: %w", err)
	}
	if _, err := acts.Lookup("activity", rec.Activity); err != nil {
		return core.ActivityRecord{}, err
	}
	return s.appendActivity(ctx, rec)
}

func (s *PointsService) AppendRedemption(ctx context.Context, rec core.RedemptionRecord) (core.RedemptionRecord, error) {
	p, err := s.roster.Resolve(string(rec.Person))
	if err != nil {
		return core.RedemptionRecord{}, err
	}
	rec.Person = p
	rews, err := s.catalog.ListRewards(ctx)
	if err != nil {
		return core.RedemptionRecord{}, fmt.Errorf("list rewards: %w", err)
	}
	if _, err := rews.Lookup("reward", rec.Reward); err != nil {
		return core.RedemptionRecord{}, err
	}
	return s.appendRedemption(ctx, rec)
}

func (s *PointsService) appendActivity(ctx context.Context, rec core.ActivityRecord) (core.ActivityRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.ActivityRecord{}, err
	}
	saved, err := s.ledger.AppendActivity(ctx, rec)
	if err != nil {
		return core.ActivityRecord{}, fmt.Errorf("append activity: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ActivitiesLogged.WithLabelValues(string(saved.Person)).Inc()
		s.metrics.PointsAwarded.WithLabelValues(string(saved.Person)).Add(float64(saved.Points))
	}
	s.logger.InfoContext(ctx, "Activity logged", applog.NewFields().WithActivity(saved).ToSlice()...)

	if s.publisher != nil {
		if err := s.publisher.PublishActivityLogged(ctx, saved); err != nil {
			s.publishFailed(ctx, saved.ID, err)
		}
	}
	return saved, nil
}

func (s *PointsService) appendRedemption(ctx context.Context, rec core.RedemptionRecord) (core.RedemptionRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.RedemptionRecord{}, err
	}
	saved, err := s.ledger.AppendRedemption(ctx, rec)
	if err != nil {
		return core.RedemptionRecord{}, fmt.Errorf("append redemption: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RewardsRedeemed.WithLabelValues(string(saved.Person)).Inc()
		s.metrics.PointsSpent.WithLabelValues(string(saved.Person)).Add(float64(saved.Cost))
	}
	s.logger.InfoContext(ctx, "Reward redeemed", applog.NewFields().WithRedemption(saved).ToSlice()...)

	if s.publisher != nil {
		if err := s.publisher.PublishRewardRedeemed(ctx, saved); err != nil {
			s.publishFailed(ctx, saved.ID, err)
		}
	}
	return saved, nil
}

// The record is already durable; a lost event is only logged.
func (s *PointsService) publishFailed(ctx context.Context, id string, err error) {
	s.logger.ErrorContext(ctx, "Failed to publish ledger event",
		applog.FieldRecordID, id,
		applog.FieldOperation, applog.OpPublish,
		applog.FieldError, err.Error(),
	)
	if s.metrics != nil {
		s.metrics.EventPublishErrors.Inc()
	}
}

// Records returns both ledgers newest first; person "" means everyone.
func (s *PointsService) Records(ctx context.Context, person string) ([]core.ActivityRecord, []core.RedemptionRecord, error) {
	p, err := s.roster.ResolveFilter(person)
	if err != nil {
		return nil, nil, err
	}
	return s.load(ctx, p)
}

func (s *PointsService) Activities(ctx context.Context, person string) ([]core.ActivityRecord, error) {
	p, err := s.roster.ResolveFilter(person)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListActivityRecords(ctx, p)
}

func (s *PointsService) Redemptions(ctx context.Context, person string) ([]core.RedemptionRecord, error) {
	p, err := s.roster.ResolveFilter(person)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListRedemptionRecords(ctx, p)
}

// Balance is earned minus spent for person, or for both when person is "".
func (s *PointsService) Balance(ctx context.Context, person string) (int64, error) {
	acts, reds, err := s.Records(ctx, person)
	if err != nil {
		return 0, err
	}
	return core.CurrentBalance(acts, reds)
}

// Rollup returns per-day activity points for the days ending on end.
// A zero end means today; days above MaxRollupDays are capped.
func (s *PointsService) Rollup(ctx context.Context, person string, days int, end core.Date) ([]core.DayPoints, error) {
	if days < 1 {
		return nil, &core.ValidationError{Field: "days", Reason: fmt.Sprintf("must be at least 1, got %d", days)}
	}
	if days > MaxRollupDays {
		days = MaxRollupDays
	}
	if end.IsZero() {
		end = s.Today()
	}
	acts, err := s.Activities(ctx, person)
	if err != nil {
		return nil, err
	}
	start, end := core.LastDays(end, days)
	return core.DailyRollup(acts, start, end)
}

// Summary is everything the dashboard shows for person, or both when "".
func (s *PointsService) Summary(ctx context.Context, person string) (core.Summary, error) {
	p, err := s.roster.ResolveFilter(person)
	if err != nil {
		return core.Summary{}, err
	}
	acts, reds, err := s.load(ctx, p)
	if err != nil {
		return core.Summary{}, err
	}
	earned, err := core.TotalPoints(acts)
	if err != nil {
		return core.Summary{}, err
	}
	spent, err := core.TotalCost(reds)
	if err != nil {
		return core.Summary{}, err
	}
	start, end := core.LastDays(s.Today(), core.DefaultRollupDays)
	rollup, err := core.DailyRollup(acts, start, end)
	if err != nil {
		return core.Summary{}, err
	}
	if acts == nil {
		acts = []core.ActivityRecord{}
	}
	if reds == nil {
		reds = []core.RedemptionRecord{}
	}
	return core.Summary{
		Person:      p,
		Earned:      earned,
		Spent:       spent,
		Balance:     earned - spent,
		Rollup:      rollup,
		Activities:  acts,
		Redemptions: reds,
	}, nil
}

// load reads both ledgers concurrently.
func (s *PointsService) load(ctx context.Context, p core.Person) ([]core.ActivityRecord, []core.RedemptionRecord, error) {
	var (
		acts []core.ActivityRecord
		reds []core.RedemptionRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		acts, err = s.ledger.ListActivityRecords(gctx, p)
		if err != nil {
			return fmt.Errorf("list activity records: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		reds, err = s.ledger.ListRedemptionRecords(gctx, p)
		if err != nil {
			return fmt.Errorf("list redemption records: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return acts, reds, nil
}
