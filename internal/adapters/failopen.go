// Package adapters decorates the raw stores with the read policy the
// dashboard relies on: fail-open ledger reads and a cached catalog.
package adapters

import (
	"context"
	"errors"

	"puntos/internal/core"
	applog "puntos/internal/log"
	"puntos/internal/metrics"
	"puntos/internal/ports"
)

const (
	StreamActivities  = "activities"
	StreamRedemptions = "redemptions"
)

var _ ports.Ledger = (*FailOpenLedger)(nil)

// FailOpenLedger turns ledger read failures into empty results so the
// dashboard keeps rendering. Appends are never softened.
type FailOpenLedger struct {
	next    ports.Ledger
	logger  *applog.Logger
	metrics *metrics.Metrics
}

// NewFailOpenLedger wraps next; m may be nil.
func NewFailOpenLedger(next ports.Ledger, logger *applog.Logger, m *metrics.Metrics) *FailOpenLedger {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &FailOpenLedger{next: next, logger: logger.WithComponent(applog.ComponentLedger), metrics: m}
}

func (l *FailOpenLedger) ListActivityRecords(ctx context.Context, person core.Person) ([]core.ActivityRecord, error) {
	recs, err := l.next.ListActivityRecords(ctx, person)
	if err != nil {
		l.readFailed(ctx, StreamActivities, err)
		return []core.ActivityRecord{}, nil
	}
	return recs, nil
}

func (l *FailOpenLedger) ListRedemptionRecords(ctx context.Context, person core.Person) ([]core.RedemptionRecord, error) {
	recs, err := l.next.ListRedemptionRecords(ctx, person)
	if err != nil {
		l.readFailed(ctx, StreamRedemptions, err)
		return []core.RedemptionRecord{}, nil
	}
	return recs, nil
}

func (l *FailOpenLedger) AppendActivity(ctx context.Context, rec core.ActivityRecord) (core.ActivityRecord, error) {
	saved, err := l.next.AppendActivity(ctx, rec)
	if err != nil {
		l.writeFailed(ctx, StreamActivities, err)
	}
	return saved, err
}

func (l *FailOpenLedger) AppendRedemption(ctx context.Context, rec core.RedemptionRecord) (core.RedemptionRecord, error) {
	saved, err := l.next.AppendRedemption(ctx, rec)
	if err != nil {
		l.writeFailed(ctx, StreamRedemptions, err)
	}
	return saved, err
}

func (l *FailOpenLedger) readFailed(ctx context.Context, stream string, err error) {
	l.logger.WarnContext(ctx, "Ledger read failed, serving empty stream",
		append(applog.NewFields().WithOperation(applog.OpList).WithError(err).ToSlice(),
			applog.FieldStream, stream)...,
	)
	if l.metrics != nil {
		l.metrics.LedgerReadFailures.WithLabelValues(stream).Inc()
	}
}

func (l *FailOpenLedger) writeFailed(ctx context.Context, stream string, err error) {
	if !errors.Is(err, core.ErrStorageWrite) {
		return
	}
	l.logger.ErrorContext(ctx, "Ledger append failed",
		append(applog.NewFields().WithOperation(applog.OpAppend).WithError(err).ToSlice(),
			applog.FieldStream, stream)...,
	)
	if l.metrics != nil {
		l.metrics.LedgerWriteErrors.WithLabelValues(stream).Inc()
	}
}
