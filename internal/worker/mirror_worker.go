// Package worker consumes ledger events off the broker.
package worker

import (
	"context"
	"fmt"

	"puntos/internal/amqp"
	"puntos/internal/cache"
	"puntos/internal/core"
	applog "puntos/internal/log"
	"puntos/internal/ports"
)

// MirrorWorker copies every announced ledger record into a second ledger,
// e.g. a spreadsheet kept next to the primary sqlite file.
type MirrorWorker struct {
	target ports.Ledger
	seen   cache.Cache[string]
	logger *applog.Logger
}

// NewMirrorWorker mirrors into target. seen remembers handled event IDs so a
// redelivered event is not appended twice; it may be nil.
func NewMirrorWorker(target ports.Ledger, seen cache.Cache[string], logger *applog.Logger) *MirrorWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &MirrorWorker{target: target, seen: seen, logger: logger.WithComponent(applog.ComponentAMQP)}
}

// HandleEvent appends the record carried by ev. A returned error makes the
// consumer requeue the delivery.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	if w.seen != nil {
		if _, dup, err := w.seen.Get(ctx, ev.EventID); err == nil && dup {
			w.logger.DebugContext(ctx, "Skipping duplicate ledger event", "event_id", ev.EventID)
			return nil
		}
	}

	var (
		id  string
		err error
	)
	switch ev.Type {
	case amqp.EventActivityLogged:
		var rec core.ActivityRecord
		rec, err = w.target.AppendActivity(ctx, ActivityFromEvent(ev))
		id = rec.ID
	case amqp.EventRewardRedeemed:
		var rec core.RedemptionRecord
		rec, err = w.target.AppendRedemption(ctx, RedemptionFromEvent(ev))
		id = rec.ID
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to mirror ledger event",
			applog.NewFields().WithOperation(applog.OpMirror).WithError(err).ToSlice()...)
		return fmt.Errorf("mirror %s %s: %w", ev.Type, ev.RecordID, err)
	}

	if w.seen != nil {
		if err := w.seen.Set(ctx, ev.EventID, id); err != nil {
			w.logger.WarnContext(ctx, "Failed to remember mirrored event", "event_id", ev.EventID, applog.FieldError, err.Error())
		}
	}
	w.logger.InfoContext(ctx, "Ledger event mirrored",
		applog.FieldOperation, applog.OpMirror,
		"event_id", ev.EventID,
		"type", ev.Type,
		applog.FieldRecordID, ev.RecordID,
		"mirror_id", id,
	)
	return nil
}

func ActivityFromEvent(ev *amqp.LedgerEvent) core.ActivityRecord {
	return core.ActivityRecord{
		Person:   core.Person(ev.Person),
		Activity: ev.Name,
		Date:     ev.Date,
		Points:   ev.Points,
	}
}

func RedemptionFromEvent(ev *amqp.LedgerEvent) core.RedemptionRecord {
	return core.RedemptionRecord{
		Person: core.Person(ev.Person),
		Reward: ev.Name,
		Date:   ev.Date,
		Cost:   ev.Points,
	}
}
