package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puntos/internal/amqp"
	"puntos/internal/cache"
	"puntos/internal/core"
	"puntos/internal/storage/memory"
)

func TestMirrorWorkerAppendsEachEventOnce(t *testing.T) {
	ctx := context.Background()
	target := memory.New(nil, nil)
	w := NewMirrorWorker(target, cache.NewLRUCache[string](100, time.Hour), nil)

	act := amqp.NewActivityLoggedEvent(core.ActivityRecord{
		ID: "1", Person: "Josse", Activity: "Swim", Date: core.NewDate(2024, 1, 2), Points: 15,
	})
	red := amqp.NewRewardRedeemedEvent(core.RedemptionRecord{
		ID: "2", Person: "Josse", Reward: "Cinema", Date: core.NewDate(2024, 1, 3), Cost: 20,
	})

	require.NoError(t, w.HandleEvent(ctx, act))
	require.NoError(t, w.HandleEvent(ctx, act), "redelivery")
	require.NoError(t, w.HandleEvent(ctx, red))

	acts, err := target.ListActivityRecords(ctx, "")
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.EqualValues(t, 15, acts[0].Points)
	assert.Equal(t, core.NewDate(2024, 1, 2), acts[0].Date)

	reds, err := target.ListRedemptionRecords(ctx, "Josse")
	require.NoError(t, err)
	require.Len(t, reds, 1)
	assert.EqualValues(t, 20, reds[0].Cost)

	bal, err := core.CurrentBalance(acts, reds)
	require.NoError(t, err)
	assert.EqualValues(t, -5, bal)
}

func TestMirrorWorkerReturnsErrorsForRequeue(t *testing.T) {
	ctx := context.Background()
	target := memory.New(nil, nil)
	target.FailAppends(errors.New("sheet quota exceeded"))
	seen := cache.NewLRUCache[string](10, time.Hour)
	w := NewMirrorWorker(target, seen, nil)

	ev := amqp.NewActivityLoggedEvent(core.ActivityRecord{
		ID: "1", Person: "Tomi", Activity: "Swim", Date: core.NewDate(2024, 1, 2), Points: 15,
	})
	err := w.HandleEvent(ctx, ev)
	assert.ErrorIs(t, err, core.ErrStorageWrite)

	_, ok, _ := seen.Get(ctx, ev.EventID)
	assert.False(t, ok, "failed events must be retried")

	err = w.HandleEvent(ctx, &amqp.LedgerEvent{EventID: "x", Type: "balance.changed"})
	assert.Error(t, err)
}
