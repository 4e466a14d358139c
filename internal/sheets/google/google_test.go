package google

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puntos/internal/core"
)

// fakeValues keeps tabs in memory, keyed by sheet name.
type fakeValues struct {
	mu        sync.Mutex
	tabs      map[string][][]any
	getErr    error
	appendErr error
	lastRange string
}

func (f *fakeValues) Get(_ context.Context, rng string) ([][]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.tabs[sheetOf(rng)], nil
}

func (f *fakeValues) Append(ctx context.Context, rng string, row []any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("append without deadline")
	}
	if f.appendErr != nil {
		return f.appendErr
	}
	f.lastRange = rng
	f.tabs[sheetOf(rng)] = append(f.tabs[sheetOf(rng)], row)
	return nil
}

func sheetOf(rng string) string {
	name, _, _ := strings.Cut(rng, "!")
	return name
}

func newFakeClient() (*Client, *fakeValues) {
	fv := &fakeValues{tabs: map[string][][]any{
		DefaultActivitiesSheet:  {{"nombre", "puntos"}, {"Run 5k", "10"}, {"Swim", 15.0}},
		DefaultRewardsSheet:     {{"nombre", "costo"}, {"Cinema", "20"}},
		DefaultActivityLogSheet: {{"id", "nombre", "actividad", "fecha", "puntos"}},
		DefaultRewardLogSheet:   {{"id", "nombre", "recompensa", "puntos", "fecha"}},
	}}
	c := newClient(fv, Config{Timeout: time.Second})
	n := 0
	c.newID = func() string { n++; return "row-" + string(rune('0'+n)) }
	return c, fv
}

func TestClientCatalogs(t *testing.T) {
	c, _ := newFakeClient()
	acts, err := c.ListActivities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.Catalog{"Run 5k": 10, "Swim": 15}, acts)

	rews, err := c.ListRewards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.Catalog{"Cinema": 20}, rews)
}

func TestClientCatalogReadFailureIsConfigurationError(t *testing.T) {
	c, fv := newFakeClient()
	fv.getErr = errors.New("403 forbidden")
	_, err := c.ListActivities(context.Background())
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestClientLedgerRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, fv := newFakeClient()

	rec, err := c.AppendActivity(ctx, core.ActivityRecord{
		Person: "Josse", Activity: "Run 5k", Date: core.NewDate(2024, 1, 1), Points: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "row-1", rec.ID)
	assert.Equal(t, "registro_actividades!A:E", fv.lastRange)

	_, err = c.AppendActivity(ctx, core.ActivityRecord{
		Person: "Tomi", Activity: "Swim", Date: core.NewDate(2024, 1, 2), Points: 15,
	})
	require.NoError(t, err)

	red, err := c.AppendRedemption(ctx, core.RedemptionRecord{
		Person: "Josse", Reward: "Cinema", Date: core.NewDate(2024, 1, 3), Cost: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"row-3", "Josse", "Cinema", int64(20), "2024-01-03"}, fv.tabs[DefaultRewardLogSheet][1])

	all, err := c.ListActivityRecords(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, core.Person("Tomi"), all[0].Person)
	assert.Equal(t, rec, all[1])

	josse, err := c.ListActivityRecords(ctx, "Josse")
	require.NoError(t, err)
	assert.Len(t, josse, 1)

	reds, err := c.ListRedemptionRecords(ctx, "Josse")
	require.NoError(t, err)
	assert.Equal(t, []core.RedemptionRecord{red}, reds)
}

func TestClientAppendFailureIsStorageWriteError(t *testing.T) {
	c, fv := newFakeClient()
	fv.appendErr = errors.New("quota exceeded")
	_, err := c.AppendRedemption(context.Background(), core.RedemptionRecord{
		Person: "Josse", Reward: "Cinema", Date: core.NewDate(2024, 1, 3), Cost: 20,
	})
	assert.ErrorIs(t, err, core.ErrStorageWrite)
	assert.Len(t, fv.tabs[DefaultRewardLogSheet], 1)
}

func TestClientAppendValidatesBeforeWriting(t *testing.T) {
	c, fv := newFakeClient()
	_, err := c.AppendActivity(context.Background(), core.ActivityRecord{Person: "Josse", Activity: "Swim"})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Empty(t, fv.lastRange)
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, core.ErrConfiguration)
}
