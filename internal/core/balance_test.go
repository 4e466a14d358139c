package core

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioActivities() []ActivityRecord {
	return []ActivityRecord{
		{Person: "A", Activity: "Run 5k", Date: NewDate(2024, 1, 1), Points: 10},
		{Person: "A", Activity: "Swim", Date: NewDate(2024, 1, 2), Points: 15},
	}
}

func TestCurrentBalanceScenario(t *testing.T) {
	acts := scenarioActivities()

	bal, err := CurrentBalance(acts, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 25, bal)

	reds := []RedemptionRecord{{Person: "A", Reward: "Cinema", Date: NewDate(2024, 1, 3), Cost: 20}}
	bal, err = CurrentBalance(acts, reds)
	require.NoError(t, err)
	assert.EqualValues(t, 5, bal)
}

func TestCurrentBalanceIsOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var acts []ActivityRecord
	var reds []RedemptionRecord
	var want int64
	for i := 0; i < 50; i++ {
		p := int64(rng.Intn(30))
		acts = append(acts, ActivityRecord{Person: "A", Activity: "x", Date: NewDate(2024, 1, 1+i%28), Points: p})
		want += p
		if i%3 == 0 {
			c := int64(rng.Intn(20))
			reds = append(reds, RedemptionRecord{Person: "B", Reward: "y", Date: NewDate(2024, 2, 1), Cost: c})
			want -= c
		}
	}

	for round := 0; round < 10; round++ {
		rng.Shuffle(len(acts), func(i, j int) { acts[i], acts[j] = acts[j], acts[i] })
		rng.Shuffle(len(reds), func(i, j int) { reds[i], reds[j] = reds[j], reds[i] })
		got, err := CurrentBalance(acts, reds)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestCurrentBalanceCanGoNegative(t *testing.T) {
	bal, err := CurrentBalance(nil, []RedemptionRecord{{Cost: 7}})
	require.NoError(t, err)
	assert.EqualValues(t, -7, bal)
}

func TestCurrentBalanceRejectsCorruptRecords(t *testing.T) {
	_, err := CurrentBalance([]ActivityRecord{{Activity: "Swim", Points: -1}}, nil)
	assert.ErrorIs(t, err, ErrDataIntegrity)

	_, err = CurrentBalance(nil, []RedemptionRecord{{Reward: "Cinema", Cost: -1}})
	assert.ErrorIs(t, err, ErrDataIntegrity)

	_, err = CurrentBalance([]ActivityRecord{{Points: math.MaxInt64}, {Points: 1}}, nil)
	assert.ErrorIs(t, err, ErrDataIntegrity)
}

func TestDailyRollupScenario(t *testing.T) {
	got, err := DailyRollup(scenarioActivities(), NewDate(2024, 1, 1), NewDate(2024, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, []DayPoints{
		{Date: NewDate(2024, 1, 1), Points: 10},
		{Date: NewDate(2024, 1, 2), Points: 15},
		{Date: NewDate(2024, 1, 3), Points: 0},
	}, got)
}

func TestDailyRollupHasOneEntryPerDay(t *testing.T) {
	start := NewDate(2024, 2, 25)
	for n := 1; n <= 40; n++ {
		end := start.AddDays(n - 1)
		got, err := DailyRollup(nil, start, end)
		require.NoError(t, err)
		require.Len(t, got, n)
		for i, day := range got {
			assert.Equal(t, start.AddDays(i), day.Date)
			assert.Zero(t, day.Points)
		}
	}
}

func TestDailyRollupWindowBoundaries(t *testing.T) {
	today := NewDate(2024, 1, 7)
	start, end := LastDays(today, DefaultRollupDays)
	assert.Equal(t, NewDate(2024, 1, 1), start)
	assert.Equal(t, today, end)

	acts := []ActivityRecord{
		{Date: NewDate(2023, 12, 31), Points: 100}, // one day before the window
		{Date: NewDate(2024, 1, 1), Points: 1},     // first day
		{Date: NewDate(2024, 1, 1), Points: 2},
		{Date: NewDate(2024, 1, 7), Points: 4}, // last day
		{Date: NewDate(2024, 1, 8), Points: 1000},
	}
	got, err := DailyRollup(acts, start, end)
	require.NoError(t, err)
	require.Len(t, got, 7)
	assert.EqualValues(t, 3, got[0].Points)
	assert.EqualValues(t, 4, got[6].Points)

	var sum int64
	for _, d := range got {
		sum += d.Points
	}
	assert.EqualValues(t, 7, sum)
}

func TestDailyRollupRejectsBadWindow(t *testing.T) {
	_, err := DailyRollup(nil, NewDate(2024, 1, 2), NewDate(2024, 1, 1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = DailyRollup(nil, Date{}, NewDate(2024, 1, 1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = DailyRollup([]ActivityRecord{{Date: NewDate(2024, 1, 1), Points: -2}}, NewDate(2024, 1, 1), NewDate(2024, 1, 1))
	assert.ErrorIs(t, err, ErrDataIntegrity)
}

func TestLastDaysClampsToOneDay(t *testing.T) {
	today := NewDate(2024, 5, 5)
	start, end := LastDays(today, 0)
	assert.Equal(t, today, start)
	assert.Equal(t, today, end)
}

func TestFilterAndSort(t *testing.T) {
	acts := []ActivityRecord{
		{ID: "1", Person: "A", Date: NewDate(2024, 1, 1)},
		{ID: "2", Person: "B", Date: NewDate(2024, 1, 3)},
		{ID: "3", Person: "A", Date: NewDate(2024, 1, 3)},
		{ID: "4", Person: "A", Date: NewDate(2024, 1, 2)},
	}
	assert.Len(t, FilterActivities(acts, ""), 4)
	assert.Len(t, FilterActivities(acts, "A"), 3)

	sorted := append([]ActivityRecord(nil), acts...)
	SortActivitiesNewestFirst(sorted)
	ids := make([]string, len(sorted))
	for i, r := range sorted {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"3", "2", "4", "1"}, ids)

	reds := []RedemptionRecord{
		{ID: "a", Person: "B", Date: NewDate(2024, 1, 1)},
		{ID: "b", Person: "A", Date: NewDate(2024, 1, 5)},
	}
	assert.Len(t, FilterRedemptions(reds, "B"), 1)
	SortRedemptionsNewestFirst(reds)
	assert.Equal(t, "b", reds[0].ID)
}
