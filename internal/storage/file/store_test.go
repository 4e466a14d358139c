package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puntos/internal/core"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DefaultActivitiesCatalog), `{"Run 5k": 10, "Swim": 15}`)
	writeFile(t, filepath.Join(dir, DefaultRewardsCatalog), `{"Cinema": 20}`)
	return New(Options{Dir: dir}), dir
}

func TestStoreListsCatalogs(t *testing.T) {
	s, _ := newTestStore(t)
	acts, err := s.ListActivities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.Catalog{"Run 5k": 10, "Swim": 15}, acts)

	rews, err := s.ListRewards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.Catalog{"Cinema": 20}, rews)
}

func TestStoreMissingCatalogIsConfigurationError(t *testing.T) {
	s := New(Options{Dir: t.TempDir()})
	_, err := s.ListActivities(context.Background())
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestStoreMissingLedgerIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	acts, err := s.ListActivityRecords(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, acts)

	reds, err := s.ListRedemptionRecords(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, reds)
}

func TestStoreAppendRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, dir := newTestStore(t)

	rec, err := s.AppendActivity(ctx, core.ActivityRecord{
		Person: "Josse", Activity: "Swim", Date: core.NewDate(2024, 1, 2), Points: 15,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)

	_, err = s.AppendRedemption(ctx, core.RedemptionRecord{
		Person: "Tomi", Reward: "Cinema", Date: core.NewDate(2024, 1, 3), Cost: 20,
	})
	require.NoError(t, err)

	// A fresh store over the same dir sees what was written.
	again := New(Options{Dir: dir})
	acts, err := again.ListActivityRecords(ctx, "Josse")
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, rec, acts[0])

	reds, err := again.ListRedemptionRecords(ctx, "Josse")
	require.NoError(t, err)
	assert.Empty(t, reds)

	raw, err := os.ReadFile(filepath.Join(dir, ActivitiesLedgerFile))
	require.NoError(t, err)
	var onDisk []map[string]any
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	require.Len(t, onDisk, 1)
	assert.Equal(t, "Josse", onDisk[0]["nombre"])
	assert.Equal(t, "Swim", onDisk[0]["actividad"])
	assert.Equal(t, "2024-01-02", onDisk[0]["fecha"])
	assert.EqualValues(t, 15, onDisk[0]["puntos"])
}

func TestStoreReadsLegacyLedger(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, filepath.Join(dir, ActivitiesLedgerFile), `[
		{"nombre": "Josse", "actividad": "Run 5k", "fecha": "2024-01-01T09:30:00", "puntos": 10},
		{"nombre": "Tomi", "actividad": "Swim", "fecha": "2024-01-05", "puntos": 15}
	]`)
	writeFile(t, filepath.Join(dir, RedemptionsLedgerFile), `[{"recompensa": "Cinema", "costo": 20}]`)

	acts, err := s.ListActivityRecords(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, core.NewDate(2024, 1, 5), acts[0].Date)
	assert.Equal(t, core.NewDate(2024, 1, 1), acts[1].Date)

	reds, err := s.ListRedemptionRecords(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, reds, 1)
	assert.EqualValues(t, 20, reds[0].Cost)

	bal, err := core.CurrentBalance(acts, reds)
	require.NoError(t, err)
	assert.EqualValues(t, 5, bal)
}

func TestStoreCorruptLedgerIsNotOverwritten(t *testing.T) {
	s, dir := newTestStore(t)
	path := filepath.Join(dir, ActivitiesLedgerFile)
	writeFile(t, path, `[{"nombre": `)

	_, err := s.ListActivityRecords(context.Background(), "")
	assert.Error(t, err)

	_, err = s.AppendActivity(context.Background(), core.ActivityRecord{
		Person: "Josse", Activity: "Swim", Date: core.NewDate(2024, 1, 2), Points: 15,
	})
	assert.ErrorIs(t, err, core.ErrStorageWrite)

	raw, _ := os.ReadFile(path)
	assert.Equal(t, `[{"nombre": `, string(raw))
}

func TestStoreAppendRejectsInvalidRecord(t *testing.T) {
	s, dir := newTestStore(t)
	_, err := s.AppendActivity(context.Background(), core.ActivityRecord{Person: "Josse", Activity: "Swim"})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.NoFileExists(t, filepath.Join(dir, ActivitiesLedgerFile))
}

func TestStoreAppendToMissingDirFails(t *testing.T) {
	s := New(Options{Dir: filepath.Join(t.TempDir(), "nope")})
	_, err := s.AppendActivity(context.Background(), core.ActivityRecord{
		Person: "Josse", Activity: "Swim", Date: core.NewDate(2024, 1, 2), Points: 15,
	})
	assert.ErrorIs(t, err, core.ErrStorageWrite)
}

func TestStoreConcurrentAppendsAreNotLost(t *testing.T) {
	s, _ := newTestStore(t)
	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AppendActivity(context.Background(), core.ActivityRecord{
				Person: "Tomi", Activity: fmt.Sprintf("a%d", i), Date: core.NewDate(2024, 1, 1+i%28), Points: 1,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	acts, err := s.ListActivityRecords(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, acts, n)
}

func TestParseCatalogFormats(t *testing.T) {
	want := core.Catalog{"Run 5k": 10, "Swim": 15}

	got, err := ParseCatalog(".json", []byte(`{"Run 5k": 10, "Swim": 15}`))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ParseCatalog(".toml", []byte("\"Run 5k\" = 10\nSwim = 15\n"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ParseCatalog(".yaml", []byte("Run 5k: 10\nSwim: 15\n"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseCatalogNamesRepeatedJSONKey(t *testing.T) {
	cat, err := ParseCatalog(".json", []byte(`{"Swim": 15, "Run 5k": 10, "Swim": 1}`))
	assert.Nil(t, cat)
	require.ErrorIs(t, err, core.ErrConfiguration)
	assert.Contains(t, err.Error(), `"Swim"`)
}

func TestParseCatalogRejectsBadInput(t *testing.T) {
	cases := map[string]struct {
		ext string
		raw string
	}{
		"malformed json":  {".json", `{"Swim": }`},
		"string value":    {".json", `{"Swim": "lots"}`},
		"negative value":  {".json", `{"Swim": -1}`},
		"empty catalog":   {".json", `{}`},
		"duplicate yaml":  {".yaml", "Swim: 1\nSwim: 2\n"},
		"duplicate json":  {".json", `{"Swim": 1, "Swim": 2}`},
		"json array":      {".json", `[["Swim", 1]]`},
		"trailing json":   {".json", `{"Swim": 1} {"Run": 2}`},
		"unknown format":  {".csv", "Swim,1"},
		"fractional toml": {".toml", "Swim = 1.5\n"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog(tc.ext, []byte(tc.raw))
			assert.ErrorIs(t, err, core.ErrConfiguration)
		})
	}
}
