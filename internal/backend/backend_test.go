package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puntos/internal/config"
	"puntos/internal/core"
	"puntos/internal/storage/file"
)

func appConfig(backend string) *config.Config {
	return &config.Config{
		Port:            "8081",
		DataBackend:     backend,
		DatabaseMaxConn: 5,
		CatalogCacheTTL: time.Minute,
		StoreTimeout:    time.Second,
		People:          []string{"Josse", "Tomi"},
		Timezone:        "UTC",
		LogLevel:        "info",
	}
}

func TestBackendTypes(t *testing.T) {
	assert.Equal(t, []string{"file", "sqlite", "postgres", "sheets", "memory"}, GetBackendTypeStrings())
	assert.False(t, BackendType("excel").IsValid())
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = FromAppConfig(appConfig("excel"))
	assert.ErrorIs(t, err, core.ErrConfiguration)

	cfg := appConfig("sheets")
	cfg.GoogleSpreadsheetID = "sheet-123"
	cfg.GoogleRedemptionsSheet = "canjes"
	bcfg, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, SheetsBackend, bcfg.Type)
	assert.Equal(t, "sheet-123", bcfg.Sheets.SpreadsheetID)
	assert.Equal(t, "canjes", bcfg.Sheets.RewardLogSheet)
	assert.Equal(t, time.Second, bcfg.Sheets.Timeout)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"file", Config{Type: FileBackend, DataDirectory: "data"}, true},
		{"file without dir", Config{Type: FileBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, false},
		{"postgres without url", Config{Type: PostgresBackend}, false},
		{"sheets without id", Config{Type: SheetsBackend}, false},
		{"memory", Config{Type: MemoryBackend}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, core.ErrConfiguration)
			}
		})
	}
}

func TestFactoryCreatesSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "puntos.db"),
	})
	require.NoError(t, err)
	defer res.Close()

	require.NotNil(t, res.Importer)
	require.NoError(t, res.Ping(ctx))
	require.NoError(t, res.Importer.ImportCatalog(ctx, core.Catalog{"Swim": 15}, core.Catalog{"Cinema": 20}))

	acts, err := res.Store.ListActivities(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.Catalog{"Swim": 15}, acts)
}

func TestRuntimeOverFileBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file.DefaultActivitiesCatalog), []byte(`{"Run 5k": 10, "Swim": 15}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file.DefaultRewardsCatalog), []byte(`{"Cinema": 20}`), 0o644))

	cfg := appConfig(config.BackendFile)
	cfg.DataDir = dir
	rt, err := NewRuntime(ctx, cfg, RuntimeOptions{})
	require.NoError(t, err)
	defer rt.Close()

	assert.Nil(t, rt.Importer())
	require.NoError(t, rt.Ready(ctx))

	_, err = rt.Service.LogActivity(ctx, "Josse", "Run 5k", core.NewDate(2024, 1, 1))
	require.NoError(t, err)
	_, err = rt.Service.LogActivity(ctx, "Josse", "Swim", core.NewDate(2024, 1, 2))
	require.NoError(t, err)
	_, err = rt.Service.Redeem(ctx, "Josse", "Cinema", core.NewDate(2024, 1, 3))
	require.NoError(t, err)

	bal, err := rt.Service.Balance(ctx, "Josse")
	require.NoError(t, err)
	assert.EqualValues(t, 5, bal)

	// A corrupt ledger reads as empty through the runtime.
	require.NoError(t, os.WriteFile(filepath.Join(dir, file.ActivitiesLedgerFile), []byte("{"), 0o644))
	acts, err := rt.Service.Activities(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, acts)
}

func TestRuntimeRejectsBadRedisURL(t *testing.T) {
	cfg := appConfig(config.BackendMemory)
	cfg.RedisURL = "redis://:bad port"
	_, err := NewRuntime(context.Background(), cfg, RuntimeOptions{})
	assert.ErrorIs(t, err, core.ErrConfiguration)
}
