package backend

import (
	"fmt"

	"puntos/internal/config"
	"puntos/internal/core"
	gsheet "puntos/internal/sheets/google"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("%w: app config is nil", core.ErrConfiguration)
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("%w: invalid backend type in config: %s", core.ErrConfiguration, appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		DataDirectory:     appConfig.DataDir,
		ActivitiesCatalog: appConfig.ActivitiesCatalogFile,
		RewardsCatalog:    appConfig.RewardsCatalogFile,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		DatabaseURL: appConfig.DatabaseURL,
		MaxConns:    appConfig.DatabaseMaxConn,

		Sheets: gsheet.Config{
			SpreadsheetID:    appConfig.GoogleSpreadsheetID,
			CredentialsJSON:  appConfig.GoogleCredentialsJSON,
			CredentialsFile:  appConfig.GoogleCredentialsFile,
			Timeout:          appConfig.StoreTimeout,
			ActivitiesSheet:  appConfig.GoogleActivitiesSheet,
			RewardsSheet:     appConfig.GoogleRewardsSheet,
			ActivityLogSheet: appConfig.GoogleActivityLogSheet,
			RewardLogSheet:   appConfig.GoogleRedemptionsSheet,
		},

		Timeout: appConfig.StoreTimeout,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("%w: invalid backend type: %s", core.ErrConfiguration, c.Type)
	}

	switch c.Type {
	case FileBackend:
		if c.DataDirectory == "" {
			return fmt.Errorf("%w: data directory is required for file backend", core.ErrConfiguration)
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("%w: SQLite database path is required for sqlite backend", core.ErrConfiguration)
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database URL is required for postgres backend", core.ErrConfiguration)
		}
	case SheetsBackend:
		if c.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("%w: Google Spreadsheet ID is required for sheets backend", core.ErrConfiguration)
		}
	case MemoryBackend:
		// Seeded with the default catalogs; nothing to check.
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{FileBackend, SQLiteBackend, PostgresBackend, SheetsBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
