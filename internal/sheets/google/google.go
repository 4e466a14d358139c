// Package google stores catalogs and ledgers in a Google Sheets spreadsheet,
// one tab per table of the relational schema.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"puntos/internal/core"
	"puntos/internal/ports"
)

// Ensure interface conformance
var _ ports.Store = (*Client)(nil)

const (
	DefaultActivitiesSheet  = "activities"
	DefaultRewardsSheet     = "recompensas"
	DefaultActivityLogSheet = "registro_actividades"
	DefaultRewardLogSheet   = "registro_recompensas"
)

type Config struct {
	SpreadsheetID string
	// CredentialsJSON wins over CredentialsFile; with neither set,
	// GOOGLE_APPLICATION_CREDENTIALS is consulted.
	CredentialsJSON string
	CredentialsFile string
	Timeout         time.Duration

	ActivitiesSheet  string
	RewardsSheet     string
	ActivityLogSheet string
	RewardLogSheet   string
}

// valuesAPI is the slice of the Sheets values API the client needs.
type valuesAPI interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Append(ctx context.Context, rng string, row []any) error
}

type Client struct {
	values  valuesAPI
	timeout time.Duration
	newID   func() string

	activitiesSheet  string
	rewardsSheet     string
	activityLogSheet string
	rewardLogSheet   string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, fmt.Errorf("%w: missing GOOGLE_SPREADSHEET_ID", core.ErrConfiguration)
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: sheets service: %v", core.ErrConfiguration, err)
	}
	return newClient(&serviceValues{svc: svc, spreadsheetID: cfg.SpreadsheetID}, cfg), nil
}

func newClient(values valuesAPI, cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		values:           values,
		timeout:          timeout,
		newID:            uuid.NewString,
		activitiesSheet:  orDefault(cfg.ActivitiesSheet, DefaultActivitiesSheet),
		rewardsSheet:     orDefault(cfg.RewardsSheet, DefaultRewardsSheet),
		activityLogSheet: orDefault(cfg.ActivityLogSheet, DefaultActivityLogSheet),
		rewardLogSheet:   orDefault(cfg.RewardLogSheet, DefaultRewardLogSheet),
	}
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credentialsFile := strings.TrimSpace(cfg.CredentialsFile)
	if cfg.CredentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case credentialsFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", credentialsFile)
		raw, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = raw
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON, GOOGLE_CREDENTIALS_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

type serviceValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *serviceValues) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceValues) Append(ctx context.Context, rng string, row []any) error {
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	// RAW keeps ISO dates as text instead of locale-formatted date cells.
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return err
}

func (c *Client) read(ctx context.Context, sheet, cols string) ([][]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	values, err := c.values.Get(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return values, nil
}

func (c *Client) appendRow(ctx context.Context, sheet, cols string, row []any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	if err := c.values.Append(ctx, rng, row); err != nil {
		return fmt.Errorf("append %s: %w", rng, err)
	}
	return nil
}

func (c *Client) ListActivities(ctx context.Context) (core.Catalog, error) {
	values, err := c.read(ctx, c.activitiesSheet, "A:B")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	return parseCatalog(c.activitiesSheet, values)
}

func (c *Client) ListRewards(ctx context.Context) (core.Catalog, error) {
	values, err := c.read(ctx, c.rewardsSheet, "A:B")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
	}
	return parseCatalog(c.rewardsSheet, values)
}

func (c *Client) ListActivityRecords(ctx context.Context, person core.Person) ([]core.ActivityRecord, error) {
	values, err := c.read(ctx, c.activityLogSheet, "A:E")
	if err != nil {
		return nil, err
	}
	recs, err := parseActivityRows(values)
	if err != nil {
		return nil, err
	}
	recs = core.FilterActivities(recs, person)
	core.SortActivitiesNewestFirst(recs)
	return recs, nil
}

func (c *Client) ListRedemptionRecords(ctx context.Context, person core.Person) ([]core.RedemptionRecord, error) {
	values, err := c.read(ctx, c.rewardLogSheet, "A:E")
	if err != nil {
		return nil, err
	}
	recs, err := parseRedemptionRows(values)
	if err != nil {
		return nil, err
	}
	recs = core.FilterRedemptions(recs, person)
	core.SortRedemptionsNewestFirst(recs)
	return recs, nil
}

// AppendActivity writes id, nombre, actividad, fecha, puntos.
func (c *Client) AppendActivity(ctx context.Context, rec core.ActivityRecord) (core.ActivityRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.ActivityRecord{}, err
	}
	rec.ID = c.newID()
	row := []any{rec.ID, string(rec.Person), rec.Activity, rec.Date.String(), rec.Points}
	if err := c.appendRow(ctx, c.activityLogSheet, "A:E", row); err != nil {
		return core.ActivityRecord{}, core.StorageWriteError("append activity", err)
	}
	slog.InfoContext(ctx, "Activity appended to sheet", "id", rec.ID, "sheet", c.activityLogSheet)
	return rec, nil
}

// AppendRedemption writes id, nombre, recompensa, puntos, fecha.
func (c *Client) AppendRedemption(ctx context.Context, rec core.RedemptionRecord) (core.RedemptionRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.RedemptionRecord{}, err
	}
	rec.ID = c.newID()
	row := []any{rec.ID, string(rec.Person), rec.Reward, rec.Cost, rec.Date.String()}
	if err := c.appendRow(ctx, c.rewardLogSheet, "A:E", row); err != nil {
		return core.RedemptionRecord{}, core.StorageWriteError("append redemption", err)
	}
	slog.InfoContext(ctx, "Redemption appended to sheet", "id", rec.ID, "sheet", c.rewardLogSheet)
	return rec, nil
}
