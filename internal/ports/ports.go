package ports

import (
	"context"

	"puntos/internal/core"
)

// Ports for outbound adapters.
type (
	// CatalogReader exposes the activity and reward catalogs.
	// Failures are configuration errors: the catalog is the source of truth.
	CatalogReader interface {
		ListActivities(ctx context.Context) (core.Catalog, error)
		ListRewards(ctx context.Context) (core.Catalog, error)
	}

	// CatalogImporter upserts catalog entries into a writable catalog source.
	CatalogImporter interface {
		ImportCatalog(ctx context.Context, activities, rewards core.Catalog) error
	}

	// ActivityLedger is the append-only stream of completed activities.
	ActivityLedger interface {
		// ListActivityRecords returns records newest first; person "" means everyone.
		ListActivityRecords(ctx context.Context, person core.Person) ([]core.ActivityRecord, error)
		// AppendActivity durably stores rec and returns it with its storage ID.
		AppendActivity(ctx context.Context, rec core.ActivityRecord) (core.ActivityRecord, error)
	}

	// RedemptionLedger is the append-only stream of redeemed rewards.
	RedemptionLedger interface {
		ListRedemptionRecords(ctx context.Context, person core.Person) ([]core.RedemptionRecord, error)
		AppendRedemption(ctx context.Context, rec core.RedemptionRecord) (core.RedemptionRecord, error)
	}

	Ledger interface {
		ActivityLedger
		RedemptionLedger
	}

	// Store is a complete backend: catalog plus both ledgers.
	Store interface {
		CatalogReader
		Ledger
	}

	// EventPublisher announces appended ledger records to interested consumers.
	EventPublisher interface {
		PublishActivityLogged(ctx context.Context, rec core.ActivityRecord) error
		PublishRewardRedeemed(ctx context.Context, rec core.RedemptionRecord) error
	}
)
