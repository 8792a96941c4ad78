// Package store persists observed listings and scan history.
package store

import (
	"context"
	"time"

	"github.com/mwalkowiak/flatwatch/internal/model"
)

// Store is the persistence interface consumed by reconciliation and the
// dashboard. Lookups return (nil, nil) when the row is absent.
type Store interface {
	Migrate(ctx context.Context) error

	// GetByKey fetches a listing by its stable identity key.
	GetByKey(ctx context.Context, key string) (*model.PersistedListing, error)
	// Insert creates a new row with first_seen = last_seen = now.
	Insert(ctx context.Context, key string, l model.Listing, now time.Time) error
	// UpdatePrice rewrites price fields and advances last_seen in place.
	UpdatePrice(ctx context.Context, key string, price int64, pricePerM2 float64, now time.Time) error
	// Touch advances last_seen only.
	Touch(ctx context.Context, key string, now time.Time) error

	// Recent returns the most recent active rows ordered by first_seen
	// descending, for the dashboard window.
	Recent(ctx context.Context, limit int) ([]model.PersistedListing, error)
	// CountByPortal returns active row counts per portal.
	CountByPortal(ctx context.Context) (map[model.Portal]int, error)

	RecordScan(ctx context.Context, s model.Scan) error
	RecentScans(ctx context.Context, limit int) ([]model.Scan, error)

	// RecordNotification logs a delivered notification for a listing.
	RecordNotification(ctx context.Context, listingKey, channel string, at time.Time) error

	Close() error
}
