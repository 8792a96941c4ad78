package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalkowiak/flatwatch/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testListing(url string) model.Listing {
	return model.Listing{
		Portal:     model.PortalOtodom,
		Title:      "Mieszkanie 2 pokoje Krzyki",
		Price:      400000,
		Area:       model.KnownArea(50),
		PricePerM2: 8000,
		Location:   "Wrocław, Krzyki",
		URL:        url,
	}
}

// --- Listings ---

func TestSQLite_InsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	l := testListing("https://www.otodom.pl/pl/oferta/abc-1")
	require.NoError(t, st.Insert(ctx, "k1", l, now))

	pl, err := st.GetByKey(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, pl)
	assert.Equal(t, "k1", pl.Key)
	assert.Equal(t, l.Title, pl.Listing.Title)
	assert.Equal(t, int64(400000), pl.Listing.Price)
	assert.True(t, pl.Listing.Area.Known)
	assert.InDelta(t, 50, pl.Listing.Area.Value, 1e-9)
	assert.True(t, pl.FirstSeen.Equal(pl.LastSeen))
	assert.True(t, pl.IsActive)
}

func TestSQLite_GetMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	pl, err := st.GetByKey(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, pl)
}

func TestSQLite_UnknownAreaRoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	l := testListing("https://www.olx.pl/d/oferta/xyz")
	l.Area = model.UnknownArea()
	l.PricePerM2 = 0
	require.NoError(t, st.Insert(ctx, "k-noarea", l, time.Now()))

	pl, err := st.GetByKey(ctx, "k-noarea")
	require.NoError(t, err)
	require.NotNil(t, pl)
	assert.False(t, pl.Listing.Area.Known)
}

func TestSQLite_UpdatePriceAdvancesLastSeenOnly(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	require.NoError(t, st.Insert(ctx, "k1", testListing("https://example.pl/1"), t0))
	require.NoError(t, st.UpdatePrice(ctx, "k1", 410000, 8200, t1))

	pl, err := st.GetByKey(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, pl)
	assert.Equal(t, int64(410000), pl.Listing.Price)
	assert.InDelta(t, 8200, pl.Listing.PricePerM2, 1e-9)
	assert.True(t, pl.FirstSeen.Equal(t0))
	assert.True(t, pl.LastSeen.Equal(t1))
}

func TestSQLite_UpdatePriceMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdatePrice(context.Background(), "ghost", 1, 1, time.Now())
	assert.Error(t, err)
}

func TestSQLite_Touch(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(2 * time.Hour)

	require.NoError(t, st.Insert(ctx, "k1", testListing("https://example.pl/1"), t0))
	require.NoError(t, st.Touch(ctx, "k1", t1))

	pl, err := st.GetByKey(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, pl)
	assert.True(t, pl.FirstSeen.Equal(t0))
	assert.True(t, pl.LastSeen.Equal(t1))
	assert.Equal(t, int64(400000), pl.Listing.Price)
}

func TestSQLite_DuplicateURLRejected(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Insert(ctx, "k1", testListing("https://example.pl/same"), time.Now()))
	err := st.Insert(ctx, "k2", testListing("https://example.pl/same"), time.Now())
	assert.Error(t, err)
}

func TestSQLite_RecentOrderAndLimit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		l := testListing("https://example.pl/" + string(rune('a'+i)))
		require.NoError(t, st.Insert(ctx, l.URL, l, base.Add(time.Duration(i)*time.Hour)))
	}

	recent, err := st.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "https://example.pl/e", recent[0].Listing.URL)
	assert.Equal(t, "https://example.pl/d", recent[1].Listing.URL)
	assert.Equal(t, "https://example.pl/c", recent[2].Listing.URL)
}

func TestSQLite_CountByPortal(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	l1 := testListing("https://example.pl/1")
	l2 := testListing("https://example.pl/2")
	l3 := testListing("https://example.pl/3")
	l3.Portal = model.PortalOLX
	require.NoError(t, st.Insert(ctx, "k1", l1, time.Now()))
	require.NoError(t, st.Insert(ctx, "k2", l2, time.Now()))
	require.NoError(t, st.Insert(ctx, "k3", l3, time.Now()))

	counts, err := st.CountByPortal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[model.PortalOtodom])
	assert.Equal(t, 1, counts[model.PortalOLX])
}

// --- Scans ---

func TestSQLite_RecordAndListScans(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		sc := model.Scan{
			ID:        "scan-" + string(rune('a'+i)),
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			Duration:  1500 * time.Millisecond,
			Portals:   "otodom,olx,gratka",
			Found:     10 + i,
			New:       i,
			Changed:   1,
			Failed:    0,
		}
		require.NoError(t, st.RecordScan(ctx, sc))
	}

	scans, err := st.RecentScans(ctx, 2)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, "scan-c", scans[0].ID)
	assert.Equal(t, 12, scans[0].Found)
	assert.Equal(t, "otodom,olx,gratka", scans[0].Portals)
	assert.Equal(t, 1500*time.Millisecond, scans[0].Duration)
}

// --- Notifications ---

func TestSQLite_RecordNotification(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Insert(ctx, "k1", testListing("https://example.pl/1"), time.Now()))
	require.NoError(t, st.RecordNotification(ctx, "k1", "email", time.Now()))
	require.NoError(t, st.RecordNotification(ctx, "k1", "telegram", time.Now()))
}
