package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/mwalkowiak/flatwatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. The monitor is a
// single-writer process, so the engine's own transaction semantics are the
// only locking discipline needed.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS listings (
	key          TEXT PRIMARY KEY,
	portal       TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	price        INTEGER NOT NULL,
	area         REAL,
	price_per_m2 REAL NOT NULL DEFAULT 0,
	location     TEXT NOT NULL DEFAULT '',
	url          TEXT NOT NULL UNIQUE,
	first_seen   DATETIME NOT NULL,
	last_seen    DATETIME NOT NULL,
	is_active    INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS scans (
	id          TEXT PRIMARY KEY,
	started_at  DATETIME NOT NULL,
	duration_ms INTEGER NOT NULL,
	portals     TEXT NOT NULL,
	found       INTEGER NOT NULL,
	new_count   INTEGER NOT NULL,
	changed     INTEGER NOT NULL,
	failed      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	listing_key TEXT NOT NULL REFERENCES listings(key),
	channel     TEXT NOT NULL,
	sent_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_listings_first_seen ON listings(first_seen);
CREATE INDEX IF NOT EXISTS idx_listings_portal ON listings(portal);
CREATE INDEX IF NOT EXISTS idx_scans_started_at ON scans(started_at);
CREATE INDEX IF NOT EXISTS idx_notifications_listing_key ON notifications(listing_key);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetByKey(ctx context.Context, key string) (*model.PersistedListing, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, portal, title, price, area, price_per_m2, location, url, first_seen, last_seen, is_active
		 FROM listings WHERE key = ?`,
		key,
	)
	pl, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get listing %s", key)
	}
	return pl, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, key string, l model.Listing, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO listings (key, portal, title, price, area, price_per_m2, location, url, first_seen, last_seen, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		key, string(l.Portal), l.Title, l.Price, nullArea(l.Area), l.PricePerM2,
		l.Location, l.URL, now.UTC(), now.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert listing %s", key)
}

func (s *SQLiteStore) UpdatePrice(ctx context.Context, key string, price int64, pricePerM2 float64, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE listings SET price = ?, price_per_m2 = ?, last_seen = ? WHERE key = ?`,
		price, pricePerM2, now.UTC(), key,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update price %s", key)
	}
	return checkRowsAffected(res, "listing", key)
}

func (s *SQLiteStore) Touch(ctx context.Context, key string, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE listings SET last_seen = ? WHERE key = ?`,
		now.UTC(), key,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: touch listing %s", key)
	}
	return checkRowsAffected(res, "listing", key)
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]model.PersistedListing, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, portal, title, price, area, price_per_m2, location, url, first_seen, last_seen, is_active
		 FROM listings WHERE is_active = 1
		 ORDER BY first_seen DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent listings")
	}
	defer rows.Close()

	var out []model.PersistedListing
	for rows.Next() {
		pl, err := scanListing(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan recent listing")
		}
		out = append(out, *pl)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: recent listings iterate")
}

func (s *SQLiteStore) CountByPortal(ctx context.Context) (map[model.Portal]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT portal, COUNT(*) FROM listings WHERE is_active = 1 GROUP BY portal`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by portal")
	}
	defer rows.Close()

	counts := make(map[model.Portal]int)
	for rows.Next() {
		var portal string
		var n int
		if err := rows.Scan(&portal, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan portal count")
		}
		counts[model.Portal(portal)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count by portal iterate")
}

func (s *SQLiteStore) RecordScan(ctx context.Context, sc model.Scan) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scans (id, started_at, duration_ms, portals, found, new_count, changed, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.StartedAt.UTC(), sc.Duration.Milliseconds(),
		sc.Portals, sc.Found, sc.New, sc.Changed, sc.Failed,
	)
	return eris.Wrapf(err, "sqlite: record scan %s", sc.ID)
}

func (s *SQLiteStore) RecentScans(ctx context.Context, limit int) ([]model.Scan, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, portals, found, new_count, changed, failed
		 FROM scans ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent scans")
	}
	defer rows.Close()

	var out []model.Scan
	for rows.Next() {
		var sc model.Scan
		var durationMS int64
		if err := rows.Scan(&sc.ID, &sc.StartedAt, &durationMS,
			&sc.Portals, &sc.Found, &sc.New, &sc.Changed, &sc.Failed); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan scan row")
		}
		sc.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, sc)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: recent scans iterate")
}

func (s *SQLiteStore) RecordNotification(ctx context.Context, listingKey, channel string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (listing_key, channel, sent_at) VALUES (?, ?, ?)`,
		listingKey, channel, at.UTC(),
	)
	return eris.Wrapf(err, "sqlite: record notification %s/%s", listingKey, channel)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func nullArea(a model.Area) any {
	if !a.Known {
		return nil
	}
	return a.Value
}

type scannable interface {
	Scan(dest ...any) error
}

func scanListing(row scannable) (*model.PersistedListing, error) {
	var pl model.PersistedListing
	var portal string
	var area sql.NullFloat64
	var active int

	err := row.Scan(&pl.Key, &portal, &pl.Listing.Title, &pl.Listing.Price, &area,
		&pl.Listing.PricePerM2, &pl.Listing.Location, &pl.Listing.URL,
		&pl.FirstSeen, &pl.LastSeen, &active)
	if err != nil {
		return nil, err
	}

	pl.Listing.Portal = model.Portal(portal)
	if area.Valid {
		pl.Listing.Area = model.KnownArea(area.Float64)
	}
	pl.IsActive = active != 0
	return &pl, nil
}
