package geocode

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Cache stores geocoding answers keyed by normalized query.
type Cache interface {
	Get(ctx context.Context, query string) (*Result, bool, error)
	Put(ctx context.Context, query string, r *Result) error
}

// cacheKey returns SHA-256 hex of the normalized query.
func cacheKey(query string) string {
	h := sha256.Sum256([]byte(normalizeQuery(query)))
	return hex.EncodeToString(h[:])
}

// SQLiteCache persists answers in a local SQLite file so repeated runs do
// not re-query Nominatim.
type SQLiteCache struct {
	db *sql.DB
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	query_hash   TEXT PRIMARY KEY,
	query        TEXT NOT NULL,
	latitude     REAL NOT NULL DEFAULT 0,
	longitude    REAL NOT NULL DEFAULT 0,
	display_name TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT '',
	matched      INTEGER NOT NULL,
	cached_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);`

// OpenSQLiteCache opens (or creates) the cache database at dsn.
func OpenSQLiteCache(ctx context.Context, dsn string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: open cache")
	}
	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		cacheSchema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, eris.Wrap(err, "geocode: init cache")
		}
	}
	return &SQLiteCache{db: db}, nil
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// Get implements Cache.
func (c *SQLiteCache) Get(ctx context.Context, query string) (*Result, bool, error) {
	var r Result
	err := c.db.QueryRowContext(ctx,
		`SELECT latitude, longitude, display_name, source, matched FROM geocode_cache WHERE query_hash = ?`,
		cacheKey(query),
	).Scan(&r.Latitude, &r.Longitude, &r.DisplayName, &r.Source, &r.Matched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "geocode: cache lookup")
	}
	return &r, true, nil
}

// Put implements Cache.
func (c *SQLiteCache) Put(ctx context.Context, query string, r *Result) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO geocode_cache (query_hash, query, latitude, longitude, display_name, source, matched, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (query_hash) DO UPDATE SET
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			display_name = excluded.display_name,
			source = excluded.source,
			matched = excluded.matched,
			cached_at = excluded.cached_at`,
		cacheKey(query), normalizeQuery(query), r.Latitude, r.Longitude, r.DisplayName, r.Source, r.Matched, time.Now().UTC(),
	)
	return eris.Wrap(err, "geocode: cache store")
}
