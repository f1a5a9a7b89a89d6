// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache provides the process-wide response cache that sits in front
// of the fan-out coordinator. It is an optimization only: responses are
// byte-identical with the cache disabled. Entries live in an in-memory
// SQLite database, so the cache is created at process start and cleared on
// restart by construction.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/refsearch/pkg/types"
)

// instance distinguishes shared-memory DSNs so independent caches (and
// tests) do not see each other's tables.
var instance atomic.Int64

// Cache is a TTL response cache with a size bound. Concurrent requests for
// the same key coalesce onto a single fill, so at most one aggregation per
// key is ever in flight.
type Cache struct {
	db         *sql.DB
	ttl        time.Duration
	maxEntries int
	group      singleflight.Group

	// now is swappable in tests.
	now func() time.Time
}

// New opens an in-memory cache database. Defaults: 10 minute TTL, 100
// entries.
func New(cfg types.CacheConfig) (*Cache, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 100
	}

	dsn := fmt.Sprintf("file:refsearch-cache-%d?mode=memory&cache=shared", instance.Add(1))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// A single long-lived connection keeps the in-memory database alive and
	// serializes writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS responses (
		key        TEXT PRIMARY KEY,
		payload    BLOB NOT NULL,
		expires_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db, ttl: ttl, maxEntries: maxEntries, now: time.Now}, nil
}

// Close releases the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key builds the cache key from the normalized query text, its filters, the
// sorted provider set, and the result bound. Requests that differ in any
// filter never share an entry.
func Key(q types.SearchQuery, providers []types.ProviderName, maxResults int) string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = string(p)
	}
	sort.Strings(names)
	normalized := strings.Join(strings.Fields(strings.ToLower(q.Text)), " ")
	author := strings.Join(strings.Fields(strings.ToLower(q.Author)), " ")
	return fmt.Sprintf("%s|%d|%s|%s|%d", normalized, q.Year, author, strings.Join(names, ","), maxResults)
}

// GetOrFill returns the cached payload for key, or runs fill once and
// stores its result. The returned bool reports a cache hit. Fill errors are
// never cached. Storage failures degrade to a plain miss; the cache never
// makes a request fail.
func (c *Cache) GetOrFill(ctx context.Context, key string, fill func(ctx context.Context) ([]byte, error)) ([]byte, bool, error) {
	if payload, ok := c.lookup(ctx, key); ok {
		return payload, true, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A coalesced caller may arrive just after the winner stored.
		if payload, ok := c.lookup(ctx, key); ok {
			return payload, nil
		}
		payload, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, payload)
		return payload, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}

// lookup returns a live entry, deleting it when expired.
func (c *Cache) lookup(ctx context.Context, key string) ([]byte, bool) {
	var payload []byte
	var expiresAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM responses WHERE key = ?`, key,
	).Scan(&payload, &expiresAt)
	if err != nil {
		return nil, false
	}
	if expiresAt <= c.now().Unix() {
		c.db.ExecContext(ctx, `DELETE FROM responses WHERE key = ?`, key)
		return nil, false
	}
	return payload, true
}

// store upserts an entry and evicts the entries closest to expiry beyond
// the size bound.
func (c *Cache) store(ctx context.Context, key string, payload []byte) {
	expiresAt := c.now().Add(c.ttl).Unix()
	if _, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO responses (key, payload, expires_at) VALUES (?, ?, ?)`,
		key, payload, expiresAt,
	); err != nil {
		return
	}
	c.db.ExecContext(ctx,
		`DELETE FROM responses WHERE key NOT IN (
			SELECT key FROM responses ORDER BY expires_at DESC, key LIMIT ?
		)`, c.maxEntries)
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len(ctx context.Context) int {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM responses`).Scan(&n); err != nil {
		return 0
	}
	return n
}
