package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"PlaceCache/internal/logger"
	"PlaceCache/internal/models"
	"PlaceCache/internal/pagination"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of *pgxpool.Pool used by PostgresStore
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const createPlaceCacheTable = `
	CREATE TABLE IF NOT EXISTS place_cache (
		key TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		hits BIGINT NOT NULL DEFAULT 0 CHECK (hits >= 0),
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		CHECK (expires_at > created_at)
	);

	CREATE INDEX IF NOT EXISTS idx_place_cache_expires_at ON place_cache(expires_at);
	CREATE INDEX IF NOT EXISTS idx_place_cache_created_at ON place_cache(created_at DESC);
`

const (
	getEntrySQL = `
		UPDATE place_cache SET hits = hits + 1
		WHERE key = $1 AND expires_at > $2
		RETURNING payload, hits, created_at, expires_at`

	putEntrySQL = `
		INSERT INTO place_cache (key, payload, hits, created_at, expires_at)
		VALUES ($1, $2, 0, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			hits = 0,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`

	deleteAllSQL = `
		WITH removed AS (DELETE FROM place_cache RETURNING expires_at)
		SELECT COUNT(*) FILTER (WHERE expires_at > $1) FROM removed`

	reapExpiredSQL = `DELETE FROM place_cache WHERE expires_at <= $1`

	listEntriesSQL = `
		SELECT key, hits, octet_length(payload::text), created_at, expires_at
		FROM place_cache
		WHERE expires_at > $1 AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC, key
		LIMIT $3 OFFSET $4`
)

// PostgresStore implements Service on a PostgreSQL table.
// Expired rows are invisible to reads immediately and are physically removed
// by a background reaper.
type PostgresStore struct {
	db      querier
	closeDB func()
	ttl     time.Duration
	now     func() time.Time
	reaper  *reaper

	closeOnce sync.Once
}

// NewPostgresStore connects to PostgreSQL, creates the cache table and starts
// the expiry reaper
func NewPostgresStore(connectionString string, opts Options, log logger.Service) (Service, error) {
	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cache database connection string: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	// Disable statement caching to stay compatible with transaction poolers
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec
	config.ConnConfig.StatementCacheCapacity = 0

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache database pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cache database ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, createPlaceCacheTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create place_cache table: %w", err)
	}

	store := newPostgresStore(pool, pool.Close, opts, log)
	store.startReaper()

	return store, nil
}

// newPostgresStore creates the concrete implementation without starting the reaper
func newPostgresStore(db querier, closeDB func(), opts Options, log logger.Service) *PostgresStore {
	opts = opts.withDefaults()
	p := &PostgresStore{
		db:      db,
		closeDB: closeDB,
		ttl:     opts.TTL,
		now:     time.Now,
	}
	p.reaper = newReaper(opts.ReaperInterval, "place_cache", log, p.reapExpired)
	return p
}

// Get retrieves a live entry and increments its hit counter in one statement
func (p *PostgresStore) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	var (
		payload []byte
		entry   = models.CacheEntry{Key: key}
	)

	err := p.db.QueryRow(ctx, getEntrySQL, key, p.now().UTC()).
		Scan(&payload, &entry.Hits, &entry.CreatedAt, &entry.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: postgres get failed: %w", models.ErrStoreUnavailable, err)
	}

	entry.Payload = json.RawMessage(payload)
	return &entry, nil
}

// Put upserts the payload with a fresh TTL and a zero hit counter
func (p *PostgresStore) Put(ctx context.Context, key string, payload json.RawMessage) error {
	if !json.Valid(payload) {
		return fmt.Errorf("refusing to store invalid JSON payload for key %s", key)
	}

	createdAt := p.now().UTC()
	expiresAt := createdAt.Add(p.ttl)

	if _, err := p.db.Exec(ctx, putEntrySQL, key, string(payload), createdAt, expiresAt); err != nil {
		return fmt.Errorf("%w: postgres upsert failed: %w", models.ErrStoreUnavailable, err)
	}

	return nil
}

// DeleteAll removes every row and reports how many of them were still live
func (p *PostgresStore) DeleteAll(ctx context.Context) (int64, error) {
	var removed int64
	if err := p.db.QueryRow(ctx, deleteAllSQL, p.now().UTC()).Scan(&removed); err != nil {
		return 0, fmt.Errorf("%w: postgres delete failed: %w", models.ErrStoreUnavailable, err)
	}
	return removed, nil
}

// List returns live entries newest first
func (p *PostgresStore) List(ctx context.Context, req pagination.Request) ([]models.CacheEntrySummary, error) {
	var cursor *time.Time
	if req.HasCursor() {
		c := req.Cursor.UTC()
		cursor = &c
	}

	rows, err := p.db.Query(ctx, listEntriesSQL, p.now().UTC(), cursor, req.Limit, req.Skip())
	if err != nil {
		return nil, fmt.Errorf("%w: postgres list failed: %w", models.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	summaries := make([]models.CacheEntrySummary, 0, req.Limit)
	for rows.Next() {
		var s models.CacheEntrySummary
		if err := rows.Scan(&s.Key, &s.Hits, &s.Size, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, fmt.Errorf("%w: postgres list scan failed: %w", models.ErrStoreUnavailable, err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: postgres list failed: %w", models.ErrStoreUnavailable, err)
	}

	return summaries, nil
}

// reapExpired physically deletes expired rows
func (p *PostgresStore) reapExpired(ctx context.Context) (int64, error) {
	tag, err := p.db.Exec(ctx, reapExpiredSQL, p.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: postgres reap failed: %w", models.ErrStoreUnavailable, err)
	}
	return tag.RowsAffected(), nil
}

func (p *PostgresStore) startReaper() {
	p.reaper.start()
}

// Close stops the reaper and closes the connection pool
func (p *PostgresStore) Close() error {
	p.reaper.close()
	p.closeOnce.Do(func() {
		if p.closeDB != nil {
			p.closeDB()
		}
	})
	return nil
}
