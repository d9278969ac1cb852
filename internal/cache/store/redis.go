package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"PlaceCache/internal/models"
	"PlaceCache/internal/pagination"
	"github.com/redis/go-redis/v9"
)

// indexKey is a sorted set of cached keys scored by creation time (unix ms)
const indexKey = "placecache:index"

// deleteBatchSize bounds the number of keys sent in one DEL
const deleteBatchSize = 500

// getAndCount increments the hit counter only when the key exists, so a miss
// never materialises an empty hash.
var getAndCount = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
local hits = redis.call('HINCRBY', KEYS[1], 'hits', 1)
local fields = redis.call('HMGET', KEYS[1], 'payload', 'created_at', 'expires_at')
return {fields[1], hits, fields[2], fields[3]}
`)

// clearIndexed deletes every indexed key and the index in one atomic step, so
// a concurrent Put lands either wholly before the clear or wholly after it.
// ARGV[1] is the number of keys sent per DEL.
var clearIndexed = redis.NewScript(`
local keys = redis.call('ZRANGE', KEYS[1], 0, -1)
local batch = tonumber(ARGV[1])
local removed = 0
for i = 1, #keys, batch do
	local last = math.min(i + batch - 1, #keys)
	removed = removed + redis.call('DEL', unpack(keys, i, last))
end
redis.call('DEL', KEYS[1])
return removed
`)

// RedisStore implements Service using Redis hashes with native key expiry
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a new Redis-backed persistent store
func NewRedisStore(redisURL string, opts Options) (Service, error) {
	return newRedisStore(redisURL, opts)
}

// newRedisStore creates the concrete implementation
func newRedisStore(redisURL string, opts Options) (*RedisStore, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(parsed)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newRedisStoreWithClient(client, opts), nil
}

func newRedisStoreWithClient(client *redis.Client, opts Options) *RedisStore {
	opts = opts.withDefaults()
	return &RedisStore{
		client: client,
		ttl:    opts.TTL,
		now:    time.Now,
	}
}

// Get retrieves a live entry and increments its hit counter
func (r *RedisStore) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	res, err := getAndCount.Run(ctx, r.client, []string{key}).Slice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: redis get failed: %w", models.ErrStoreUnavailable, err)
	}
	if len(res) != 4 {
		return nil, fmt.Errorf("%w: unexpected redis reply of length %d", models.ErrStoreUnavailable, len(res))
	}

	payload, _ := res[0].(string)
	hits, _ := res[1].(int64)
	createdAt := parseUnixNano(res[2])
	expiresAt := parseUnixNano(res[3])

	if payload == "" {
		// Hash without payload: partially written, treat as absent
		return nil, models.ErrCacheMiss
	}

	return &models.CacheEntry{
		Key:       key,
		Payload:   json.RawMessage(payload),
		Hits:      hits,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Put stores the payload under key with a fresh TTL and a zero hit counter
func (r *RedisStore) Put(ctx context.Context, key string, payload json.RawMessage) error {
	if !json.Valid(payload) {
		return fmt.Errorf("refusing to store invalid JSON payload for key %s", key)
	}

	createdAt := r.now().UTC().Truncate(time.Millisecond)
	expiresAt := createdAt.Add(r.ttl)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"payload":    string(payload),
			"hits":       0,
			"created_at": createdAt.UnixNano(),
			"expires_at": expiresAt.UnixNano(),
		})
		pipe.PExpire(ctx, key, r.ttl)
		pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(createdAt.UnixMilli()), Member: key})
		// Members older than one TTL point at hashes Redis has already expired
		pipe.ZRemRangeByScore(ctx, indexKey, "-inf", r.indexCutoff(createdAt))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: redis set failed: %w", models.ErrStoreUnavailable, err)
	}

	return nil
}

// DeleteAll removes every indexed entry and the index itself.
// DEL only counts keys that still exist, so expired members are not reported.
func (r *RedisStore) DeleteAll(ctx context.Context) (int64, error) {
	removed, err := clearIndexed.Run(ctx, r.client, []string{indexKey}, deleteBatchSize).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: redis delete failed: %w", models.ErrStoreUnavailable, err)
	}

	return removed, nil
}

// List returns live entries newest first
func (r *RedisStore) List(ctx context.Context, req pagination.Request) ([]models.CacheEntrySummary, error) {
	if err := r.client.ZRemRangeByScore(ctx, indexKey, "-inf", r.indexCutoff(r.now())).Err(); err != nil {
		return nil, fmt.Errorf("%w: redis index prune failed: %w", models.ErrStoreUnavailable, err)
	}

	rangeBy := &redis.ZRangeBy{
		Max:    "+inf",
		Min:    "-inf",
		Offset: int64(req.Skip()),
		Count:  int64(req.Limit),
	}
	if req.HasCursor() {
		rangeBy.Max = "(" + strconv.FormatInt(req.Cursor.UnixMilli(), 10)
	}

	keys, err := r.client.ZRevRangeByScore(ctx, indexKey, rangeBy).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis index read failed: %w", models.ErrStoreUnavailable, err)
	}
	if len(keys) == 0 {
		return []models.CacheEntrySummary{}, nil
	}

	cmds := make([]*redis.SliceCmd, len(keys))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = pipe.HMGet(ctx, key, "payload", "hits", "created_at", "expires_at")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: redis list failed: %w", models.ErrStoreUnavailable, err)
	}

	summaries := make([]models.CacheEntrySummary, 0, len(keys))
	for i, cmd := range cmds {
		vals := cmd.Val()
		if len(vals) != 4 || vals[0] == nil {
			// Expired between the index read and the hash read
			continue
		}
		payload, _ := vals[0].(string)
		hitsStr, _ := vals[1].(string)
		hits, _ := strconv.ParseInt(hitsStr, 10, 64)

		summaries = append(summaries, models.CacheEntrySummary{
			Key:       keys[i],
			Hits:      hits,
			Size:      len(payload),
			CreatedAt: parseUnixNano(vals[2]),
			ExpiresAt: parseUnixNano(vals[3]),
		})
	}

	return summaries, nil
}

// indexCutoff is the highest index score that can only belong to an expired key
func (r *RedisStore) indexCutoff(now time.Time) string {
	return strconv.FormatInt(now.Add(-r.ttl).UnixMilli(), 10)
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func parseUnixNano(v interface{}) time.Time {
	var n int64
	switch val := v.(type) {
	case string:
		n, _ = strconv.ParseInt(val, 10, 64)
	case int64:
		n = val
	default:
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
