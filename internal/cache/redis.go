package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"time"

	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL    = 15 * time.Minute
	DefaultPrefix = "storefront"
	maxJitter     = 5 // minutes

	// versions only need to outlive reads that are in flight
	versionTTL = time.Hour
)

// setIfVersion writes the cart only while the version key still holds the value the
// reader saw. A missing version key counts as "0".
var setIfVersion = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if (current or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

type Options struct {
	TTL time.Duration
	// Prefix namespaces keys when the Redis instance is shared.
	Prefix string
}

// RedisCache is the read-through cart cache. Entries are written after a
// repository read and dropped on every cart write.
type RedisCache struct {
	client  redis.UniversalClient
	baseTTL time.Duration
	prefix  string
}

func NewRedisCache(client redis.UniversalClient, opts Options) *RedisCache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	return &RedisCache{
		client:  client,
		baseTTL: opts.TTL,
		prefix:  opts.Prefix,
	}
}

// Get reports ErrCacheMiss for absent keys and for entries that no longer decode;
// the latter are evicted so the next read repopulates them.
func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	key := r.key(userID)
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		slog.WarnContext(ctx, "evicting undecodable cart entry", "key", key, "error", err)
		if delErr := r.client.Del(ctx, key).Err(); delErr != nil {
			return nil, fmt.Errorf("redis delete failed: %w", delErr)
		}
		return nil, ErrCacheMiss
	}
	return &cart, nil
}

func (r *RedisCache) Version(ctx context.Context, userID string) (int64, error) {
	v, err := r.client.Get(ctx, r.versionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version failed: %w", err)
	}
	return v, nil
}

// Set stores the cart with a jittered TTL so entries written together do not expire
// together. It is a no-op when the cart was invalidated after version was read.
func (r *RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart, version int64) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	ttl := r.baseTTL + time.Duration(rand.Intn(maxJitter))*time.Minute
	stored, err := setIfVersion.Run(ctx, r.client,
		[]string{r.versionKey(userID), r.key(userID)},
		strconv.FormatInt(version, 10), payload, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	if stored == 0 {
		slog.DebugContext(ctx, "stale cart not cached", "user_id", userID, "version", version)
	}
	return nil
}

// Delete drops the entry and bumps the version in one transaction.
func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	versionKey := r.versionKey(userID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key(userID))
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, versionTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) key(userID string) string {
	return r.prefix + ":cart:" + userID
}

func (r *RedisCache) versionKey(userID string) string {
	return r.prefix + ":cart-version:" + userID
}
