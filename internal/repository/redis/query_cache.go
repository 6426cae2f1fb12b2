package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"honeydash/internal/client"
	"honeydash/internal/metrics"
	"honeydash/internal/models"
	"honeydash/internal/repository/eventstore"
	"honeydash/internal/util"
)

// KV is the slice of the Redis client the cache uses. *client.RedisClient
// satisfies it.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
}

var _ KV = (*client.RedisClient)(nil)

// QueryCache memoizes event store results in Redis for a short TTL. Only
// successful results are stored. A Redis failure never fails a request; the
// cache logs it and falls through to the store.
type QueryCache struct {
	next    eventstore.Repository
	kv      KV
	keys    *Keyer
	ttl     time.Duration
	metrics *metrics.Metrics
}

var _ eventstore.Repository = (*QueryCache)(nil)

func NewQueryCache(next eventstore.Repository, kv KV, keys *Keyer, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{next: next, kv: kv, keys: keys, ttl: ttl, metrics: m}
}

func (c *QueryCache) IPAggregates(ctx context.Context, limit int) ([]models.IPAggregate, error) {
	return cached(ctx, c, "ip_aggregates", c.keys.Key("ip_aggregates", strconv.Itoa(limit)),
		func() ([]models.IPAggregate, error) { return c.next.IPAggregates(ctx, limit) })
}

// AuthByMinute results are keyed by window size only, so a cached trend can
// lag the live window by at most the TTL.
func (c *QueryCache) AuthByMinute(ctx context.Context, hours int) ([]models.AuthByMinute, error) {
	return cached(ctx, c, "auth_by_minute", c.keys.Key("auth_by_minute", strconv.Itoa(hours)),
		func() ([]models.AuthByMinute, error) { return c.next.AuthByMinute(ctx, hours) })
}

func (c *QueryCache) AuthAttemptsByIP(ctx context.Context, ip string) ([]models.AuthAttempt, error) {
	return cached(ctx, c, "auth_attempts_by_ip", c.keys.Key("auth_attempts_by_ip", ip),
		func() ([]models.AuthAttempt, error) { return c.next.AuthAttemptsByIP(ctx, ip) })
}

func (c *QueryCache) RecentSessions(ctx context.Context, limit int) ([]models.Session, error) {
	return cached(ctx, c, "recent_sessions", c.keys.Key("recent_sessions", strconv.Itoa(limit)),
		func() ([]models.Session, error) { return c.next.RecentSessions(ctx, limit) })
}

func (c *QueryCache) SessionsByIP(ctx context.Context, ip string) ([]models.Session, error) {
	return cached(ctx, c, "sessions_by_ip", c.keys.Key("sessions_by_ip", ip),
		func() ([]models.Session, error) { return c.next.SessionsByIP(ctx, ip) })
}

// HealthCheck is never cached.
func (c *QueryCache) HealthCheck(ctx context.Context) error {
	return c.next.HealthCheck(ctx)
}

func cached[T any](ctx context.Context, c *QueryCache, query, key string, load func() ([]T, error)) ([]T, error) {
	raw, err := c.kv.Get(ctx, key)
	switch {
	case err == nil:
		var out []T
		if jsonErr := json.Unmarshal(raw, &out); jsonErr == nil && out != nil {
			c.metrics.ObserveCache(query, true)
			return out, nil
		} else if jsonErr != nil {
			util.Warn("Discarding undecodable cache entry",
				zap.String("query", query), zap.String("key", key), zap.Error(jsonErr))
		}
	case errors.Is(err, client.ErrKeyNotFound):
	default:
		util.Warn("Query cache read failed",
			zap.String("query", query), zap.String("key", key), zap.Error(err))
	}
	c.metrics.ObserveCache(query, false)

	out, err := load()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(out)
	if err != nil {
		util.Warn("Failed to encode query result for cache", zap.String("query", query), zap.Error(err))
		return out, nil
	}
	if err := c.kv.Set(ctx, key, payload, c.ttl); err != nil {
		util.Warn("Query cache write failed",
			zap.String("query", query), zap.String("key", key), zap.Error(err))
	}
	return out, nil
}
