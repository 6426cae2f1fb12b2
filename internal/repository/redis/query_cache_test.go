package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeydash/internal/client"
	"honeydash/internal/metrics"
	"honeydash/internal/models"
)

type memoryKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	setHits int
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", client.ErrKeyNotFound, key)
	}
	return v, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setHits++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

// countingRepo records how often each query reached the store.
type countingRepo struct {
	calls map[string]int
	err   error
	now   time.Time
}

func newCountingRepo() *countingRepo {
	return &countingRepo{calls: map[string]int{}, now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (r *countingRepo) IPAggregates(_ context.Context, limit int) ([]models.IPAggregate, error) {
	r.calls["ip_aggregates"]++
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.IPAggregate, 0, limit)
	for i := 0; i < limit; i++ {
		ts := r.now.Add(-time.Duration(i) * time.Minute)
		out = append(out, models.IPAggregate{IP: fmt.Sprintf("10.0.0.%d", i), FirstSeen: &ts, LastSeen: &ts, Sessions: int64(i + 1)})
	}
	return out, nil
}

func (r *countingRepo) AuthByMinute(_ context.Context, hours int) ([]models.AuthByMinute, error) {
	r.calls["auth_by_minute"]++
	ts := r.now.Add(-time.Duration(hours) * time.Minute)
	return []models.AuthByMinute{{Time: &ts, Success: 1, Failure: 2, Unknown: 3}}, r.err
}

func (r *countingRepo) AuthAttemptsByIP(_ context.Context, ip string) ([]models.AuthAttempt, error) {
	r.calls["auth_attempts_by_ip"]++
	user := "root"
	return []models.AuthAttempt{{ID: 7, SessionID: "s-" + ip, Outcome: models.OutcomeSuccess, Username: &user, Timestamp: r.now}}, r.err
}

func (r *countingRepo) RecentSessions(_ context.Context, limit int) ([]models.Session, error) {
	r.calls["recent_sessions"]++
	return []models.Session{}, r.err
}

func (r *countingRepo) SessionsByIP(_ context.Context, ip string) ([]models.Session, error) {
	r.calls["sessions_by_ip"]++
	return []models.Session{{ID: "abc", IP: ip, StartTime: r.now}}, r.err
}

func (r *countingRepo) HealthCheck(context.Context) error {
	r.calls["health"]++
	return r.err
}

func newTestCache(repo *countingRepo, kv *memoryKV, m *metrics.Metrics) *QueryCache {
	return NewQueryCache(repo, kv, NewKeyer("sqlite"), 15*time.Second, m)
}

func TestQueryCacheHitSkipsStore(t *testing.T) {
	repo, kv, m := newCountingRepo(), newMemoryKV(), metrics.New()
	cache := newTestCache(repo, kv, m)
	ctx := context.Background()

	first, err := cache.IPAggregates(ctx, 3)
	require.NoError(t, err)
	second, err := cache.IPAggregates(ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls["ip_aggregates"])
	require.Len(t, second, 3)
	for i := range first {
		assert.Equal(t, first[i].IP, second[i].IP)
		assert.True(t, first[i].LastSeen.Equal(*second[i].LastSeen))
	}
	expected := `
# HELP honeydash_cache_requests_total Query cache lookups by query and result.
# TYPE honeydash_cache_requests_total counter
honeydash_cache_requests_total{query="ip_aggregates",result="hit"} 1
honeydash_cache_requests_total{query="ip_aggregates",result="miss"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "honeydash_cache_requests_total"))

	for _, ttl := range kv.ttls {
		assert.Equal(t, 15*time.Second, ttl)
	}
}

func TestQueryCacheKeysByArguments(t *testing.T) {
	repo, kv := newCountingRepo(), newMemoryKV()
	cache := newTestCache(repo, kv, nil)
	ctx := context.Background()

	_, err := cache.IPAggregates(ctx, 2)
	require.NoError(t, err)
	_, err = cache.IPAggregates(ctx, 5)
	require.NoError(t, err)
	_, err = cache.SessionsByIP(ctx, "1.2.3.4")
	require.NoError(t, err)
	_, err = cache.SessionsByIP(ctx, "1.2.3.5")
	require.NoError(t, err)

	assert.Equal(t, 2, repo.calls["ip_aggregates"])
	assert.Equal(t, 2, repo.calls["sessions_by_ip"])
	assert.Len(t, kv.data, 4)
}

func TestQueryCachePreservesOutcomeAndEmptyResults(t *testing.T) {
	repo, kv := newCountingRepo(), newMemoryKV()
	cache := newTestCache(repo, kv, nil)
	ctx := context.Background()

	_, err := cache.AuthAttemptsByIP(ctx, "1.2.3.4")
	require.NoError(t, err)
	attempts, err := cache.AuthAttemptsByIP(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, models.OutcomeSuccess, attempts[0].Outcome)
	assert.Equal(t, "root", *attempts[0].Username)
	assert.Nil(t, attempts[0].Password)

	_, err = cache.RecentSessions(ctx, 10)
	require.NoError(t, err)
	sessions, err := cache.RecentSessions(ctx, 10)
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
	assert.Equal(t, 1, repo.calls["recent_sessions"])
}

func TestQueryCacheDoesNotStoreErrors(t *testing.T) {
	repo, kv := newCountingRepo(), newMemoryKV()
	repo.err = errors.New("store down")
	cache := newTestCache(repo, kv, nil)

	_, err := cache.IPAggregates(context.Background(), 2)
	require.ErrorIs(t, err, repo.err)
	_, err = cache.IPAggregates(context.Background(), 2)
	require.ErrorIs(t, err, repo.err)

	assert.Equal(t, 2, repo.calls["ip_aggregates"])
	assert.Empty(t, kv.data)
}

func TestQueryCacheFallsThroughOnRedisFailure(t *testing.T) {
	repo, kv := newCountingRepo(), newMemoryKV()
	kv.getErr = errors.New("connection refused")
	kv.setErr = errors.New("connection refused")
	cache := newTestCache(repo, kv, nil)

	trend, err := cache.AuthByMinute(context.Background(), 6)
	require.NoError(t, err)
	require.Len(t, trend, 1)
	assert.Equal(t, int64(3), trend[0].Unknown)
	assert.Equal(t, 1, kv.setHits)
}

func TestQueryCacheDiscardsCorruptEntry(t *testing.T) {
	repo, kv := newCountingRepo(), newMemoryKV()
	keys := NewKeyer("sqlite")
	cache := NewQueryCache(repo, kv, keys, time.Second, nil)
	kv.data[keys.Key("sessions_by_ip", "9.9.9.9")] = []byte("{not json")

	sessions, err := cache.SessionsByIP(context.Background(), "9.9.9.9")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, repo.calls["sessions_by_ip"])
}

func TestQueryCacheHealthCheckPassesThrough(t *testing.T) {
	repo := newCountingRepo()
	cache := newTestCache(repo, newMemoryKV(), nil)

	require.NoError(t, cache.HealthCheck(context.Background()))
	require.NoError(t, cache.HealthCheck(context.Background()))
	assert.Equal(t, 2, repo.calls["health"])
}

func TestKeyer(t *testing.T) {
	k := NewKeyer("mysql")

	a := k.Key("sessions_by_ip", "1.2.3.4")
	assert.Equal(t, a, k.Key("sessions_by_ip", "1.2.3.4"))
	assert.Regexp(t, `^honeydash:mysql:sessions_by_ip:[0-9a-f]+$`, a)
	assert.NotEqual(t, a, k.Key("auth_attempts_by_ip", "1.2.3.4"))
	assert.NotEqual(t, k.Key("q", "ab", "c"), k.Key("q", "a", "bc"))
	assert.NotEqual(t, a, NewKeyer("postgres").Key("sessions_by_ip", "1.2.3.4"))
	assert.Regexp(t, `^honeydash:q:`, NewKeyer("").Key("q"))
}
