package eventstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectFor(t *testing.T) {
	cases := map[string]string{
		"mysql":      "mysql",
		"MariaDB":    "mysql",
		"postgres":   "postgres",
		"pgx":        "postgres",
		" sqlite3 ":  "sqlite",
		"clickhouse": "clickhouse",
	}
	for in, want := range cases {
		d, err := DialectFor(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, d.Name, in)
	}

	_, err := DialectFor("oracle")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM sessions WHERE ip = ? AND starttime > ? LIMIT ?"
	assert.Equal(t, q, MySQL.Rebind(q))
	assert.Equal(t, "SELECT * FROM sessions WHERE ip = $1 AND starttime > $2 LIMIT $3", Postgres.Rebind(q))
}

func TestBuildQueriesUsesDialectBucket(t *testing.T) {
	assert.Contains(t, buildQueries(MySQL).authByMinute, "DATE_FORMAT(s.starttime, '%Y-%m-%d %H:%i:00')")
	assert.Contains(t, buildQueries(Postgres).authByMinute, "date_trunc('minute', s.starttime)")
	assert.Contains(t, buildQueries(Postgres).authByMinute, "s.starttime > $1")
	assert.Contains(t, buildQueries(SQLite).authByMinute, "strftime('%Y-%m-%d %H:%M:00', s.starttime)")
	assert.Contains(t, buildQueries(ClickHouse).authByMinute, "toStartOfMinute(s.starttime)")

	assert.Contains(t, buildQueries(SQLite).authByMinute, "WHERE datetime(s.starttime) > ?")
	assert.Contains(t, buildQueries(MySQL).authByMinute, "WHERE s.starttime > ?")
	assert.Contains(t, buildQueries(ClickHouse).authByMinute, "WHERE s.starttime > ?")

	for _, d := range []Dialect{MySQL, Postgres, SQLite, ClickHouse} {
		q := buildQueries(d)
		for _, text := range []string{q.ipAggregates, q.authByMinute, q.authByIP, q.recentSessions, q.sessionsByIP} {
			assert.NotContains(t, text, "%!", d.Name)
		}
	}
}

// recordingQuerier captures what the store sends without a database.
type recordingQuerier struct {
	query string
	args  []any
	err   error
}

func (r *recordingQuerier) QueryContext(_ context.Context, query string, args ...any) (*sql.Rows, error) {
	r.query, r.args = query, args
	return nil, r.err
}

func TestStorePassesParametersThrough(t *testing.T) {
	rq := &recordingQuerier{err: errors.New("stop")}
	store := New(rq, Postgres, WithClock(func() time.Time { return testNow }))

	_, err := store.AuthAttemptsByIP(context.Background(), " not-an-ip ")
	require.Error(t, err)
	assert.Equal(t, []any{" not-an-ip "}, rq.args)
	assert.True(t, strings.Contains(rq.query, "s.ip = $1"))

	_, _ = store.AuthByMinute(context.Background(), 6)
	assert.Equal(t, []any{"2024-01-01 06:00:00"}, rq.args)

	zone := time.FixedZone("UTC-5", -5*60*60)
	_, _ = New(rq, MySQL, WithClock(func() time.Time { return testNow }), WithLocation(zone)).AuthByMinute(context.Background(), 1)
	assert.Equal(t, []any{"2024-01-01 06:00:00"}, rq.args)

	_, _ = store.IPAggregates(context.Background(), 50)
	assert.Equal(t, []any{50}, rq.args)
}

func TestQueryFailureKinds(t *testing.T) {
	store := New(&recordingQuerier{err: sql.ErrConnDone}, SQLite)
	_, err := store.RecentSessions(context.Background(), 1)
	assert.True(t, IsKind(err, KindConnectivity))
	assert.ErrorIs(t, err, sql.ErrConnDone)

	store = New(&recordingQuerier{err: errors.New("syntax error near LIMIT")}, SQLite)
	_, err = store.RecentSessions(context.Background(), 1)
	assert.True(t, IsKind(err, KindQuery))
	assert.Contains(t, err.Error(), "recent_sessions")
}

func TestHealthCheckWithoutPinger(t *testing.T) {
	assert.NoError(t, New(&recordingQuerier{}, SQLite).HealthCheck(context.Background()))
}
