package eventstore

import (
	"context"
	"database/sql"
	"time"

	"honeydash/internal/metrics"
	"honeydash/internal/models"
)

// Querier is the query executor the store runs on. *sql.DB, *sql.Conn and
// *sql.Tx all satisfy it; the store never opens or closes connections.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type pinger interface {
	PingContext(ctx context.Context) error
}

const naiveLayout = "2006-01-02 15:04:05"

// Store runs the dashboard's read queries against a Cowrie-schema database.
// It holds no per-request state and is safe for concurrent use.
type Store struct {
	q       Querier
	dialect Dialect
	queries queries
	loc     *time.Location
	now     func() time.Time
	metrics *metrics.Metrics
}

type Option func(*Store)

// WithLocation sets the zone naive store timestamps are read in. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now for trend windows.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func New(q Querier, dialect Dialect, opts ...Option) *Store {
	s := &Store{
		q:       q,
		dialect: dialect,
		queries: buildQueries(dialect),
		loc:     time.UTC,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Dialect() Dialect { return s.dialect }

// IPAggregates returns one row per source IP, most recently active first.
func (s *Store) IPAggregates(ctx context.Context, limit int) ([]models.IPAggregate, error) {
	return collect(ctx, s, "ip_aggregates", s.queries.ipAggregates, []any{limit},
		func(rows *sql.Rows) (models.IPAggregate, error) {
			var agg models.IPAggregate
			first, last := naiveTime{loc: s.loc}, naiveTime{loc: s.loc}
			err := rows.Scan(&agg.IP, &first, &last, &agg.Sessions, &agg.AuthAttempts, &agg.Commands, &agg.Downloads)
			agg.FirstSeen, agg.LastSeen = first.ptr(), last.ptr()
			return agg, err
		})
}

// AuthByMinute buckets auth attempts of sessions started in the trailing
// window by the minute their session started.
func (s *Store) AuthByMinute(ctx context.Context, hours int) ([]models.AuthByMinute, error) {
	cutoff := s.now().In(s.loc).Add(-time.Duration(hours) * time.Hour).Format(naiveLayout)
	return collect(ctx, s, "auth_by_minute", s.queries.authByMinute, []any{cutoff},
		func(rows *sql.Rows) (models.AuthByMinute, error) {
			var row models.AuthByMinute
			bucket := naiveTime{loc: s.loc}
			err := rows.Scan(&bucket, &row.Success, &row.Failure, &row.Unknown)
			row.Time = bucket.ptr()
			return row, err
		})
}

// AuthAttemptsByIP lists every auth attempt made from ip, oldest first. The ip
// is matched literally.
func (s *Store) AuthAttemptsByIP(ctx context.Context, ip string) ([]models.AuthAttempt, error) {
	return collect(ctx, s, "auth_attempts_by_ip", s.queries.authByIP, []any{ip},
		func(rows *sql.Rows) (models.AuthAttempt, error) {
			var (
				a                          models.AuthAttempt
				flag                       successFlag
				username, password, client sql.NullString
				ts                         = naiveTime{loc: s.loc}
			)
			err := rows.Scan(&a.ID, &a.SessionID, &flag, &username, &password, &client, &ts)
			a.Outcome = models.ClassifyOutcome(flag.NullInt64)
			a.Username, a.Password, a.Client = stringPtr(username), stringPtr(password), stringPtr(client)
			a.Timestamp = ts.Time
			return a, err
		})
}

// RecentSessions returns the latest sessions, newest first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]models.Session, error) {
	return collect(ctx, s, "recent_sessions", s.queries.recentSessions, []any{limit}, s.scanSession)
}

// SessionsByIP returns every session opened from ip, newest first.
func (s *Store) SessionsByIP(ctx context.Context, ip string) ([]models.Session, error) {
	return collect(ctx, s, "sessions_by_ip", s.queries.sessionsByIP, []any{ip}, s.scanSession)
}

func (s *Store) scanSession(rows *sql.Rows) (models.Session, error) {
	var (
		sess     models.Session
		start    = naiveTime{loc: s.loc}
		end      = naiveTime{loc: s.loc}
		termSize sql.NullString
		client   sql.NullInt64
	)
	err := rows.Scan(&sess.ID, &start, &end, &sess.Sensor, &sess.IP, &termSize, &client)
	sess.StartTime = start.Time
	sess.EndTime = end.ptr()
	sess.TermSize = stringPtr(termSize)
	sess.ClientID = int64Ptr(client)
	return sess, err
}

// HealthCheck pings the underlying pool when the querier supports it.
func (s *Store) HealthCheck(ctx context.Context) error {
	p, ok := s.q.(pinger)
	if !ok {
		return nil
	}
	if err := p.PingContext(ctx); err != nil {
		return newError("ping", KindConnectivity, err)
	}
	return nil
}

// collect runs one query and maps every row. It returns either the full,
// never-nil result or a *StoreError.
func collect[T any](ctx context.Context, s *Store, op, query string, args []any, scan func(*sql.Rows) (T, error)) (out []T, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveQuery(op, start, err) }()

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	out = make([]T, 0)
	for rows.Next() {
		item, scanErr := scan(rows)
		if scanErr != nil {
			return nil, newError(op, KindMapping, scanErr)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}
