package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"honeydash/internal/config"
	"honeydash/internal/models"
	"honeydash/internal/repository/eventstore"
	"honeydash/internal/timeago"
)

var ErrInvalidInput = errors.New("invalid input")

// ValidationError rejects a request argument before any query runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidInput, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func (e *ValidationError) Severity() models.Severity { return models.SeverityClient }

// DashboardService turns store rows into the views the pages and the JSON
// API render. It holds no mutable state.
type DashboardService struct {
	repo     eventstore.Repository
	now      func() time.Time
	loc      *time.Location
	short    *timeago.Formatter
	detailed *timeago.Formatter
	logger   *zap.Logger
}

type DashboardOption func(*DashboardService)

func WithClock(now func() time.Time) DashboardOption {
	return func(s *DashboardService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDisplayLocation sets the zone absolute timestamps are converted to.
func WithDisplayLocation(loc *time.Location) DashboardOption {
	return func(s *DashboardService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithDetailUnits sets how many units the per-IP pages show.
func WithDetailUnits(n int) DashboardOption {
	return func(s *DashboardService) {
		s.detailed = timeago.New(timeago.WithMaxUnits(n))
	}
}

func NewDashboardService(repo eventstore.Repository, logger *zap.Logger, opts ...DashboardOption) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DashboardService{
		repo:     repo,
		now:      time.Now,
		loc:      time.UTC,
		short:    timeago.New(),
		detailed: timeago.New(timeago.WithMaxUnits(2)),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IPAggregates returns the rollup, most recently active IP first.
func (s *DashboardService) IPAggregates(ctx context.Context, limit int) ([]models.IPAggregateView, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	rows, err := s.repo.IPAggregates(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load ip aggregates: %w", err)
	}

	now := s.now()
	views := make([]models.IPAggregateView, 0, len(rows))
	for _, r := range rows {
		views = append(views, models.IPAggregateView{
			IP:           r.IP,
			FirstSeen:    s.inLoc(r.FirstSeen),
			LastSeen:     s.inLoc(r.LastSeen),
			FirstSeenAgo: s.ago(s.short, r.FirstSeen, now),
			LastSeenAgo:  s.ago(s.short, r.LastSeen, now),
			Sessions:     r.Sessions,
			AuthAttempts: r.AuthAttempts,
			Commands:     r.Commands,
			Downloads:    r.Downloads,
		})
	}
	return views, nil
}

// AuthTrend returns per-minute auth counts over the trailing window, oldest
// bucket first.
func (s *DashboardService) AuthTrend(ctx context.Context, hours int) ([]models.AuthTrendPoint, error) {
	if hours < 1 || hours > config.MaxTrendHours {
		return nil, &ValidationError{Field: "hours", Reason: fmt.Sprintf("must be between 1 and %d", config.MaxTrendHours)}
	}
	rows, err := s.repo.AuthByMinute(ctx, hours)
	if err != nil {
		return nil, fmt.Errorf("failed to load auth trend: %w", err)
	}

	points := make([]models.AuthTrendPoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, models.AuthTrendPoint{
			Time:    s.inLoc(r.Time),
			Success: r.Success,
			Failure: r.Failure,
			Unknown: r.Unknown,
		})
	}
	return points, nil
}

// AuthAttemptsForIP lists the attempts made from ip, oldest first.
func (s *DashboardService) AuthAttemptsForIP(ctx context.Context, ip string) ([]models.AuthView, error) {
	if err := validateIP(ip); err != nil {
		return nil, err
	}
	rows, err := s.repo.AuthAttemptsByIP(ctx, ip)
	if err != nil {
		return nil, fmt.Errorf("failed to load auth attempts for %s: %w", ip, err)
	}

	now := s.now()
	views := make([]models.AuthView, 0, len(rows))
	for _, r := range rows {
		views = append(views, models.AuthView{
			ID:        r.ID,
			Username:  r.Username,
			Password:  r.Password,
			Outcome:   r.Outcome,
			Client:    r.Client,
			Timestamp: r.Timestamp.In(s.loc),
			When:      s.detailed.Format(r.Timestamp, now),
		})
	}
	return views, nil
}

// RecentSessions lists the latest sessions, newest first.
func (s *DashboardService) RecentSessions(ctx context.Context, limit int) ([]models.SessionView, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	rows, err := s.repo.RecentSessions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent sessions: %w", err)
	}
	return s.sessionViews(rows, s.short), nil
}

// SessionsForIP lists every session opened from ip, newest first.
func (s *DashboardService) SessionsForIP(ctx context.Context, ip string) ([]models.SessionView, error) {
	if err := validateIP(ip); err != nil {
		return nil, err
	}
	rows, err := s.repo.SessionsByIP(ctx, ip)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions for %s: %w", ip, err)
	}
	return s.sessionViews(rows, s.detailed), nil
}

// Overview loads the index page. The rollup and the trend are independent
// queries and run concurrently; the first failure cancels the other.
func (s *DashboardService) Overview(ctx context.Context, limit, hours int) (*models.Overview, error) {
	var out models.Overview

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ips, err := s.IPAggregates(ctx, limit)
		out.IPs = ips
		return err
	})
	g.Go(func() error {
		trend, err := s.AuthTrend(ctx, hours)
		out.Trend = trend
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Debug("Overview failed", zap.Int("limit", limit), zap.Int("hours", hours), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

// IPDetail loads the drill-down page for one source IP.
func (s *DashboardService) IPDetail(ctx context.Context, ip string) (*models.IPDetail, error) {
	if err := validateIP(ip); err != nil {
		return nil, err
	}
	out := models.IPDetail{IP: ip}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		attempts, err := s.AuthAttemptsForIP(ctx, ip)
		out.Attempts = attempts
		return err
	})
	g.Go(func() error {
		sessions, err := s.SessionsForIP(ctx, ip)
		out.Sessions = sessions
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Debug("IP detail failed", zap.String("ip", ip), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

// HealthCheck reports whether the event store answers.
func (s *DashboardService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

func (s *DashboardService) sessionViews(rows []models.Session, f *timeago.Formatter) []models.SessionView {
	now := s.now()
	views := make([]models.SessionView, 0, len(rows))
	for _, r := range rows {
		v := models.SessionView{
			ID:        r.ID,
			IP:        r.IP,
			Sensor:    r.Sensor,
			StartTime: r.StartTime.In(s.loc),
			EndTime:   s.inLoc(r.EndTime),
			Started:   f.Format(r.StartTime, now),
			TermSize:  r.TermSize,
		}
		if r.EndTime != nil {
			d := "0 seconds"
			if elapsed := r.EndTime.Sub(r.StartTime); elapsed >= time.Second {
				d = f.Span(elapsed)
			}
			v.Duration = &d
		}
		views = append(views, v)
	}
	return views
}

func (s *DashboardService) ago(f *timeago.Formatter, t *time.Time, now time.Time) string {
	if t == nil {
		return ""
	}
	return f.Format(*t, now)
}

func (s *DashboardService) inLoc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(s.loc)
	return &v
}

func validateLimit(limit int) error {
	if limit < 0 || limit > config.MaxRollupLimit {
		return &ValidationError{Field: "limit", Reason: fmt.Sprintf("must be between 0 and %d", config.MaxRollupLimit)}
	}
	return nil
}

func validateIP(ip string) error {
	if ip == "" {
		return &ValidationError{Field: "ip", Reason: "must not be empty"}
	}
	return nil
}
