package eventstore

import (
	"context"

	"honeydash/internal/models"
)

// Repository is the read surface the dashboard needs from an event store.
// Store implements it; the Redis query cache decorates it.
type Repository interface {
	IPAggregates(ctx context.Context, limit int) ([]models.IPAggregate, error)
	AuthByMinute(ctx context.Context, hours int) ([]models.AuthByMinute, error)
	AuthAttemptsByIP(ctx context.Context, ip string) ([]models.AuthAttempt, error)
	RecentSessions(ctx context.Context, limit int) ([]models.Session, error)
	SessionsByIP(ctx context.Context, ip string) ([]models.Session, error)
	HealthCheck(ctx context.Context) error
}

var _ Repository = (*Store)(nil)
