package service

import (
	"time"

	"go.uber.org/zap"

	"honeydash/internal/repository/eventstore"
)

// ServiceFactory creates and manages service instances
type ServiceFactory struct {
	repo             eventstore.Repository
	logger           *zap.Logger
	displayLoc       *time.Location
	detailUnits      int
	dashboardService *DashboardService
}

// NewServiceFactory creates a new service factory
func NewServiceFactory(
	repo eventstore.Repository,
	displayLoc *time.Location,
	detailUnits int,
	logger *zap.Logger,
) *ServiceFactory {
	return &ServiceFactory{
		repo:        repo,
		displayLoc:  displayLoc,
		detailUnits: detailUnits,
		logger:      logger,
	}
}

// DashboardService returns the dashboard service instance (singleton)
func (f *ServiceFactory) DashboardService() *DashboardService {
	if f.dashboardService == nil {
		f.dashboardService = NewDashboardService(
			f.repo,
			f.logger,
			WithDisplayLocation(f.displayLoc),
			WithDetailUnits(f.detailUnits),
		)
	}
	return f.dashboardService
}
