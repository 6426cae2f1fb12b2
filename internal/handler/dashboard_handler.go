package handler

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"honeydash/internal/service"
	"honeydash/internal/util"
)

// HealthChecker is any dependency /health should probe.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// DashboardDefaults are the window sizes used when a request omits them.
type DashboardDefaults struct {
	RollupLimit int
	TrendHours  int
}

// DashboardHandler serves the HTML pages and the JSON API.
type DashboardHandler struct {
	dashboardService *service.DashboardService
	defaults         DashboardDefaults
	checks           map[string]HealthChecker
	logger           *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler. checks maps component
// names ("store", "redis") to their probes.
func NewDashboardHandler(svc *service.DashboardService, defaults DashboardDefaults, checks map[string]HealthChecker, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{
		dashboardService: svc,
		defaults:         defaults,
		checks:           checks,
		logger:           logger,
	}
}

// RegisterRoutes registers the pages and the JSON API
func (h *DashboardHandler) RegisterRoutes(router chi.Router) {
	router.Get("/", h.Index)
	router.Get("/ip/{ip}", h.IPPage)

	router.Route("/api", func(r chi.Router) {
		r.Get("/ips", h.ListIPAggregates)
		r.Get("/ips/{ip}/auth", h.ListAuthAttempts)
		r.Get("/auth/byminute", h.AuthByMinute)
		r.Get("/sessions", h.ListRecentSessions)
	})

	router.Get("/health", h.HealthCheck)
}

// Index renders the overview page.
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	overview, err := h.dashboardService.Overview(r.Context(), h.defaults.RollupLimit, h.defaults.TrendHours)
	if err != nil {
		h.renderError(w, r, err, "Failed to load overview")
		return
	}
	renderHTML(w, http.StatusOK, overviewPage(overview, h.defaults.TrendHours))
}

// IPPage renders the drill-down page for one source IP.
func (h *DashboardHandler) IPPage(w http.ResponseWriter, r *http.Request) {
	ip, err := ipParam(r)
	if err != nil {
		h.renderError(w, r, err, "Invalid IP")
		return
	}
	detail, err := h.dashboardService.IPDetail(r.Context(), ip)
	if err != nil {
		h.renderError(w, r, err, "Failed to load IP detail")
		return
	}
	renderHTML(w, http.StatusOK, ipDetailPage(detail))
}

// ListIPAggregates handles GET /api/ips?limit=N
func (h *DashboardHandler) ListIPAggregates(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	limit, err := queryInt(r, "limit", h.defaults.RollupLimit)
	if err != nil {
		h.respondWithError(w, r, err, "Invalid limit")
		return
	}
	views, err := h.dashboardService.IPAggregates(r.Context(), limit)
	if err != nil {
		h.respondWithError(w, r, err, "Failed to load IP aggregates")
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, successResponse(views, ""))
	h.logger.Debug("IP aggregates served",
		util.Int("limit", limit),
		util.Int("rows", len(views)),
		util.Duration("duration", time.Since(startTime)),
	)
}

// AuthByMinute handles GET /api/auth/byminute?hours=N
func (h *DashboardHandler) AuthByMinute(w http.ResponseWriter, r *http.Request) {
	hours, err := queryInt(r, "hours", h.defaults.TrendHours)
	if err != nil {
		h.respondWithError(w, r, err, "Invalid hours")
		return
	}
	points, err := h.dashboardService.AuthTrend(r.Context(), hours)
	if err != nil {
		h.respondWithError(w, r, err, "Failed to load auth trend")
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, successResponse(points, ""))
}

// ListAuthAttempts handles GET /api/ips/{ip}/auth
func (h *DashboardHandler) ListAuthAttempts(w http.ResponseWriter, r *http.Request) {
	ip, err := ipParam(r)
	if err != nil {
		h.respondWithError(w, r, err, "Invalid IP")
		return
	}
	attempts, err := h.dashboardService.AuthAttemptsForIP(r.Context(), ip)
	if err != nil {
		h.respondWithError(w, r, err, "Failed to load auth attempts")
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, successResponse(attempts, ""))
}

// ListRecentSessions handles GET /api/sessions?limit=N
func (h *DashboardHandler) ListRecentSessions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", h.defaults.RollupLimit)
	if err != nil {
		h.respondWithError(w, r, err, "Invalid limit")
		return
	}
	sessions, err := h.dashboardService.RecentSessions(r.Context(), limit)
	if err != nil {
		h.respondWithError(w, r, err, "Failed to load sessions")
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, successResponse(sessions, ""))
}

// HealthCheck probes every registered component and reports each failure.
func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	failures := make(map[string]string)
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		h.logger.Warn("Health check failed", util.Any("failures", failures))
		respondWithJSON(h.logger, w, http.StatusServiceUnavailable, Response{
			Success: false,
			Data:    map[string]interface{}{"status": "unhealthy", "service": "honeydash", "components": failures},
			Error:   "one or more components are unhealthy",
		})
		return
	}
	respondWithJSON(h.logger, w, http.StatusOK, successResponse(
		map[string]string{"status": "healthy", "service": "honeydash"}, ""))
}

func (h *DashboardHandler) respondWithError(w http.ResponseWriter, r *http.Request, err error, message string) {
	statusCode := getStatusCode(err)
	logError(h.logger, r, statusCode, err, message)
	respondWithJSON(h.logger, w, statusCode, errorResponse(err, message))
}

func (h *DashboardHandler) renderError(w http.ResponseWriter, r *http.Request, err error, message string) {
	statusCode := getStatusCode(err)
	logError(h.logger, r, statusCode, err, message)
	renderHTML(w, statusCode, errorPage(statusCode, message))
}

// ipParam returns the {ip} path segment, unescaped. An empty value is left
// for the service to reject.
func ipParam(r *http.Request) (string, error) {
	ip, err := url.PathUnescape(chi.URLParam(r, "ip"))
	if err != nil {
		return "", &service.ValidationError{Field: "ip", Reason: "is not a valid path segment"}
	}
	return ip, nil
}
