package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/database"
	"github.com/sirupsen/logrus"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusDisabled  = "disabled"
)

// Pinger is anything that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker manages health checks for all services
type HealthChecker struct {
	dbManager *database.Manager
	upstream  Pinger
	logger    *logrus.Logger
	timeout   time.Duration

	mu   sync.RWMutex
	last *OverallHealth
}

func NewHealthChecker(dbManager *database.Manager, upstream Pinger, logger *logrus.Logger) *HealthChecker {
	return &HealthChecker{
		dbManager: dbManager,
		upstream:  upstream,
		logger:    logger,
		timeout:   5 * time.Second,
	}
}

// ServiceHealth represents the health status of a service
type ServiceHealth struct {
	Name         string                 `json:"name"`
	Status       string                 `json:"status"`
	ResponseTime int                    `json:"response_time_ms"`
	Error        string                 `json:"error,omitempty"`
	LastChecked  string                 `json:"last_checked"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
}

var errNotConfigured = errors.New("not configured")

func (h *HealthChecker) check(ctx context.Context, name, failStatus string, ping func(context.Context) error) ServiceHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := ping(ctx)
	responseTime := int(time.Since(start).Milliseconds())

	status := StatusHealthy
	errorMsg := ""
	switch {
	case errors.Is(err, errNotConfigured):
		status = StatusDisabled
	case err != nil:
		status = failStatus
		errorMsg = err.Error()
		h.logger.WithError(err).WithField("service", name).Error("Health check failed")
	}

	return ServiceHealth{
		Name:         name,
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}

// CheckPostgreSQL checks the run log database.
func (h *HealthChecker) CheckPostgreSQL(ctx context.Context) ServiceHealth {
	return h.check(ctx, "postgresql", StatusUnhealthy, func(ctx context.Context) error {
		if !h.dbManager.HasDatabase() {
			return errNotConfigured
		}
		return h.dbManager.PingDatabase(ctx)
	})
}

// CheckRedis checks the shared rate limit store and attaches its stats when
// it answers.
func (h *HealthChecker) CheckRedis(ctx context.Context) ServiceHealth {
	result := h.check(ctx, "redis", StatusUnhealthy, func(ctx context.Context) error {
		if !h.dbManager.HasRedis() {
			return errNotConfigured
		}
		return h.dbManager.PingRedis(ctx)
	})
	if result.Status != StatusHealthy {
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	stats, err := database.NewCache(h.dbManager.Redis, h.logger).GetCacheStats(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to read redis stats")
		return result
	}
	result.Details = stats
	return result
}

// CheckChatGPT checks that the upstream answers. Document analysis still works
// without it, so a failure only degrades the service.
func (h *HealthChecker) CheckChatGPT(ctx context.Context) ServiceHealth {
	return h.check(ctx, "chatgpt", StatusDegraded, func(ctx context.Context) error {
		if h.upstream == nil {
			return errNotConfigured
		}
		return h.upstream.Ping(ctx)
	})
}

// CheckAll performs health checks on all services
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	services := []ServiceHealth{
		h.CheckPostgreSQL(ctx),
		h.CheckRedis(ctx),
		h.CheckChatGPT(ctx),
	}

	overallStatus := StatusHealthy
	for _, service := range services {
		if service.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			break
		}
		if service.Status == StatusDegraded && overallStatus == StatusHealthy {
			overallStatus = StatusDegraded
		}
	}

	health := OverallHealth{
		Status:   overallStatus,
		Services: services,
		Uptime:   h.getUptime(),
	}

	h.mu.Lock()
	h.last = &health
	h.mu.Unlock()

	return health
}

// CheckCached returns the most recent report, if any check has run.
func (h *HealthChecker) CheckCached() (*OverallHealth, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return nil, false
	}
	cached := *h.last
	cached.Uptime = h.getUptime()
	return &cached, true
}

var startTime = time.Now()

func (h *HealthChecker) getUptime() string {
	uptime := time.Since(startTime)
	return uptime.Round(time.Second).String()
}

// PeriodicHealthCheck runs health checks periodically
func (h *HealthChecker) PeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			health := h.CheckAll(ctx)
			h.logger.WithField("status", health.Status).Debug("Periodic health check completed")
		}
	}
}
