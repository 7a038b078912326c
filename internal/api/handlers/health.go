package handlers

import (
	"net/http"
	"time"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/health"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/models"
	"github.com/Ayash-Bera/webgpt-analyzer/pkg/utils"
	"github.com/gin-gonic/gin"
)

const serviceName = "webgpt-analyzer"

type HealthHandler struct {
	checker *health.HealthChecker
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// HandleHealth runs every check and reports one status per service.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	report := h.checker.CheckAll(c.Request.Context())

	services := make(map[string]string, len(report.Services))
	for _, s := range report.Services {
		services[s.Name] = s.Status
	}

	code := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, models.HealthResponse{
		Status:    report.Status,
		Service:   serviceName,
		Timestamp: time.Now().Format(time.RFC3339),
		Services:  services,
	})
}

// HandleHealthDetails serves the last periodic report, falling back to a
// fresh check.
func (h *HealthHandler) HandleHealthDetails(c *gin.Context) {
	report, ok := h.checker.CheckCached()
	if !ok {
		fresh := h.checker.CheckAll(c.Request.Context())
		report = &fresh
	}
	utils.SuccessResponse(c, http.StatusOK, "Health report", report)
}
