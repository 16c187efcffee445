package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the health check result
type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	Database string `json:"database" example:"ok"`
	Uptime   string `json:"uptime" example:"1h30m45s"`
	Time     string `json:"time" example:"2026-01-23T12:00:00Z"`
}

// HealthHandler serves the liveness and readiness probe
type HealthHandler struct {
	BaseHandler
	db        Pinger
	timeout   time.Duration
	startTime time.Time
}

// NewHealthHandler creates a health handler pinging db
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, timeout: 2 * time.Second, startTime: time.Now()}
}

// Health godoc
// @ID           health
// @Summary      Health check
// @Description  Pings the database
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:   "healthy",
		Database: "ok",
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
		Time:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.db.PingContext(ctx); err != nil {
		logger.L(ctx).Warn("Health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "error"
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
		return
	}
	h.Success(c, resp)
}
