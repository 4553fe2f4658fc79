package handler

import (
	"context"
	"net/http"
	"time"

	"refurbmarket/internal/logger"

	"github.com/labstack/echo/v4"
)

// DBへのping（*sql.DB）
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.healthz)
}

type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
}

func (h *HealthHandler) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logger.WithCtx(ctx).Error("health check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unavailable", DB: "down"})
	}
	return c.JSON(http.StatusOK, healthResponse{Status: "ok", DB: "up"})
}
