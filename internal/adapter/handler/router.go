package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/meetingloop/backend/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	webhookHandler *Webhook
	logger         *zap.Logger
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, webhookHandler *Webhook, logger *zap.Logger) *Router {
	return &Router{
		cfg:            cfg,
		webhookHandler: webhookHandler,
		logger:         logger,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)

	v1 := e.Group("/v1")
	v1.POST("/webhooks/video", rt.webhookHandler.Handle)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return HandleSuccess(rt.logger, c, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
