package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"esign-canvas/internal/config"
	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/infrastructure/database"
	"esign-canvas/internal/infrastructure/redis"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency the service cannot work without.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	name   string
	checks map[string]Pinger
	logger *zap.Logger
}

func NewHealthHandler(cfg *config.Config, db *database.Database, rc *redis.RedisClient, logger *zap.Logger) *HealthHandler {
	return newHealthHandler(cfg.App.Name, map[string]Pinger{
		"postgres": db,
		"redis":    rc,
	}, logger)
}

func newHealthHandler(name string, checks map[string]Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{name: name, checks: checks, logger: logger}
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Timestamp    time.Time         `json:"timestamp"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

// Health godoc
// @Summary Health check
// @Description Check if the service and its session store and log database are reachable
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} entity.APIResponse
// @Failure 503 {object} entity.APIResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:       "healthy",
		Service:      h.name,
		Timestamp:    time.Now(),
		Version:      "1.0.0",
		Dependencies: make(map[string]string, len(h.checks)),
	}

	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			resp.Dependencies[name] = "down"
			resp.Status = "degraded"
			continue
		}
		resp.Dependencies[name] = "up"
	}

	if resp.Status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(&entity.APIResponse{
			Success: false,
			Message: "Service is degraded",
			Data:    resp,
		})
	}
	return c.JSON(entity.NewSuccessResponse(resp, "Service is healthy"))
}
