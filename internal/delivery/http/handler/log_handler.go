package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/domain/repository"
)

const maxLogLimit = 200

type LogHandler struct {
	logRepo repository.APILogRepository
	logger  *zap.Logger
}

func NewLogHandler(logRepo repository.APILogRepository, logger *zap.Logger) *LogHandler {
	return &LogHandler{logRepo: logRepo, logger: logger}
}

// GetLogs returns the most recent backend calls
func (h *LogHandler) GetLogs(c *fiber.Ctx) error {
	limit := clampLimit(c.QueryInt("limit", 50))
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	logs, err := h.logRepo.FindAll(c.UserContext(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list api logs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(
			entity.NewErrorResponse("INTERNAL_ERROR", err.Error()),
		)
	}

	return c.JSON(entity.NewSuccessResponse(logs, "Logs retrieved"))
}

// SearchLogs searches logs by document group
func (h *LogHandler) SearchLogs(c *fiber.Ctx) error {
	group := c.Query("group")
	if group == "" {
		return badRequest(c, "group parameter required")
	}

	logs, err := h.logRepo.FindByGroup(c.UserContext(), group, clampLimit(c.QueryInt("limit", 50)))
	if err != nil {
		h.logger.Error("Failed to search api logs", zap.String("document_group", group), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(
			entity.NewErrorResponse("INTERNAL_ERROR", err.Error()),
		)
	}

	return c.JSON(entity.NewSuccessResponse(logs, "Logs retrieved"))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > maxLogLimit {
		return maxLogLimit
	}
	return limit
}
