package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"esign-canvas/internal/delivery/http/middleware"
	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/usecase"
)

type TrackingHandler struct {
	usecase usecase.TrackingUsecase
	logger  *zap.Logger
}

func NewTrackingHandler(usecase usecase.TrackingUsecase, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{usecase: usecase, logger: logger}
}

// Progress godoc
// @Summary Signing progress of a document group
// @Tags tracking
// @Produce json
// @Param group path string true "Document group"
// @Success 200 {object} entity.APIResponse
// @Failure 502 {object} entity.APIResponse
// @Router /api/v1/groups/{group}/progress [get]
func (h *TrackingHandler) Progress(c *fiber.Ctx) error {
	progress, err := h.usecase.Progress(c.UserContext(), middleware.SessionFrom(c), c.Params("group"))
	if err != nil {
		return respondError(c, h.logger, "Get group progress", err)
	}
	return c.JSON(entity.NewSuccessResponse(progress, "Progress retrieved"))
}
