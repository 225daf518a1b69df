package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/infrastructure/httpclient"
)

const backendFailureMessage = "The document service could not complete the request, please try again"

// respondError maps usecase errors onto the API envelope. Validation errors carry the
// offending field so the browser can focus it.
func respondError(c *fiber.Ctx, logger *zap.Logger, op string, err error) error {
	if ve, ok := entity.AsValidation(err); ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(entity.NewValidationErrorResponse(ve))
	}

	switch {
	case errors.Is(err, entity.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(
			entity.NewErrorResponse("NOT_FOUND", "Session not found or expired"),
		)
	case errors.Is(err, httpclient.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(
			entity.NewErrorResponse("BACKEND_UNAUTHORIZED", "The document service rejected the credentials"),
		)
	case errors.Is(err, entity.ErrBackend):
		logger.Error(op+" failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(
			entity.NewErrorResponse("BACKEND_ERROR", backendFailureMessage),
		)
	case errors.Is(err, context.Canceled):
		return c.Status(fiber.StatusConflict).JSON(
			entity.NewErrorResponse("CANCELLED", "Request was superseded"),
		)
	}

	logger.Error(op+" failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(
		entity.NewErrorResponse("INTERNAL_ERROR", err.Error()),
	)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(
		entity.NewErrorResponse("BAD_REQUEST", message),
	)
}
