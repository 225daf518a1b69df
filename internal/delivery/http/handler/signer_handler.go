package handler

import (
	"encoding/base64"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"esign-canvas/internal/canvas"
	"esign-canvas/internal/delivery/http/middleware"
	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/signing"
	"esign-canvas/internal/usecase"
)

type SignerHandler struct {
	usecase usecase.SignerUsecase
	logger  *zap.Logger
}

func NewSignerHandler(usecase usecase.SignerUsecase, logger *zap.Logger) *SignerHandler {
	return &SignerHandler{
		usecase: usecase,
		logger:  logger,
	}
}

type strokesRequest struct {
	Strokes [][]canvas.Point `json:"strokes"`
}

type setTextRequest struct {
	Value string `json:"value"`
}

type rejectRequest struct {
	Reason string            `json:"reason"`
	Device entity.DeviceInfo `json:"device"`
}

type renderResponse struct {
	*signing.RenderResult
	Image string `json:"image"`
}

// OpenSession godoc
// @Summary Open a signer session
// @Description Loads the signer's pages and fields for a document group
// @Tags signer
// @Accept json
// @Produce json
// @Param request body usecase.OpenSignerRequest true "Signer identity"
// @Success 201 {object} entity.APIResponse
// @Failure 422 {object} entity.APIResponse
// @Failure 502 {object} entity.APIResponse
// @Router /api/v1/signer/sessions [post]
func (h *SignerHandler) OpenSession(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req usecase.OpenSignerRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Error("Failed to parse request body", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	view, err := h.usecase.Open(ctx, middleware.TokenFrom(c), req)
	if err != nil {
		return respondError(c, h.logger, "Open signer session", err)
	}
	return c.Status(fiber.StatusCreated).JSON(entity.NewSuccessResponse(view, "Signer session opened"))
}

func (h *SignerHandler) GetSession(c *fiber.Ctx) error {
	view, err := h.usecase.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "Get signer session", err)
	}
	return c.JSON(entity.NewSuccessResponse(view, "Signer session retrieved"))
}

// Render godoc
// @Summary Render a page
// @Description Draws the signer's fields onto the page raster. Returns a data URL with overlay and hit rectangles, or the bare PNG with format=png.
// @Tags signer
// @Produce json,png
// @Param id path string true "Signer session id"
// @Param page path int true "Page number"
// @Param width query int false "Target width in pixels"
// @Param format query string false "png for the bare image"
// @Success 200 {object} entity.APIResponse
// @Failure 409 {object} entity.APIResponse
// @Router /api/v1/signer/sessions/{id}/pages/{page}/render [get]
func (h *SignerHandler) Render(c *fiber.Ctx) error {
	page, err := c.ParamsInt("page")
	if err != nil || page < 1 {
		return badRequest(c, "Invalid page number")
	}

	result, err := h.usecase.Render(c.UserContext(), c.Params("id"), page, c.QueryInt("width", 0))
	if err != nil {
		return respondError(c, h.logger, "Render page", err)
	}

	if c.Query("format") == "png" {
		c.Set(fiber.HeaderContentType, "image/png")
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Send(result.PNG)
	}

	return c.JSON(entity.NewSuccessResponse(renderResponse{
		RenderResult: result,
		Image:        "data:image/png;base64," + base64.StdEncoding.EncodeToString(result.PNG),
	}, "Page rendered"))
}

// Click hit-tests a click on the rendered page.
func (h *SignerHandler) Click(c *fiber.Ctx) error {
	var req usecase.ClickRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.usecase.Click(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, h.logger, "Click", err)
	}
	return c.JSON(entity.NewSuccessResponse(result, "Click handled"))
}

func (h *SignerHandler) Activate(c *fiber.Ctx) error {
	view, err := h.usecase.Activate(c.UserContext(), c.Params("id"), c.Params("tabId"))
	if err != nil {
		return respondError(c, h.logger, "Activate field", err)
	}
	return c.JSON(entity.NewSuccessResponse(view, "Field activated"))
}

func (h *SignerHandler) AddStrokes(c *fiber.Ctx) error {
	var req strokesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	view, err := h.usecase.AddStrokes(c.UserContext(), c.Params("id"), req.Strokes)
	if err != nil {
		return respondError(c, h.logger, "Add strokes", err)
	}
	return c.JSON(entity.NewSuccessResponse(view, "Strokes added"))
}

func (h *SignerHandler) ClearPad(c *fiber.Ctx) error {
	view, err := h.usecase.ClearPad(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "Clear pad", err)
	}
	return c.JSON(entity.NewSuccessResponse(view, "Pad cleared"))
}

// SaveSignature godoc
// @Summary Save the drawn signature
// @Description Appends optional strokes to the pad and stores the pad image in the active signature field
// @Tags signer
// @Accept json
// @Produce json
// @Param id path string true "Signer session id"
// @Param request body strokesRequest false "Strokes to append first"
// @Success 200 {object} entity.APIResponse
// @Failure 422 {object} entity.APIResponse
// @Router /api/v1/signer/sessions/{id}/signature [post]
func (h *SignerHandler) SaveSignature(c *fiber.Ctx) error {
	var req strokesRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	view, err := h.usecase.SaveSignature(c.UserContext(), c.Params("id"), req.Strokes)
	if err != nil {
		return respondError(c, h.logger, "Save signature", err)
	}
	return c.JSON(entity.NewSuccessResponse(view, "Signature saved"))
}

func (h *SignerHandler) SetText(c *fiber.Ctx) error {
	var req setTextRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	view, err := h.usecase.SetText(c.UserContext(), c.Params("id"), c.Params("tabId"), req.Value)
	if err != nil {
		return respondError(c, h.logger, "Set text", err)
	}
	return c.JSON(entity.NewSuccessResponse(view, "Text updated"))
}

func (h *SignerHandler) ToggleCheckbox(c *fiber.Ctx) error {
	checked, err := h.usecase.ToggleCheckbox(c.UserContext(), c.Params("id"), c.Params("tabId"))
	if err != nil {
		return respondError(c, h.logger, "Toggle checkbox", err)
	}
	return c.JSON(entity.NewSuccessResponse(fiber.Map{"checked": checked}, "Checkbox toggled"))
}

// Send godoc
// @Summary Submit the signatures
// @Description Validates the signer's fields and posts signatures, checkboxes and texts with device metadata
// @Tags signer
// @Accept json
// @Produce json
// @Param id path string true "Signer session id"
// @Param request body entity.DeviceInfo false "Device information"
// @Success 200 {object} entity.APIResponse
// @Failure 422 {object} entity.APIResponse
// @Failure 502 {object} entity.APIResponse
// @Router /api/v1/signer/sessions/{id}/send [post]
func (h *SignerHandler) Send(c *fiber.Ctx) error {
	var device entity.DeviceInfo
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&device); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}
	h.fillDevice(c, &device)

	result, err := h.usecase.Send(c.UserContext(), c.Params("id"), middleware.TokenFrom(c), device)
	if err != nil {
		return respondError(c, h.logger, "Send signatures", err)
	}
	return c.JSON(entity.NewSuccessResponse(result, "Document signed"))
}

// Reject godoc
// @Summary Reject the document group
// @Tags signer
// @Accept json
// @Produce json
// @Param id path string true "Signer session id"
// @Param request body rejectRequest true "Reason and device information"
// @Success 200 {object} entity.APIResponse
// @Failure 422 {object} entity.APIResponse
// @Router /api/v1/signer/sessions/{id}/reject [post]
func (h *SignerHandler) Reject(c *fiber.Ctx) error {
	var req rejectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	h.fillDevice(c, &req.Device)

	result, err := h.usecase.Reject(c.UserContext(), c.Params("id"), middleware.TokenFrom(c), req.Reason, req.Device)
	if err != nil {
		return respondError(c, h.logger, "Reject document", err)
	}
	return c.JSON(entity.NewSuccessResponse(result, "Document rejected"))
}

// fillDevice completes the browser-reported device info with what the request carries.
func (h *SignerHandler) fillDevice(c *fiber.Ctx, device *entity.DeviceInfo) {
	if ips := c.IPs(); len(ips) > 0 {
		device.ClientIP = ips[0]
	} else {
		device.ClientIP = c.IP()
	}
	if device.UserAgent == "" {
		device.UserAgent = c.Get(fiber.HeaderUserAgent)
	}
	if device.Language == "" {
		device.Language = c.Get(fiber.HeaderAcceptLanguage)
	}
}
