package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"esign-canvas/internal/delivery/http/middleware"
	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/editor"
	"esign-canvas/internal/usecase"
)

type EditorHandler struct {
	usecase usecase.EditorUsecase
	logger  *zap.Logger
}

func NewEditorHandler(usecase usecase.EditorUsecase, logger *zap.Logger) *EditorHandler {
	return &EditorHandler{
		usecase: usecase,
		logger:  logger,
	}
}

type selectRecipientRequest struct {
	Key string `json:"key"`
}

type setPageRequest struct {
	Page int `json:"page"`
}

type editTextRequest struct {
	Value  string `json:"value"`
	Action string `json:"action"`
}

type submitRequest struct {
	Mode string `json:"mode"`
}

// CreateSession godoc
// @Summary Open an editor session
// @Description Rasterizes the uploaded sources, or binds a template or follow-up group, and returns the editor state
// @Tags editor
// @Accept json
// @Produce json
// @Param request body usecase.CreateEditorRequest true "Document and sources"
// @Success 201 {object} entity.APIResponse
// @Failure 400 {object} entity.APIResponse
// @Failure 422 {object} entity.APIResponse
// @Router /api/v1/editor/sessions [post]
func (h *EditorHandler) CreateSession(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req usecase.CreateEditorRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Error("Failed to parse request body", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	view, err := h.usecase.Create(ctx, middleware.SessionFrom(c), req)
	if err != nil {
		return respondError(c, h.logger, "Create editor session", err)
	}

	return c.Status(fiber.StatusCreated).JSON(entity.NewSuccessResponse(view, "Editor session created"))
}

// GetSession godoc
// @Summary Get editor state
// @Tags editor
// @Produce json
// @Param id path string true "Editor session id"
// @Success 200 {object} entity.APIResponse
// @Failure 404 {object} entity.APIResponse
// @Router /api/v1/editor/sessions/{id} [get]
func (h *EditorHandler) GetSession(c *fiber.Ctx) error {
	view, err := h.usecase.Get(c.UserContext(), middleware.SessionFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "Get editor session", err)
	}
	return c.JSON(entity.NewSuccessResponse(view, "Editor session retrieved"))
}

// DeleteSession godoc
// @Summary Discard an editor session
// @Description Drops the session state and revokes its page previews
// @Tags editor
// @Param id path string true "Editor session id"
// @Success 200 {object} entity.APIResponse
// @Router /api/v1/editor/sessions/{id} [delete]
func (h *EditorHandler) DeleteSession(c *fiber.Ctx) error {
	if err := h.usecase.Delete(c.UserContext(), middleware.SessionFrom(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, "Delete editor session", err)
	}
	return c.JSON(entity.NewSuccessResponse(nil, "Editor session deleted"))
}

// Reset re-rasterizes the document and clears placements and recipients.
func (h *EditorHandler) Reset(c *fiber.Ctx) error {
	view, err := h.usecase.Reset(c.UserContext(), middleware.SessionFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "Reset editor session", err)
	}
	return c.JSON(entity.NewSuccessResponse(view, "Editor session reset"))
}

// AddRecipient godoc
// @Summary Add a recipient
// @Tags editor
// @Accept json
// @Produce json
// @Param id path string true "Editor session id"
// @Param request body entity.Recipient true "Recipient"
// @Success 200 {object} entity.APIResponse
// @Failure 422 {object} entity.APIResponse
// @Router /api/v1/editor/sessions/{id}/recipients [post]
func (h *EditorHandler) AddRecipient(c *fiber.Ctx) error {
	var req entity.Recipient
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	view, err := h.usecase.AddRecipient(c.UserContext(), middleware.SessionFrom(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, h.logger, "Add recipient", err)
	}
	return c.JSON(entity.NewSuccessResponse(view, "Recipient added"))
}

func (h *EditorHandler) RemoveRecipient(c *fiber.Ctx) error {
	view, err := h.usecase.RemoveRecipient(c.UserContext(), middleware.SessionFrom(c), c.Params("id"), c.Params("key"))
	if err != nil {
		return respondError(c, h.logger, "Remove recipient", err)
	}
	return c.JSON(entity.NewSuccessResponse(view, "Recipient removed"))
}

func (h *EditorHandler) SelectRecipient(c *fiber.Ctx) error {
	var req selectRecipientRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	view, err := h.usecase.SelectRecipient(c.UserContext(), middleware.SessionFrom(c), c.Params("id"), req.Key)
	if err != nil {
		return respondError(c, h.logger, "Select recipient", err)
	}
	return c.JSON(entity.NewSuccessResponse(view, "Active recipient updated"))
}

func (h *EditorHandler) SetPage(c *fiber.Ctx) error {
	var req setPageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	view, err := h.usecase.SetPage(c.UserContext(), middleware.SessionFrom(c), c.Params("id"), req.Page)
	if err != nil {
		return respondError(c, h.logger, "Set page", err)
	}
	return c.JSON(entity.NewSuccessResponse(view, "Page updated"))
}

// DropField godoc
// @Summary Place a field
// @Description Creates a field for the active recipient at the drop position
// @Tags editor
// @Accept json
// @Produce json
// @Param id path string true "Editor session id"
// @Param request body editor.DropRequest true "Drop position"
// @Success 201 {object} entity.APIResponse
// @Failure 422 {object} entity.APIResponse
// @Router /api/v1/editor/sessions/{id}/fields [post]
func (h *EditorHandler) DropField(c *fiber.Ctx) error {
	var req editor.DropRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	item, err := h.usecase.DropField(c.UserContext(), middleware.SessionFrom(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, h.logger, "Drop field", err)
	}
	return c.Status(fiber.StatusCreated).JSON(entity.NewSuccessResponse(item, "Field placed"))
}

// Pointer feeds one pointer event of a press or drag on a placed field.
func (h *EditorHandler) Pointer(c *fiber.Ctx) error {
	var ev editor.PointerEvent
	if err := c.BodyParser(&ev); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.usecase.Pointer(c.UserContext(), middleware.SessionFrom(c), c.Params("id"), c.Params("fieldId"), ev)
	if err != nil {
		return respondError(c, h.logger, "Pointer event", err)
	}
	return c.JSON(entity.NewSuccessResponse(result, "Pointer event applied"))
}

func (h *EditorHandler) RemoveField(c *fiber.Ctx) error {
	page := c.QueryInt("page", 0)
	if page < 1 {
		return badRequest(c, "page query parameter is required")
	}

	if err := h.usecase.RemoveField(c.UserContext(), middleware.SessionFrom(c), c.Params("id"), page, c.Params("fieldId")); err != nil {
		return respondError(c, h.logger, "Remove field", err)
	}
	return c.JSON(entity.NewSuccessResponse(nil, "Field removed"))
}

func (h *EditorHandler) EditText(c *fiber.Ctx) error {
	var req editTextRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	view, err := h.usecase.EditText(c.UserContext(), middleware.SessionFrom(c), c.Params("id"), c.Params("fieldId"), req.Value, req.Action)
	if err != nil {
		return respondError(c, h.logger, "Edit text", err)
	}
	return c.JSON(entity.NewSuccessResponse(view, "Text updated"))
}

// Hydrate godoc
// @Summary Restore saved fields
// @Description Rebuilds placements from the template or follow-up group the session was opened for. Runs once per session.
// @Tags editor
// @Produce json
// @Param id path string true "Editor session id"
// @Success 200 {object} entity.APIResponse
// @Failure 422 {object} entity.APIResponse
// @Failure 502 {object} entity.APIResponse
// @Router /api/v1/editor/sessions/{id}/hydrate [post]
func (h *EditorHandler) Hydrate(c *fiber.Ctx) error {
	out, err := h.usecase.Hydrate(c.UserContext(), middleware.SessionFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "Hydrate editor session", err)
	}
	return c.JSON(entity.NewSuccessResponse(out, "Saved fields restored"))
}

func (h *EditorHandler) Payload(c *fiber.Ctx) error {
	doc, err := h.usecase.Payload(c.UserContext(), middleware.SessionFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, "Build payload", err)
	}
	return c.JSON(entity.NewSuccessResponse(doc, "Payload built"))
}

// Submit godoc
// @Summary Submit the document
// @Description Sends the document for signing or saves it as a draft
// @Tags editor
// @Accept json
// @Produce json
// @Param id path string true "Editor session id"
// @Param request body submitRequest true "Submission mode"
// @Success 200 {object} entity.APIResponse
// @Failure 422 {object} entity.APIResponse
// @Failure 502 {object} entity.APIResponse
// @Router /api/v1/editor/sessions/{id}/submit [post]
func (h *EditorHandler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.usecase.Submit(c.UserContext(), middleware.SessionFrom(c), c.Params("id"), req.Mode)
	if err != nil {
		return respondError(c, h.logger, "Submit document", err)
	}

	msg := "Document sent for signing"
	if result.Mode == editor.ModeSaveDraft {
		msg = "Document saved"
	}
	return c.JSON(entity.NewSuccessResponse(result, msg))
}

// Preview serves a rasterized page by its revocable key.
func (h *EditorHandler) Preview(c *fiber.Ctx) error {
	data, err := h.usecase.Preview(c.UserContext(), c.Params("key"))
	if err != nil {
		return respondError(c, h.logger, "Get preview", err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "private, no-store")
	return c.Send(data)
}
