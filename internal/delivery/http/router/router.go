package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"esign-canvas/internal/config"
	"esign-canvas/internal/delivery/http/handler"
	"esign-canvas/internal/delivery/http/middleware"
)

// Uploaded documents arrive as base64 inside JSON bodies.
const bodyLimit = 50 * 1024 * 1024

type Router struct {
	app             *fiber.App
	config          *config.Config
	session         *middleware.SessionMiddleware
	editorHandler   *handler.EditorHandler
	signerHandler   *handler.SignerHandler
	trackingHandler *handler.TrackingHandler
	healthHandler   *handler.HealthHandler
	logHandler      *handler.LogHandler
}

func NewRouter(
	cfg *config.Config,
	session *middleware.SessionMiddleware,
	editorHandler *handler.EditorHandler,
	signerHandler *handler.SignerHandler,
	trackingHandler *handler.TrackingHandler,
	healthHandler *handler.HealthHandler,
	logHandler *handler.LogHandler,
) *Router {
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    bodyLimit,
		ErrorHandler: customErrorHandler,
	})

	return &Router{
		app:             app,
		config:          cfg,
		session:         session,
		editorHandler:   editorHandler,
		signerHandler:   signerHandler,
		trackingHandler: trackingHandler,
		healthHandler:   healthHandler,
		logHandler:      logHandler,
	}
}

func (r *Router) Setup() *fiber.App {
	// Middleware
	r.app.Use(recover.New())
	r.app.Use(requestid.New())
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	if r.config.IsDevelopment() {
		r.app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	// Health check route
	r.app.Get("/health", r.healthHandler.Health)

	// API v1 routes
	api := r.app.Group("/api/v1")
	{
		authed := r.session.RequireSession()

		// Field placement editor
		editor := api.Group("/editor/sessions", authed)
		{
			editor.Post("", r.editorHandler.CreateSession)
			editor.Get("/:id", r.editorHandler.GetSession)
			editor.Delete("/:id", r.editorHandler.DeleteSession)
			editor.Post("/:id/reset", r.editorHandler.Reset)
			editor.Put("/:id/page", r.editorHandler.SetPage)
			editor.Post("/:id/recipients", r.editorHandler.AddRecipient)
			editor.Put("/:id/recipients/active", r.editorHandler.SelectRecipient)
			editor.Delete("/:id/recipients/:key", r.editorHandler.RemoveRecipient)
			editor.Post("/:id/fields", r.editorHandler.DropField)
			editor.Post("/:id/fields/:fieldId/pointer", r.editorHandler.Pointer)
			editor.Delete("/:id/fields/:fieldId", r.editorHandler.RemoveField)
			editor.Put("/:id/fields/:fieldId/text", r.editorHandler.EditText)
			editor.Post("/:id/hydrate", r.editorHandler.Hydrate)
			editor.Get("/:id/payload", r.editorHandler.Payload)
			editor.Post("/:id/submit", r.editorHandler.Submit)
		}

		// Preview keys are unguessable and revoked with the session
		api.Get("/previews/:key", r.editorHandler.Preview)

		// Signer canvas
		signer := api.Group("/signer/sessions", r.session.ForwardToken())
		{
			signer.Post("", r.signerHandler.OpenSession)
			signer.Get("/:id", r.signerHandler.GetSession)
			signer.Get("/:id/pages/:page/render", r.signerHandler.Render)
			signer.Post("/:id/click", r.signerHandler.Click)
			signer.Post("/:id/activate/:tabId", r.signerHandler.Activate)
			signer.Post("/:id/pad/strokes", r.signerHandler.AddStrokes)
			signer.Delete("/:id/pad", r.signerHandler.ClearPad)
			signer.Post("/:id/signature", r.signerHandler.SaveSignature)
			signer.Put("/:id/text/:tabId", r.signerHandler.SetText)
			signer.Post("/:id/checkbox/:tabId", r.signerHandler.ToggleCheckbox)
			signer.Post("/:id/send", r.signerHandler.Send)
			signer.Post("/:id/reject", r.signerHandler.Reject)
		}

		api.Get("/groups/:group/progress", authed, r.trackingHandler.Progress)

		// Log routes
		logs := api.Group("/logs", authed)
		{
			logs.Get("", r.logHandler.GetLogs)
			logs.Get("/search", r.logHandler.SearchLogs)
		}
	}

	return r.app
}

func (r *Router) GetApp() *fiber.App {
	return r.app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
		"error": fiber.Map{
			"code":    code,
			"message": err.Error(),
		},
	})
}
