package http

import (
	"go.uber.org/fx"

	"esign-canvas/internal/delivery/http/handler"
	"esign-canvas/internal/delivery/http/middleware"
	"esign-canvas/internal/delivery/http/router"
)

var Module = fx.Module("http",
	fx.Provide(
		middleware.NewSessionMiddleware,
		handler.NewEditorHandler,
		handler.NewSignerHandler,
		handler.NewTrackingHandler,
		handler.NewHealthHandler,
		handler.NewLogHandler,
		router.NewRouter,
	),
)
