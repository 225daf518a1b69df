package repository

import (
	"go.uber.org/fx"

	"esign-canvas/internal/domain/repository"
	"esign-canvas/internal/infrastructure/httpclient"
)

var Module = fx.Module("repository",
	fx.Provide(NewBackendRepository),
	fx.Provide(NewEditorSessionRepository),
	fx.Provide(NewSignerSessionRepository),
	fx.Provide(NewPreviewRepository),
	fx.Provide(NewAPILogRepository),
	fx.Provide(asAPILogSaver),
)

// asAPILogSaver lets the HTTP client record its calls in the audit log.
func asAPILogSaver(r repository.APILogRepository) httpclient.APILogSaver {
	return r
}
