package httpclient

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("httpclient",
	fx.Provide(NewHTTPClient),
	fx.Decorate(func(logger *zap.Logger) *zap.Logger {
		return logger.Named("backend")
	}),
)
