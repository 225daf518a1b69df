package usecase

import "go.uber.org/fx"

var Module = fx.Module("usecase",
	fx.Provide(NewEditorUsecase),
	fx.Provide(NewSignerUsecase),
	fx.Provide(NewTrackingUsecase),
)
