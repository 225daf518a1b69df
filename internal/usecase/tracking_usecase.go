package usecase

import (
	"context"

	"go.uber.org/zap"

	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/domain/repository"
	"esign-canvas/internal/signing"
)

// TrackingUsecase reports how far the signers of a sent document group have got.
type TrackingUsecase interface {
	Progress(ctx context.Context, sess entity.Session, group string) (*signing.GroupProgress, error)
}

type trackingUsecase struct {
	backend repository.BackendRepository
	logger  *zap.Logger
}

func NewTrackingUsecase(backend repository.BackendRepository, logger *zap.Logger) TrackingUsecase {
	return &trackingUsecase{backend: backend, logger: logger}
}

func (u *trackingUsecase) Progress(ctx context.Context, sess entity.Session, group string) (*signing.GroupProgress, error) {
	if group == "" {
		return nil, entity.NewValidationError(entity.CodeMissingGroup, "document group is required")
	}

	resp, err := u.backend.GetPagesForDocTakip(ctx, sess.Caller(group), group)
	if err != nil {
		u.logger.Error("Failed to load document group for tracking",
			zap.String("document_group", group),
			zap.Error(err),
		)
		return nil, err
	}

	progress := signing.Progress(group, resp.Tabs)
	u.logger.Debug("Document group progress",
		zap.String("document_group", group),
		zap.Int("signed", progress.Signed),
		zap.Int("total", progress.Total),
	)
	return &progress, nil
}
