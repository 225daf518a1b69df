package repository

import (
	"context"

	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/editor"
	"esign-canvas/internal/signing"
)

// BackendRepository is the external persistence API (API_BASE_URL).
type BackendRepository interface {
	GetPagesForSigner(ctx context.Context, caller entity.Caller, req entity.SignerPagesRequest) (*entity.SignerPagesResponse, error)
	SignDocument(ctx context.Context, caller entity.Caller, payload *entity.SigningPayload) error
	RejectGroup(ctx context.Context, caller entity.Caller, payload *entity.RejectPayload) error
	SendMailForSign(ctx context.Context, caller entity.Caller, doc *entity.DocumentSubmission) error
	Upload(ctx context.Context, caller entity.Caller, doc *entity.DocumentSubmission) error
	GetAllPagesOfTemplate(ctx context.Context, caller entity.Caller, group string) (*entity.GroupPagesResponse, error)
	GetGroupInfo(ctx context.Context, caller entity.Caller, group string) (*entity.GroupInfo, error)
	GetPagesForDocTakip(ctx context.Context, caller entity.Caller, group string) (*entity.GroupPagesResponse, error)
	DeleteSignProcess(ctx context.Context, caller entity.Caller, group string) error
	ConvertPDF(ctx context.Context, caller entity.Caller, req entity.ConvertRequest) (*entity.ConvertResponse, error)
}

// EditorSessionRepository stores editor state between requests.
// Get returns entity.ErrSessionNotFound for a missing or expired session.
type EditorSessionRepository interface {
	Save(ctx context.Context, state *editor.State) error
	Get(ctx context.Context, id string) (*editor.State, error)
	Delete(ctx context.Context, id string) error
}

// SignerSessionRepository stores signer canvas state between requests.
type SignerSessionRepository interface {
	Save(ctx context.Context, state *signing.State) error
	Get(ctx context.Context, id string) (*signing.State, error)
	Delete(ctx context.Context, id string) error
}

// PreviewRepository holds rendered page previews addressed by opaque keys.
type PreviewRepository interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Revoke(ctx context.Context, keys ...string) error
}

// APILogRepository is the audit log of backend calls.
type APILogRepository interface {
	Save(ctx context.Context, log *entity.APILog) error
	FindAll(ctx context.Context, limit, offset int) ([]entity.APILog, error)
	FindByGroup(ctx context.Context, group string, limit int) ([]entity.APILog, error)
}
