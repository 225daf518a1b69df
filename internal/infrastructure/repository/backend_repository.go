package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/domain/repository"
	"esign-canvas/internal/infrastructure/httpclient"
)

// Backend API routes.
const (
	pathGetPagesForSigner     = "/api/getPagesForSigner"
	pathSignDocument          = "/api/signDocument"
	pathRejectGroup           = "/api/rejectGroup"
	pathSendMailForSign       = "/api/sendMailForSign"
	pathUpload                = "/api/upload"
	pathGetAllPagesOfTemplate = "/api/getAllPagesOfTemplate"
	pathGetGroupInfo          = "/api/getGroupInfo"
	pathGetPagesForDocTakip   = "/api/getPagesForDocTakip"
	pathDeleteSignProcess     = "/api/DeleteSignProcess"
	pathConvertPDF            = "/api/convertPdfToImages"
)

type backendRepository struct {
	client httpclient.HTTPClient
	logger *zap.Logger
}

func NewBackendRepository(client httpclient.HTTPClient, logger *zap.Logger) repository.BackendRepository {
	return &backendRepository{
		client: client,
		logger: logger,
	}
}

func requestContext(c entity.Caller) *httpclient.RequestContext {
	return &httpclient.RequestContext{Token: c.Token, DocumentGroup: c.DocumentGroup, Actor: c.Actor}
}

// post sends body and fails when the backend answers 2xx with an error result.
func (r *backendRepository) post(ctx context.Context, caller entity.Caller, op, path string, body interface{}) error {
	var result entity.BackendResult
	if err := r.client.Post(ctx, requestContext(caller), path, body, &result); err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if result.Failed() {
		return fmt.Errorf("failed to %s: %w: %s", op, entity.ErrBackend, result.Reason())
	}
	return nil
}

func (r *backendRepository) GetPagesForSigner(ctx context.Context, caller entity.Caller, req entity.SignerPagesRequest) (*entity.SignerPagesResponse, error) {
	var response entity.SignerPagesResponse
	if err := r.client.Post(ctx, requestContext(caller), pathGetPagesForSigner, req, &response); err != nil {
		return nil, fmt.Errorf("failed to get pages for signer: %w", err)
	}
	return &response, nil
}

func (r *backendRepository) SignDocument(ctx context.Context, caller entity.Caller, payload *entity.SigningPayload) error {
	return r.post(ctx, caller, "sign document", pathSignDocument, payload)
}

func (r *backendRepository) RejectGroup(ctx context.Context, caller entity.Caller, payload *entity.RejectPayload) error {
	return r.post(ctx, caller, "reject group", pathRejectGroup, payload)
}

func (r *backendRepository) SendMailForSign(ctx context.Context, caller entity.Caller, doc *entity.DocumentSubmission) error {
	return r.post(ctx, caller, "send document for signing", pathSendMailForSign, doc)
}

func (r *backendRepository) Upload(ctx context.Context, caller entity.Caller, doc *entity.DocumentSubmission) error {
	return r.post(ctx, caller, "save draft", pathUpload, doc)
}

func (r *backendRepository) GetAllPagesOfTemplate(ctx context.Context, caller entity.Caller, group string) (*entity.GroupPagesResponse, error) {
	var response entity.GroupPagesResponse
	if err := r.client.Post(ctx, requestContext(caller), pathGetAllPagesOfTemplate, entity.GroupRequest{DocumentGroup: group}, &response); err != nil {
		return nil, fmt.Errorf("failed to get template pages: %w", err)
	}
	return &response, nil
}

func (r *backendRepository) GetGroupInfo(ctx context.Context, caller entity.Caller, group string) (*entity.GroupInfo, error) {
	var response entity.GroupInfo
	if err := r.client.Post(ctx, requestContext(caller), pathGetGroupInfo, entity.GroupRequest{DocumentGroup: group}, &response); err != nil {
		return nil, fmt.Errorf("failed to get group info: %w", err)
	}
	return &response, nil
}

func (r *backendRepository) GetPagesForDocTakip(ctx context.Context, caller entity.Caller, group string) (*entity.GroupPagesResponse, error) {
	var response entity.GroupPagesResponse
	if err := r.client.Post(ctx, requestContext(caller), pathGetPagesForDocTakip, entity.GroupRequest{DocumentGroup: group}, &response); err != nil {
		return nil, fmt.Errorf("failed to get follow-up pages: %w", err)
	}
	return &response, nil
}

func (r *backendRepository) DeleteSignProcess(ctx context.Context, caller entity.Caller, group string) error {
	return r.post(ctx, caller, "delete sign process", pathDeleteSignProcess, entity.DeleteSignProcessRequest{DocumentGroup: group})
}

func (r *backendRepository) ConvertPDF(ctx context.Context, caller entity.Caller, req entity.ConvertRequest) (*entity.ConvertResponse, error) {
	var response entity.ConvertResponse
	if err := r.client.Post(ctx, requestContext(caller), pathConvertPDF, req, &response); err != nil {
		return nil, fmt.Errorf("failed to convert PDF: %w", err)
	}
	r.logger.Debug("PDF converted",
		zap.String("filename", req.Filename),
		zap.Int("pages", len(response.Pages)),
	)
	return &response, nil
}
