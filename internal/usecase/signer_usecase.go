package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"esign-canvas/internal/canvas"
	"esign-canvas/internal/config"
	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/domain/repository"
	"esign-canvas/internal/infrastructure/iplookup"
	"esign-canvas/internal/signing"
)

// OpenSignerRequest carries the identity established by the signer's OTP link.
type OpenSignerRequest struct {
	DocumentGroup string `json:"documentGroup"`
	SignerMail    string `json:"signerMail"`
	SignerName    string `json:"signerName"`
	SignerCode    int    `json:"signerCode"`
	DocumentID    string `json:"documentId"`
}

// SignerPage is a page reference; rasters are served by the render endpoint.
type SignerPage struct {
	Page       int    `json:"page"`
	DocumentID string `json:"documentId"`
	IsSigned   bool   `json:"isSigned,omitempty"`
}

// SignerView is the signer session as returned to the browser. Only the signer's own
// fields are listed.
type SignerView struct {
	*signing.State
	Pages                []SignerPage      `json:"pages"`
	Tabs                 []signing.Tab     `json:"tabs"`
	TextValues           map[string]string `json:"textValues"`
	Checkboxes           map[string]bool   `json:"checkboxes"`
	PageCount            int               `json:"pageCount"`
	GeolocationTimeoutMs int64             `json:"geolocationTimeoutMs"`
}

// ClickRequest is a click in canvas pixels on a canvas of Width×Height pixels.
type ClickRequest struct {
	Page   int          `json:"page"`
	Point  canvas.Point `json:"point"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
}

// SendResult tells the browser where to go after a successful submission.
type SendResult struct {
	Signatures      int    `json:"signatures"`
	Checkboxes      int    `json:"checkboxes"`
	Textboxes       int    `json:"textboxes"`
	RedirectURL     string `json:"redirectUrl,omitempty"`
	RedirectDelayMs int64  `json:"redirectDelayMs"`
}

type SignerUsecase interface {
	Open(ctx context.Context, token string, req OpenSignerRequest) (*SignerView, error)
	Get(ctx context.Context, id string) (*SignerView, error)
	Render(ctx context.Context, id string, page, width int) (*signing.RenderResult, error)
	Click(ctx context.Context, id string, req ClickRequest) (*signing.ClickResult, error)
	Activate(ctx context.Context, id, tabID string) (*SignerView, error)
	AddStrokes(ctx context.Context, id string, strokes [][]canvas.Point) (*SignerView, error)
	ClearPad(ctx context.Context, id string) (*SignerView, error)
	SaveSignature(ctx context.Context, id string, strokes [][]canvas.Point) (*SignerView, error)
	SetText(ctx context.Context, id, tabID, value string) (*SignerView, error)
	ToggleCheckbox(ctx context.Context, id, tabID string) (bool, error)
	Send(ctx context.Context, id, token string, device entity.DeviceInfo) (*SendResult, error)
	Reject(ctx context.Context, id, token, reason string, device entity.DeviceInfo) (*SendResult, error)
}

type signerUsecase struct {
	config   *config.Config
	backend  repository.BackendRepository
	sessions repository.SignerSessionRepository
	ip       iplookup.Resolver
	renderer *signing.Renderer
	guard    *signing.RenderGuard
	locks    *sessionLocks
	now      func() time.Time
	logger   *zap.Logger
}

func NewSignerUsecase(
	cfg *config.Config,
	backend repository.BackendRepository,
	sessions repository.SignerSessionRepository,
	ip iplookup.Resolver,
	logger *zap.Logger,
) SignerUsecase {
	return &signerUsecase{
		config:   cfg,
		backend:  backend,
		sessions: sessions,
		ip:       ip,
		renderer: signing.NewRenderer(cfg.Render.DefaultWidth, cfg.Render.MaxWidth),
		guard:    signing.NewRenderGuard(),
		locks:    newSessionLocks(),
		now:      time.Now,
		logger:   logger,
	}
}

func (u *signerUsecase) Open(ctx context.Context, token string, req OpenSignerRequest) (*SignerView, error) {
	if strings.TrimSpace(req.DocumentGroup) == "" {
		return nil, entity.NewValidationError(entity.CodeMissingGroup, "document group is required")
	}

	u.logger.Info("Opening signer session",
		zap.String("document_group", req.DocumentGroup),
		zap.String("signer_mail", req.SignerMail),
		zap.Bool("has_code", req.SignerCode != 0),
	)

	ident := signing.Identity{Code: req.SignerCode, Mail: req.SignerMail, Name: req.SignerName}
	caller := entity.Caller{Token: token, DocumentGroup: req.DocumentGroup, Actor: actor(ident)}

	resp, err := u.backend.GetPagesForSigner(ctx, caller, entity.SignerPagesRequest{
		DocumentGroup: req.DocumentGroup,
		SignerMail:    req.SignerMail,
		SignerCode:    req.SignerCode,
		DocumentID:    req.DocumentID,
	})
	if err != nil {
		u.logger.Error("Failed to load signer pages", zap.Error(err))
		return nil, err
	}
	if len(resp.Docs) == 0 {
		return nil, entity.NewValidationError(entity.CodeNoPages, "document has no pages")
	}

	s := signing.NewState(uuid.NewString(), req.DocumentGroup, req.DocumentID, ident, resp.Docs, resp.SignerTabs, u.now())
	if err := u.sessions.Save(ctx, s); err != nil {
		return nil, err
	}

	u.logger.Info("Signer session opened",
		zap.String("session_id", s.ID),
		zap.Int("pages", s.PageCount()),
		zap.Int("tabs", len(s.Tabs)),
		zap.Int("owned", len(s.Owned())),
	)
	return u.view(s), nil
}

func (u *signerUsecase) Get(ctx context.Context, id string) (*SignerView, error) {
	s, err := u.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.view(s), nil
}

// Render bakes a page. A newer render of the same session cancels an older one still running.
func (u *signerUsecase) Render(ctx context.Context, id string, page, width int) (*signing.RenderResult, error) {
	s, err := u.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rctx, done := u.guard.Begin(ctx, id)
	defer done()
	u.logger.Debug("Rendering signer page",
		zap.String("session_id", id),
		zap.Int("page", page),
		zap.Int("in_flight", u.guard.InFlight()),
	)

	return u.renderer.Render(rctx, signing.RenderInput{State: s, Page: page, Width: width})
}

func (u *signerUsecase) Click(ctx context.Context, id string, req ClickRequest) (*signing.ClickResult, error) {
	var res signing.ClickResult
	_, err := u.update(ctx, id, func(s *signing.State) error {
		res = s.Click(req.Page, req.Point, req.Width, req.Height, u.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (u *signerUsecase) Activate(ctx context.Context, id, tabID string) (*SignerView, error) {
	return u.update(ctx, id, func(s *signing.State) error {
		return s.Activate(tabID, u.now())
	})
}

func (u *signerUsecase) AddStrokes(ctx context.Context, id string, strokes [][]canvas.Point) (*SignerView, error) {
	return u.update(ctx, id, func(s *signing.State) error {
		s.AddInk(strokes, u.now())
		return nil
	})
}

func (u *signerUsecase) ClearPad(ctx context.Context, id string) (*SignerView, error) {
	return u.update(ctx, id, func(s *signing.State) error {
		s.ClearPad(u.now())
		return nil
	})
}

// SaveSignature appends strokes, if any, and saves the pad into the active field.
func (u *signerUsecase) SaveSignature(ctx context.Context, id string, strokes [][]canvas.Point) (*SignerView, error) {
	return u.update(ctx, id, func(s *signing.State) error {
		now := u.now()
		if len(strokes) > 0 {
			s.AddInk(strokes, now)
		}
		tabID := s.ActiveTab
		if _, err := s.SaveSignature(now); err != nil {
			return err
		}
		u.logger.Debug("Signature saved", zap.String("session_id", id), zap.String("tab_id", tabID))
		return nil
	})
}

func (u *signerUsecase) SetText(ctx context.Context, id, tabID, value string) (*SignerView, error) {
	return u.update(ctx, id, func(s *signing.State) error {
		return s.SetText(tabID, value, u.now())
	})
}

func (u *signerUsecase) ToggleCheckbox(ctx context.Context, id, tabID string) (bool, error) {
	var checked bool
	_, err := u.update(ctx, id, func(s *signing.State) error {
		var err error
		checked, err = s.ToggleCheckbox(tabID, u.now())
		return err
	})
	return checked, err
}

// Send validates the signer's fields and posts the signing payload. The session is
// discarded once the backend accepted it.
func (u *signerUsecase) Send(ctx context.Context, id, token string, device entity.DeviceInfo) (*SendResult, error) {
	unlock := u.locks.Lock(id)
	defer unlock()

	s, err := u.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := signing.Validate(s); err != nil {
		return nil, err
	}

	metadata := signing.Metadata(u.ip.PublicIP(ctx, device.ClientIP), device)
	payload, err := signing.BuildSubmission(s, metadata)
	if err != nil {
		return nil, err
	}

	u.logger.Info("Sending signatures",
		zap.String("session_id", id),
		zap.String("document_group", s.DocumentGroup),
		zap.Int("signatures", len(payload.Signatures)),
		zap.Int("checkboxes", len(payload.Checkboxes)),
		zap.Int("textboxes", len(payload.Textboxes)),
	)

	if err := u.backend.SignDocument(ctx, u.caller(s, token), payload); err != nil {
		u.logger.Error("Failed to sign document",
			zap.String("session_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	u.discard(ctx, id)

	result := u.redirect()
	result.Signatures = len(payload.Signatures)
	result.Checkboxes = len(payload.Checkboxes)
	result.Textboxes = len(payload.Textboxes)

	u.logger.Info("Document signed", zap.String("session_id", id), zap.String("document_group", s.DocumentGroup))
	return result, nil
}

// Reject posts a rejection with the same device metadata. Field completion is irrelevant.
func (u *signerUsecase) Reject(ctx context.Context, id, token, reason string, device entity.DeviceInfo) (*SendResult, error) {
	unlock := u.locks.Lock(id)
	defer unlock()

	s, err := u.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, entity.NewValidationError(entity.CodeMissingReason, "please enter a reason for rejecting")
	}

	metadata := signing.Metadata(u.ip.PublicIP(ctx, device.ClientIP), device)
	payload, err := signing.BuildRejection(s, reason, metadata)
	if err != nil {
		return nil, err
	}

	u.logger.Info("Rejecting document group",
		zap.String("session_id", id),
		zap.String("document_group", s.DocumentGroup),
	)

	if err := u.backend.RejectGroup(ctx, u.caller(s, token), payload); err != nil {
		u.logger.Error("Failed to reject document group",
			zap.String("session_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	u.discard(ctx, id)

	return u.redirect(), nil
}

func (u *signerUsecase) update(ctx context.Context, id string, fn func(s *signing.State) error) (*SignerView, error) {
	unlock := u.locks.Lock(id)
	defer unlock()

	s, err := u.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := u.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	return u.view(s), nil
}

func (u *signerUsecase) discard(ctx context.Context, id string) {
	if err := u.sessions.Delete(ctx, id); err != nil {
		u.logger.Warn("Failed to delete signer session", zap.String("session_id", id), zap.Error(err))
	}
}

func (u *signerUsecase) redirect() *SendResult {
	return &SendResult{
		RedirectURL:     u.config.Signer.RedirectURL,
		RedirectDelayMs: u.config.Signer.RedirectDelay.Milliseconds(),
	}
}

func (u *signerUsecase) caller(s *signing.State, token string) entity.Caller {
	return entity.Caller{Token: token, DocumentGroup: s.DocumentGroup, Actor: actor(s.Identity)}
}

func (u *signerUsecase) view(s *signing.State) *SignerView {
	pages := make([]SignerPage, len(s.Pages))
	for i, p := range s.Pages {
		pages[i] = SignerPage{Page: i + 1, DocumentID: p.ID, IsSigned: p.IsItSigned}
	}
	owned := s.Owned()
	if owned == nil {
		owned = []signing.Tab{}
	}
	texts := make(map[string]string)
	boxes := make(map[string]bool)
	for _, t := range owned {
		if v, ok := s.TextValues[t.TabID]; ok {
			texts[t.TabID] = v
		}
		if v, ok := s.Checkboxes[t.TabID]; ok {
			boxes[t.TabID] = v
		}
	}
	return &SignerView{
		State:                s,
		Pages:                pages,
		Tabs:                 owned,
		TextValues:           texts,
		Checkboxes:           boxes,
		PageCount:            s.PageCount(),
		GeolocationTimeoutMs: u.config.Signer.GeolocationTimeout.Milliseconds(),
	}
}

func actor(id signing.Identity) string {
	if entity.IsSet(id.Mail) {
		return id.Mail
	}
	return id.Name
}
