package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"esign-canvas/internal/config"
	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/domain/repository"
	"esign-canvas/internal/editor"
	"esign-canvas/internal/infrastructure/raster"
)

// CreateEditorRequest opens an editor session for a new upload, a template or an
// existing unsent document group.
type CreateEditorRequest struct {
	Document editor.DocumentMeta `json:"document"`
	Sources  []entity.PageSource `json:"sources,omitempty"`
}

// EditorView is the editor state returned to the browser. Page rasters and uploaded
// sources stay on the server; pages are fetched through the preview keys.
type EditorView struct {
	*editor.State
	Sources   []entity.PageSource `json:"sources,omitempty"`
	Pages     []entity.DocPage    `json:"pages,omitempty"`
	PageCount int                 `json:"pageCount"`
}

func newEditorView(s *editor.State) *EditorView {
	return &EditorView{State: s, PageCount: s.EffectivePageCount()}
}

type HydrateOutput struct {
	Result editor.HydrateResult `json:"result"`
	State  *EditorView          `json:"state"`
}

// SubmitResult describes an accepted submission.
type SubmitResult struct {
	Mode          string `json:"mode"`
	DocumentName  string `json:"documentName"`
	Pages         int    `json:"pages"`
	Fields        int    `json:"fields"`
	ReplacedGroup string `json:"replacedGroup,omitempty"`
}

type EditorUsecase interface {
	Create(ctx context.Context, sess entity.Session, req CreateEditorRequest) (*EditorView, error)
	Get(ctx context.Context, sess entity.Session, id string) (*EditorView, error)
	Delete(ctx context.Context, sess entity.Session, id string) error
	Reset(ctx context.Context, sess entity.Session, id string) (*EditorView, error)
	AddRecipient(ctx context.Context, sess entity.Session, id string, r entity.Recipient) (*EditorView, error)
	RemoveRecipient(ctx context.Context, sess entity.Session, id, key string) (*EditorView, error)
	SelectRecipient(ctx context.Context, sess entity.Session, id, key string) (*EditorView, error)
	SetPage(ctx context.Context, sess entity.Session, id string, page int) (*EditorView, error)
	DropField(ctx context.Context, sess entity.Session, id string, req editor.DropRequest) (*entity.PlacedItem, error)
	Pointer(ctx context.Context, sess entity.Session, id, fieldID string, ev editor.PointerEvent) (*editor.PointerResult, error)
	RemoveField(ctx context.Context, sess entity.Session, id string, page int, fieldID string) error
	EditText(ctx context.Context, sess entity.Session, id, fieldID, value, action string) (*EditorView, error)
	Hydrate(ctx context.Context, sess entity.Session, id string) (*HydrateOutput, error)
	Payload(ctx context.Context, sess entity.Session, id string) (*entity.DocumentSubmission, error)
	Submit(ctx context.Context, sess entity.Session, id, mode string) (*SubmitResult, error)
	Preview(ctx context.Context, key string) ([]byte, error)
}

type editorUsecase struct {
	config     *config.Config
	backend    repository.BackendRepository
	sessions   repository.EditorSessionRepository
	previews   repository.PreviewRepository
	rasterizer *raster.Rasterizer
	editor     *editor.Editor
	locks      *sessionLocks
	now        func() time.Time
	logger     *zap.Logger
}

func NewEditorUsecase(
	cfg *config.Config,
	backend repository.BackendRepository,
	sessions repository.EditorSessionRepository,
	previews repository.PreviewRepository,
	rasterizer *raster.Rasterizer,
	logger *zap.Logger,
) EditorUsecase {
	return &editorUsecase{
		config:     cfg,
		backend:    backend,
		sessions:   sessions,
		previews:   previews,
		rasterizer: rasterizer,
		editor: editor.New(editor.Options{
			DragThreshold: cfg.Editor.DragThresholdPx,
			SettleWindow:  cfg.Editor.SettleWindow,
		}),
		locks:  newSessionLocks(),
		now:    time.Now,
		logger: logger,
	}
}

func (u *editorUsecase) Create(ctx context.Context, sess entity.Session, req CreateEditorRequest) (*EditorView, error) {
	u.logger.Info("Creating editor session",
		zap.String("user_id", sess.UserID),
		zap.String("template_group", req.Document.TemplateGroup),
		zap.String("follow_up_group", req.Document.FollowUpGroup),
		zap.Int("sources", len(req.Sources)),
	)

	s := editor.NewState(uuid.NewString(), sess.UserID, req.Document, u.now())

	if len(req.Sources) > 0 {
		count, err := u.rasterizer.PageCount(req.Sources)
		if err != nil {
			return nil, entity.NewValidationError(entity.CodeNoPages, err.Error())
		}
		rasters, err := u.rasterizer.Rasterize(ctx, sess.Caller(""), req.Sources, nil)
		if err != nil {
			u.logger.Error("Failed to rasterize upload", zap.Error(err))
			return nil, err
		}
		s.Sources = req.Sources
		s.PageCount = count
		if err := u.storePreviews(ctx, s, rasters); err != nil {
			return nil, err
		}
	}

	if err := u.sessions.Save(ctx, s); err != nil {
		return nil, err
	}

	u.logger.Info("Editor session created",
		zap.String("session_id", s.ID),
		zap.Int("pages", s.EffectivePageCount()),
	)
	return newEditorView(s), nil
}

func (u *editorUsecase) Get(ctx context.Context, sess entity.Session, id string) (*EditorView, error) {
	s, err := u.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return newEditorView(s), nil
}

func (u *editorUsecase) Delete(ctx context.Context, sess entity.Session, id string) error {
	unlock := u.locks.Lock(id)
	defer unlock()

	s, err := u.load(ctx, sess, id)
	if err != nil {
		return err
	}
	u.revoke(ctx, s.ID, s.Previews)
	if err := u.sessions.Delete(ctx, id); err != nil {
		return err
	}

	u.logger.Info("Editor session deleted", zap.String("session_id", id))
	return nil
}

func (u *editorUsecase) Reset(ctx context.Context, sess entity.Session, id string) (*EditorView, error) {
	return u.update(ctx, sess, id, func(s *editor.State) error {
		// the document itself survives a reset, so its previews are issued again
		var rasters []editor.PageRaster
		if len(s.Sources) > 0 || len(s.Pages) > 0 {
			var err error
			rasters, err = u.rasterizer.Rasterize(ctx, sess.Caller(s.Document.FollowUpGroup), s.Sources, s.Pages)
			if err != nil {
				return err
			}
		}
		stale := u.editor.Reset(s)
		if err := u.storePreviews(ctx, s, rasters); err != nil {
			return err
		}
		u.revoke(ctx, s.ID, stale)
		return nil
	})
}

func (u *editorUsecase) AddRecipient(ctx context.Context, sess entity.Session, id string, r entity.Recipient) (*EditorView, error) {
	return u.update(ctx, sess, id, func(s *editor.State) error {
		_, err := u.editor.AddRecipient(s, r)
		return err
	})
}

func (u *editorUsecase) RemoveRecipient(ctx context.Context, sess entity.Session, id, key string) (*EditorView, error) {
	return u.update(ctx, sess, id, func(s *editor.State) error {
		return u.editor.RemoveRecipient(s, key)
	})
}

func (u *editorUsecase) SelectRecipient(ctx context.Context, sess entity.Session, id, key string) (*EditorView, error) {
	return u.update(ctx, sess, id, func(s *editor.State) error {
		return u.editor.SelectRecipient(s, key)
	})
}

func (u *editorUsecase) SetPage(ctx context.Context, sess entity.Session, id string, page int) (*EditorView, error) {
	return u.update(ctx, sess, id, func(s *editor.State) error {
		return u.editor.SetPage(s, page)
	})
}

func (u *editorUsecase) DropField(ctx context.Context, sess entity.Session, id string, req editor.DropRequest) (*entity.PlacedItem, error) {
	var item entity.PlacedItem
	_, err := u.update(ctx, sess, id, func(s *editor.State) error {
		var err error
		item, err = u.editor.DropField(s, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	u.logger.Debug("Field dropped",
		zap.String("session_id", id),
		zap.String("field_id", item.ID),
		zap.String("type", string(item.TabType)),
		zap.Int("page", item.Page),
	)
	return &item, nil
}

func (u *editorUsecase) Pointer(ctx context.Context, sess entity.Session, id, fieldID string, ev editor.PointerEvent) (*editor.PointerResult, error) {
	var res editor.PointerResult
	_, err := u.update(ctx, sess, id, func(s *editor.State) error {
		var err error
		res, err = u.editor.Pointer(s, fieldID, ev)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (u *editorUsecase) RemoveField(ctx context.Context, sess entity.Session, id string, page int, fieldID string) error {
	_, err := u.update(ctx, sess, id, func(s *editor.State) error {
		return u.editor.RemoveField(s, page, fieldID)
	})
	return err
}

func (u *editorUsecase) EditText(ctx context.Context, sess entity.Session, id, fieldID, value, action string) (*EditorView, error) {
	return u.update(ctx, sess, id, func(s *editor.State) error {
		return u.editor.EditTextValue(s, fieldID, value, action)
	})
}

// Hydrate rebuilds placements from the template or follow-up group the session was opened for.
func (u *editorUsecase) Hydrate(ctx context.Context, sess entity.Session, id string) (*HydrateOutput, error) {
	var res editor.HydrateResult
	view, err := u.update(ctx, sess, id, func(s *editor.State) error {
		if s.Hydrated {
			res = editor.HydrateResult{AlreadyHydrated: true}
			return nil
		}

		pages, tabs, recipients, err := u.hydrationSource(ctx, sess, s)
		if err != nil {
			return err
		}

		saved := make([]entity.SavedTab, len(tabs))
		for i, t := range tabs {
			saved[i] = t.SavedTab
		}
		res = u.editor.HydrateFromSaved(s, saved, recipients, pages)
		if res.RecipientsRejected > 0 {
			u.logger.Warn("Group recipients not added to editor session",
				zap.String("session_id", s.ID),
				zap.Int("rejected", res.RecipientsRejected),
			)
		}

		if len(s.Pages) == 0 {
			return nil
		}
		rasters, err := u.rasterizer.Rasterize(ctx, sess.Caller(s.Document.FollowUpGroup), nil, s.Pages)
		if err != nil {
			return err
		}
		return u.storePreviews(ctx, s, rasters)
	})
	if err != nil {
		u.logger.Error("Failed to hydrate editor session",
			zap.String("session_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	u.logger.Info("Editor session hydrated",
		zap.String("session_id", id),
		zap.Int("added", res.Added),
		zap.Int("skipped", res.Skipped),
		zap.Int("recipients_created", res.RecipientsCreated),
		zap.Int("recipients_rejected", res.RecipientsRejected),
		zap.Bool("already_hydrated", res.AlreadyHydrated),
	)
	return &HydrateOutput{Result: res, State: view}, nil
}

func (u *editorUsecase) hydrationSource(ctx context.Context, sess entity.Session, s *editor.State) ([]entity.DocPage, []entity.SignerTab, []entity.Recipient, error) {
	switch {
	case s.Document.FollowUpGroup != "":
		group := s.Document.FollowUpGroup
		caller := sess.Caller(group)

		info, err := u.backend.GetGroupInfo(ctx, caller, group)
		if err != nil {
			return nil, nil, nil, err
		}
		if info.IsSent {
			return nil, nil, nil, entity.NewValidationError(entity.CodeInvalidMode, "document group was already sent and can no longer be edited")
		}
		resp, err := u.backend.GetPagesForDocTakip(ctx, caller, group)
		if err != nil {
			return nil, nil, nil, err
		}

		if s.Document.Name == "" {
			s.Document.Name = info.DocumentName
		}
		if s.Document.Description == "" {
			s.Document.Description = info.DocumentDesc
		}
		if s.Document.Visibility == "" {
			s.Document.Visibility = info.VisibilitySetting
		}
		return resp.Docs, resp.Tabs, info.Recipients, nil

	case s.Document.TemplateGroup != "":
		resp, err := u.backend.GetAllPagesOfTemplate(ctx, sess.Caller(s.Document.TemplateGroup), s.Document.TemplateGroup)
		if err != nil {
			return nil, nil, nil, err
		}
		return resp.Docs, resp.Tabs, nil, nil
	}
	return nil, nil, nil, entity.NewValidationError(entity.CodeNoSource, "session was not opened from a template or an existing document")
}

// Payload builds the submission without sending it.
func (u *editorUsecase) Payload(ctx context.Context, sess entity.Session, id string) (*entity.DocumentSubmission, error) {
	s, err := u.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return u.buildPayload(ctx, sess, s)
}

func (u *editorUsecase) buildPayload(ctx context.Context, sess entity.Session, s *editor.State) (*entity.DocumentSubmission, error) {
	rasters, err := u.rasterizer.Rasterize(ctx, sess.Caller(s.Document.FollowUpGroup), s.Sources, s.Pages)
	if err != nil {
		return nil, err
	}
	return editor.AssemblePayload(s, sess, rasters)
}

// Submit validates and sends the document. The session is left untouched so a failed
// submission can be retried.
func (u *editorUsecase) Submit(ctx context.Context, sess entity.Session, id, mode string) (*SubmitResult, error) {
	if mode != editor.ModeSendForSign && mode != editor.ModeSaveDraft {
		return nil, entity.NewValidationError(entity.CodeInvalidMode, fmt.Sprintf("unknown submission mode %q", mode))
	}

	unlock := u.locks.Lock(id)
	defer unlock()

	s, err := u.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := editor.Validate(s); err != nil {
		return nil, err
	}

	u.logger.Info("Submitting document",
		zap.String("session_id", id),
		zap.String("mode", mode),
		zap.String("document_name", s.Document.Name),
		zap.Int("recipients", len(s.Recipients)),
		zap.Int("fields", s.FieldCount()),
	)

	doc, err := u.buildPayload(ctx, sess, s)
	if err != nil {
		u.logger.Error("Failed to build payload", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	result := &SubmitResult{
		Mode:         mode,
		DocumentName: doc.DocumentName,
		Pages:        len(doc.Pages),
		Fields:       s.FieldCount(),
	}

	if group := s.Document.FollowUpGroup; group != "" {
		if err := u.backend.DeleteSignProcess(ctx, sess.Caller(group), group); err != nil {
			u.logger.Warn("Failed to delete previous sign process, continuing",
				zap.String("document_group", group),
				zap.Error(err),
			)
		}
		result.ReplacedGroup = group
	}

	caller := sess.Caller(s.Document.FollowUpGroup)
	if mode == editor.ModeSendForSign {
		err = u.backend.SendMailForSign(ctx, caller, doc)
	} else {
		err = u.backend.Upload(ctx, caller, doc)
	}
	if err != nil {
		u.logger.Error("Failed to submit document",
			zap.String("session_id", id),
			zap.String("mode", mode),
			zap.Error(err),
		)
		return nil, err
	}

	u.logger.Info("Document submitted",
		zap.String("session_id", id),
		zap.String("mode", mode),
		zap.Int("pages", result.Pages),
	)
	return result, nil
}

func (u *editorUsecase) Preview(ctx context.Context, key string) ([]byte, error) {
	return u.previews.Get(ctx, key)
}

// load fetches a session owned by the caller. Sessions of other users look missing.
func (u *editorUsecase) load(ctx context.Context, sess entity.Session, id string) (*editor.State, error) {
	s, err := u.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Owner != sess.UserID {
		u.logger.Warn("Editor session requested by another user",
			zap.String("session_id", id),
			zap.String("user_id", sess.UserID),
		)
		return nil, entity.ErrSessionNotFound
	}
	return s, nil
}

func (u *editorUsecase) update(ctx context.Context, sess entity.Session, id string, fn func(s *editor.State) error) (*EditorView, error) {
	unlock := u.locks.Lock(id)
	defer unlock()

	s, err := u.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := u.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	return newEditorView(s), nil
}

// storePreviews replaces the session's previews with rasters. The previous keys are
// revoked on success; on failure the keys stored so far are revoked and s is untouched.
func (u *editorUsecase) storePreviews(ctx context.Context, s *editor.State, rasters []editor.PageRaster) error {
	keys := make([]string, 0, len(rasters))
	for _, r := range rasters {
		data, err := base64.StdEncoding.DecodeString(r.PNGBase64)
		if err != nil {
			u.revoke(ctx, s.ID, keys)
			return fmt.Errorf("failed to decode page %s: %w", r.Filename, err)
		}
		key, err := u.previews.Put(ctx, data)
		if err != nil {
			u.revoke(ctx, s.ID, keys)
			return err
		}
		keys = append(keys, key)
	}
	u.revoke(ctx, s.ID, s.Previews)
	s.Previews = keys
	return nil
}

func (u *editorUsecase) revoke(ctx context.Context, sessionID string, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := u.previews.Revoke(ctx, keys...); err != nil && !errors.Is(err, context.Canceled) {
		u.logger.Warn("Failed to revoke previews",
			zap.String("session_id", sessionID),
			zap.Int("count", len(keys)),
			zap.Error(err),
		)
	}
}
