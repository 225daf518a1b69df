package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"esign-canvas/internal/canvas"
	"esign-canvas/internal/config"
	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/editor"
	"esign-canvas/internal/infrastructure/raster"
	"esign-canvas/internal/signing"
)

// fakeBackend records every call and answers from canned responses.
type fakeBackend struct {
	mu sync.Mutex

	calls       []string
	signerPages *entity.SignerPagesResponse
	groupInfo   *entity.GroupInfo
	groupPages  *entity.GroupPagesResponse
	sent        *entity.DocumentSubmission
	signed      *entity.SigningPayload
	rejected    *entity.RejectPayload
	failSubmit  error
	failDelete  error
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeBackend) GetPagesForSigner(_ context.Context, _ entity.Caller, _ entity.SignerPagesRequest) (*entity.SignerPagesResponse, error) {
	f.record("getPagesForSigner")
	return f.signerPages, nil
}

func (f *fakeBackend) SignDocument(_ context.Context, _ entity.Caller, p *entity.SigningPayload) error {
	f.record("signDocument")
	f.signed = p
	return f.failSubmit
}

func (f *fakeBackend) RejectGroup(_ context.Context, _ entity.Caller, p *entity.RejectPayload) error {
	f.record("rejectGroup")
	f.rejected = p
	return f.failSubmit
}

func (f *fakeBackend) SendMailForSign(_ context.Context, _ entity.Caller, d *entity.DocumentSubmission) error {
	f.record("sendMailForSign")
	f.sent = d
	return f.failSubmit
}

func (f *fakeBackend) Upload(_ context.Context, _ entity.Caller, d *entity.DocumentSubmission) error {
	f.record("upload")
	f.sent = d
	return f.failSubmit
}

func (f *fakeBackend) GetAllPagesOfTemplate(_ context.Context, _ entity.Caller, _ string) (*entity.GroupPagesResponse, error) {
	f.record("getAllPagesOfTemplate")
	return f.groupPages, nil
}

func (f *fakeBackend) GetGroupInfo(_ context.Context, _ entity.Caller, _ string) (*entity.GroupInfo, error) {
	f.record("getGroupInfo")
	return f.groupInfo, nil
}

func (f *fakeBackend) GetPagesForDocTakip(_ context.Context, _ entity.Caller, _ string) (*entity.GroupPagesResponse, error) {
	f.record("getPagesForDocTakip")
	return f.groupPages, nil
}

func (f *fakeBackend) DeleteSignProcess(_ context.Context, _ entity.Caller, _ string) error {
	f.record("deleteSignProcess")
	return f.failDelete
}

func (f *fakeBackend) ConvertPDF(_ context.Context, _ entity.Caller, _ entity.ConvertRequest) (*entity.ConvertResponse, error) {
	f.record("convertPdf")
	return nil, errors.New("not expected")
}

// memStore keeps sessions JSON encoded so every request works on a fresh copy.
type memStore[T any] struct {
	mu   sync.Mutex
	data map[string][]byte
	id   func(*T) string
}

func newMemStore[T any](id func(*T) string) *memStore[T] {
	return &memStore[T]{data: map[string][]byte{}, id: id}
}

func (m *memStore[T]) Save(_ context.Context, s *T) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.id(s)] = b
	return nil
}

func (m *memStore[T]) Get(_ context.Context, id string) (*T, error) {
	m.mu.Lock()
	b, ok := m.data[id]
	m.mu.Unlock()
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	var s T
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *memStore[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type memPreviews struct {
	mu     sync.Mutex
	n      int
	failAt int
	data   map[string][]byte
}

func (p *memPreviews) Put(_ context.Context, data []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	if p.failAt > 0 && p.n >= p.failAt {
		return "", errors.New("preview store unavailable")
	}
	key := "pv-" + string(rune('0'+p.n))
	p.data[key] = data
	return key, nil
}

func (p *memPreviews) Get(_ context.Context, key string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.data[key]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return data, nil
}

func (p *memPreviews) Revoke(_ context.Context, keys ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range keys {
		delete(p.data, k)
	}
	return nil
}

type fixedIP string

func (f fixedIP) PublicIP(context.Context, string) string { return string(f) }

func testConfig() *config.Config {
	return &config.Config{
		Editor: config.EditorConfig{DragThresholdPx: 3, SettleWindow: 250 * time.Millisecond},
		Signer: config.SignerConfig{RedirectURL: "/done", RedirectDelay: 2 * time.Second, GeolocationTimeout: 5 * time.Second},
		Render: config.RenderConfig{Scale: 2, DefaultWidth: 1190, MaxWidth: 2400},
	}
}

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

type editorFixture struct {
	uc       *editorUsecase
	backend  *fakeBackend
	sessions *memStore[editor.State]
	previews *memPreviews
}

func newEditorFixture() *editorFixture {
	cfg := testConfig()
	backend := &fakeBackend{}
	sessions := newMemStore(func(s *editor.State) string { return s.ID })
	previews := &memPreviews{data: map[string][]byte{}}
	uc := NewEditorUsecase(cfg, backend, sessions, previews, raster.NewRasterizer(cfg, backend, zap.NewNop()), zap.NewNop()).(*editorUsecase)
	fixed := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	uc.editor.WithClock(func() time.Time { return fixed })
	uc.now = func() time.Time { return fixed }
	return &editorFixture{uc: uc, backend: backend, sessions: sessions, previews: previews}
}

var author = entity.Session{UserID: "user-1", CompanyID: "comp-1", Token: "tok"}

var fullCanvas = canvas.Rect{Width: 1000, Height: 1000}

func TestEditorUploadPlaceAndSend(t *testing.T) {
	f := newEditorFixture()
	ctx := context.Background()

	view, err := f.uc.Create(ctx, author, CreateEditorRequest{
		Document: editor.DocumentMeta{Name: "Lease", Visibility: "private"},
		Sources: []entity.PageSource{
			{Filename: "p1.png", MediaType: "image/png", Data: pngBase64(t, 20, 30)},
			{Filename: "p2.png", MediaType: "image/png", Data: pngBase64(t, 20, 30)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, view.PageCount)
	require.Len(t, view.Previews, 2)
	id := view.ID

	preview, err := f.uc.Preview(ctx, view.Previews[0])
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(preview))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)

	_, err = f.uc.AddRecipient(ctx, author, id, entity.Recipient{Signer: "alice@example.com", SignerName: "Alice", PhoneNumber: "0532 111 22 33"})
	require.NoError(t, err)
	item, err := f.uc.DropField(ctx, author, id, editor.DropRequest{FieldType: entity.FieldSignature, Client: canvas.Point{X: 100, Y: 250}, Canvas: fullCanvas, Page: 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, item.X, 1e-9)
	assert.InDelta(t, 0.25, item.Y, 1e-9)

	res, err := f.uc.Submit(ctx, author, id, editor.ModeSendForSign)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 1, res.Fields)
	assert.Empty(t, res.ReplacedGroup)

	require.NotNil(t, f.backend.sent)
	assert.Equal(t, "Lease", f.backend.sent.DocumentName)
	assert.Equal(t, "user-1", f.backend.sent.Writer)
	assert.Equal(t, "comp-1", f.backend.sent.DocumentRelatedComp)
	require.Len(t, f.backend.sent.Pages, 2)
	assert.Empty(t, f.backend.sent.Pages[0].Signs)
	require.Len(t, f.backend.sent.Pages[1].Signs, 1)
	assert.Equal(t, "p2-1.png", f.backend.sent.Pages[1].Filename)
	assert.Equal(t, []string{"sendMailForSign"}, f.backend.calls)
}

func TestEditorSubmitFailuresKeepState(t *testing.T) {
	f := newEditorFixture()
	ctx := context.Background()

	view, err := f.uc.Create(ctx, author, CreateEditorRequest{
		Document: editor.DocumentMeta{Name: "Offer"},
		Sources:  []entity.PageSource{{Filename: "p1.png", Data: pngBase64(t, 10, 10)}},
	})
	require.NoError(t, err)
	id := view.ID

	_, err = f.uc.Submit(ctx, author, id, "publish")
	requireCode(t, err, entity.CodeInvalidMode)

	_, err = f.uc.Submit(ctx, author, id, editor.ModeSaveDraft)
	requireCode(t, err, entity.CodeMissingRecipient)

	_, err = f.uc.AddRecipient(ctx, author, id, entity.Recipient{Signer: "bob@example.com", SignerName: "Bob"})
	require.NoError(t, err)
	_, err = f.uc.Submit(ctx, author, id, editor.ModeSaveDraft)
	requireCode(t, err, entity.CodeNoFields)

	_, err = f.uc.DropField(ctx, author, id, editor.DropRequest{FieldType: entity.FieldText, Client: canvas.Point{X: 500, Y: 500}, Canvas: fullCanvas})
	require.NoError(t, err)

	f.backend.failSubmit = entity.ErrBackend
	_, err = f.uc.Submit(ctx, author, id, editor.ModeSaveDraft)
	assert.ErrorIs(t, err, entity.ErrBackend)

	got, err := f.uc.Get(ctx, author, id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.FieldCount())
	assert.Len(t, got.Recipients, 1)

	_, err = f.uc.Get(ctx, entity.Session{UserID: "intruder"}, id)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestEditorFollowUpHydrateAndResubmit(t *testing.T) {
	f := newEditorFixture()
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	f.backend.groupInfo = &entity.GroupInfo{
		DocumentGroup: "g-7",
		DocumentName:  "Contract",
		Recipients:    []entity.Recipient{{Signer: "carol@example.com", SignerName: "Carol"}},
	}
	f.backend.groupPages = &entity.GroupPagesResponse{
		Docs: []entity.DocPage{
			{ID: "doc-b", DocumentS3Path: pngBase64(t, 8, 8), CreatedAt: t0.Add(time.Hour)},
			{ID: "doc-a", DocumentS3Path: pngBase64(t, 8, 8), IsFirstPage: true, CreatedAt: t0.Add(2 * time.Hour)},
		},
		Tabs: []entity.SignerTab{
			{SavedTab: entity.SavedTab{TabID: "t1", SignerMail: "carol@example.com", DocumentID: "doc-b", TabType: entity.FieldSignature, XPos: 0.2, YPos: 0.3}},
			{SavedTab: entity.SavedTab{TabID: "t2", SignerMail: "carol@example.com", DocumentID: "doc-a", TabType: entity.FieldDate, XPos: 0.5, YPos: 0.5, Contents: "05.04.2024"}},
		},
	}
	f.backend.failDelete = errors.New("gone")

	view, err := f.uc.Create(ctx, author, CreateEditorRequest{Document: editor.DocumentMeta{FollowUpGroup: "g-7"}})
	require.NoError(t, err)
	id := view.ID

	out, err := f.uc.Hydrate(ctx, author, id)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Result.Added)
	assert.Equal(t, "Contract", out.State.Document.Name)
	assert.Equal(t, 2, out.State.PageCount)
	assert.Len(t, out.State.Previews, 2)
	assert.Nil(t, out.State.Pages)
	require.Len(t, out.State.ItemsOnPage(2), 1)
	assert.Equal(t, "t1", out.State.ItemsOnPage(2)[0].ID)
	assert.Equal(t, "2024-04-05", out.State.TextValues["t2"])

	again, err := f.uc.Hydrate(ctx, author, id)
	require.NoError(t, err)
	assert.True(t, again.Result.AlreadyHydrated)
	assert.Equal(t, 2, again.State.FieldCount())

	res, err := f.uc.Submit(ctx, author, id, editor.ModeSaveDraft)
	require.NoError(t, err)
	assert.Equal(t, "g-7", res.ReplacedGroup)

	calls := f.backend.calls
	require.GreaterOrEqual(t, len(calls), 2)
	assert.Equal(t, []string{"deleteSignProcess", "upload"}, calls[len(calls)-2:])
	require.Len(t, f.backend.sent.Pages, 2)
	assert.Equal(t, "2024-04-05", f.backend.sent.Pages[0].Signs[0].Content)
}

func TestEditorHydrateNeedsSource(t *testing.T) {
	f := newEditorFixture()
	ctx := context.Background()

	view, err := f.uc.Create(ctx, author, CreateEditorRequest{Document: editor.DocumentMeta{Name: "Blank"}})
	require.NoError(t, err)
	_, err = f.uc.Hydrate(ctx, author, view.ID)
	requireCode(t, err, entity.CodeNoSource)

	f.backend.groupInfo = &entity.GroupInfo{IsSent: true}
	view, err = f.uc.Create(ctx, author, CreateEditorRequest{Document: editor.DocumentMeta{FollowUpGroup: "g-sent"}})
	require.NoError(t, err)
	_, err = f.uc.Hydrate(ctx, author, view.ID)
	requireCode(t, err, entity.CodeInvalidMode)
}

func TestEditorResetAndDeleteRevokePreviews(t *testing.T) {
	f := newEditorFixture()
	ctx := context.Background()

	view, err := f.uc.Create(ctx, author, CreateEditorRequest{
		Document: editor.DocumentMeta{Name: "Memo"},
		Sources:  []entity.PageSource{{Filename: "p1.png", Data: pngBase64(t, 10, 10)}},
	})
	require.NoError(t, err)
	first := view.Previews[0]

	_, err = f.uc.AddRecipient(ctx, author, view.ID, entity.Recipient{Signer: "dan@example.com", SignerName: "Dan"})
	require.NoError(t, err)
	_, err = f.uc.DropField(ctx, author, view.ID, editor.DropRequest{FieldType: entity.FieldCheckbox, Client: canvas.Point{X: 1, Y: 1}, Canvas: fullCanvas})
	require.NoError(t, err)

	reset, err := f.uc.Reset(ctx, author, view.ID)
	require.NoError(t, err)
	assert.Zero(t, reset.FieldCount())
	require.Len(t, reset.Previews, 1)
	assert.NotEqual(t, first, reset.Previews[0])
	_, err = f.uc.Preview(ctx, first)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)

	require.NoError(t, f.uc.Delete(ctx, author, view.ID))
	_, err = f.uc.Preview(ctx, reset.Previews[0])
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
	_, err = f.uc.Get(ctx, author, view.ID)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestEditorHydrateReplacesUploadPreviews(t *testing.T) {
	f := newEditorFixture()
	ctx := context.Background()

	f.backend.groupInfo = &entity.GroupInfo{DocumentGroup: "g-9", DocumentName: "Offer"}
	f.backend.groupPages = &entity.GroupPagesResponse{
		Docs: []entity.DocPage{
			{ID: "doc-a", DocumentS3Path: pngBase64(t, 8, 8), IsFirstPage: true},
			{ID: "doc-b", DocumentS3Path: pngBase64(t, 8, 8)},
		},
	}

	view, err := f.uc.Create(ctx, author, CreateEditorRequest{
		Document: editor.DocumentMeta{FollowUpGroup: "g-9"},
		Sources:  []entity.PageSource{{Filename: "p1.png", Data: pngBase64(t, 10, 10)}},
	})
	require.NoError(t, err)
	require.Len(t, view.Previews, 1)
	upload := view.Previews[0]

	out, err := f.uc.Hydrate(ctx, author, view.ID)
	require.NoError(t, err)
	require.Len(t, out.State.Previews, 2)
	assert.NotContains(t, out.State.Previews, upload)
	_, err = f.uc.Preview(ctx, upload)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
	assert.Len(t, f.previews.data, 2)
}

func TestEditorResetKeepsPreviewsWhenStoreFails(t *testing.T) {
	f := newEditorFixture()
	ctx := context.Background()

	view, err := f.uc.Create(ctx, author, CreateEditorRequest{
		Document: editor.DocumentMeta{Name: "Memo"},
		Sources: []entity.PageSource{
			{Filename: "p1.png", Data: pngBase64(t, 10, 10)},
			{Filename: "p2.png", Data: pngBase64(t, 10, 10)},
		},
	})
	require.NoError(t, err)
	require.Len(t, view.Previews, 2)

	f.previews.failAt = 4
	_, err = f.uc.Reset(ctx, author, view.ID)
	require.Error(t, err)

	got, err := f.uc.Get(ctx, author, view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Previews, got.Previews)
	for _, key := range got.Previews {
		_, err := f.uc.Preview(ctx, key)
		assert.NoError(t, err)
	}
	assert.Len(t, f.previews.data, 2, "the partially stored preview is revoked")
}

func TestEditorPointerDragsField(t *testing.T) {
	f := newEditorFixture()
	ctx := context.Background()

	view, err := f.uc.Create(ctx, author, CreateEditorRequest{Document: editor.DocumentMeta{Name: "Drag"}})
	require.NoError(t, err)
	_, err = f.uc.AddRecipient(ctx, author, view.ID, entity.Recipient{Signer: "erin@example.com", SignerName: "Erin"})
	require.NoError(t, err)
	item, err := f.uc.DropField(ctx, author, view.ID, editor.DropRequest{FieldType: entity.FieldName, Client: canvas.Point{X: 100, Y: 100}, Canvas: fullCanvas})
	require.NoError(t, err)

	field := canvas.Rect{X: 100, Y: 100, Width: 160, Height: 22}
	_, err = f.uc.Pointer(ctx, author, view.ID, item.ID, editor.PointerEvent{Phase: editor.PointerDown, Client: canvas.Point{X: 110, Y: 105}, Canvas: fullCanvas, Field: field})
	require.NoError(t, err)
	res, err := f.uc.Pointer(ctx, author, view.ID, item.ID, editor.PointerEvent{Phase: editor.PointerMove, Client: canvas.Point{X: 410, Y: 505}, Canvas: fullCanvas})
	require.NoError(t, err)
	assert.True(t, res.Moved)

	got, err := f.uc.Get(ctx, author, view.ID)
	require.NoError(t, err)
	moved := got.ItemsOnPage(1)[0]
	assert.InDelta(t, 0.4, moved.X, 1e-9)
	assert.InDelta(t, 0.5, moved.Y, 1e-9)

	require.NoError(t, f.uc.RemoveField(ctx, author, view.ID, 1, item.ID))
	got, err = f.uc.Get(ctx, author, view.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FieldCount())
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	ve, ok := entity.AsValidation(err)
	require.True(t, ok, "expected validation error %s, got %v", code, err)
	assert.Equal(t, code, ve.Code)
}

type signerFixture struct {
	uc       *signerUsecase
	backend  *fakeBackend
	sessions *memStore[signing.State]
}

func newSignerFixture(t *testing.T) *signerFixture {
	code := 483921
	backend := &fakeBackend{signerPages: &entity.SignerPagesResponse{
		Docs: []entity.DocPage{{ID: "page-1", IsFirstPage: true, DocumentS3Path: pngBase64(t, 595, 842)}},
		SignerTabs: []entity.SignerTab{
			{SavedTab: entity.SavedTab{TabID: "sig", SignerID: "s1", SignerMail: "frank@example.com", DocumentID: "page-1", TabType: entity.FieldSignature, XPos: 0.1, YPos: 0.1}, SignerGeneratedAuthCode: &code},
			{SavedTab: entity.SavedTab{TabID: "txt", SignerID: "s1", SignerMail: "frank@example.com", DocumentID: "page-1", TabType: entity.FieldText, ContentType: "text", XPos: 0.5, YPos: 0.5}},
			{SavedTab: entity.SavedTab{TabID: "box", SignerID: "s1", SignerMail: "frank@example.com", DocumentID: "page-1", TabType: entity.FieldCheckbox, XPos: 0.7, YPos: 0.7}},
			{SavedTab: entity.SavedTab{TabID: "other", SignerID: "s2", SignerMail: "gina@example.com", DocumentID: "page-1", TabType: entity.FieldSignature, XPos: 0.3, YPos: 0.8}},
			{SavedTab: entity.SavedTab{TabID: "gina-txt", SignerID: "s2", SignerMail: "gina@example.com", DocumentID: "page-1", TabType: entity.FieldText, ContentType: "text", XPos: 0.5, YPos: 0.9, Contents: "GINA-IBAN-DE001234"}},
			{SavedTab: entity.SavedTab{TabID: "gina-box", SignerID: "s2", SignerMail: "gina@example.com", DocumentID: "page-1", TabType: entity.FieldCheckbox, XPos: 0.8, YPos: 0.9, Contents: "true"}},
		},
	}}
	sessions := newMemStore(func(s *signing.State) string { return s.ID })
	uc := NewSignerUsecase(testConfig(), backend, sessions, fixedIP("203.0.113.7"), zap.NewNop()).(*signerUsecase)
	return &signerFixture{uc: uc, backend: backend, sessions: sessions}
}

func TestSignerOpenSignAndSend(t *testing.T) {
	f := newSignerFixture(t)
	ctx := context.Background()

	view, err := f.uc.Open(ctx, "link-token", OpenSignerRequest{DocumentGroup: "g-1", SignerMail: "frank@example.com", SignerCode: 483921})
	require.NoError(t, err)
	assert.Equal(t, 1, view.PageCount)
	require.Len(t, view.Tabs, 3)
	assert.Equal(t, "page-1", view.Pages[0].DocumentID)
	assert.Equal(t, int64(5000), view.GeolocationTimeoutMs)
	id := view.ID

	res, err := f.uc.Render(ctx, id, 1, 1190)
	require.NoError(t, err)
	assert.Equal(t, 1190, res.Width)
	assert.Len(t, res.Overlays, 1)
	assert.NotEmpty(t, res.PNG)

	click, err := f.uc.Click(ctx, id, ClickRequest{Page: 1, Point: canvas.Point{X: 200, Y: 200}, Width: 1190, Height: 1684})
	require.NoError(t, err)
	assert.True(t, click.Hit)
	assert.Equal(t, "sig", click.ActiveTab)

	_, err = f.uc.Send(ctx, id, "link-token", entity.DeviceInfo{})
	requireCode(t, err, entity.CodeUnsignedFields)
	assert.Nil(t, f.backend.signed)

	_, err = f.uc.SaveSignature(ctx, id, nil)
	requireCode(t, err, entity.CodeEmptySignature)

	_, err = f.uc.AddStrokes(ctx, id, [][]canvas.Point{{{X: 10, Y: 10}, {X: 80, Y: 40}}})
	require.NoError(t, err)
	signed, err := f.uc.SaveSignature(ctx, id, [][]canvas.Point{{{X: 90, Y: 40}, {X: 120, Y: 60}}})
	require.NoError(t, err)
	assert.Empty(t, signed.ActiveTab)
	assert.True(t, signed.Signatures["sig"].IsSigned)

	_, err = f.uc.Send(ctx, id, "link-token", entity.DeviceInfo{})
	requireCode(t, err, entity.CodeEmptyTextFields)

	_, err = f.uc.SetText(ctx, id, "txt", "Berlin")
	require.NoError(t, err)
	checked, err := f.uc.ToggleCheckbox(ctx, id, "box")
	require.NoError(t, err)
	assert.True(t, checked)
	_, err = f.uc.SetText(ctx, id, "other", "x")
	requireCode(t, err, entity.CodeNotOwned)

	out, err := f.uc.Send(ctx, id, "link-token", entity.DeviceInfo{UserAgent: "Mozilla/5.0", Language: "de-DE", Platform: "MacIntel", Timezone: "Europe/Berlin"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Signatures)
	assert.Equal(t, "/done", out.RedirectURL)
	assert.Equal(t, int64(2000), out.RedirectDelayMs)

	require.NotNil(t, f.backend.signed)
	assert.Equal(t, "203.0.113.7|Mozilla/5.0|de-DE|MacIntel|Europe/Berlin|unknown", f.backend.signed.MetadataInfo)
	assert.Equal(t, "true", f.backend.signed.Checkboxes[0].Content)
	assert.Equal(t, "Berlin", f.backend.signed.Textboxes[0].Content)
	assert.False(t, strings.HasPrefix(f.backend.signed.Signatures[0].SignatureBase64, "data:"))

	_, err = f.uc.Get(ctx, id)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestSignerRenderWidthIsBounded(t *testing.T) {
	f := newSignerFixture(t)
	ctx := context.Background()

	view, err := f.uc.Open(ctx, "", OpenSignerRequest{DocumentGroup: "g-1", SignerMail: "frank@example.com", SignerCode: 483921})
	require.NoError(t, err)

	res, err := f.uc.Render(ctx, view.ID, 1, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, 2400, res.Width)
	assert.Equal(t, 3396, res.Height)
}

func TestSignerViewListsOnlyOwnValues(t *testing.T) {
	f := newSignerFixture(t)
	ctx := context.Background()

	view, err := f.uc.Open(ctx, "", OpenSignerRequest{DocumentGroup: "g-1", SignerMail: "frank@example.com", SignerCode: 483921})
	require.NoError(t, err)
	_, err = f.uc.SetText(ctx, view.ID, "txt", "Berlin")
	require.NoError(t, err)

	got, err := f.uc.Get(ctx, view.ID)
	require.NoError(t, err)

	for _, v := range []*SignerView{view, got} {
		body, err := json.Marshal(entity.NewSuccessResponse(v, "ok"))
		require.NoError(t, err)
		assert.NotContains(t, string(body), "GINA-IBAN-DE001234")
		assert.NotContains(t, string(body), "gina-txt")
		assert.NotContains(t, string(body), "gina-box")
		assert.NotContains(t, string(body), "gina@example.com")
	}
	assert.Equal(t, map[string]string{"txt": "Berlin"}, got.TextValues)
	assert.Equal(t, map[string]bool{"box": false}, got.Checkboxes)
}

func TestSignerSendFailureKeepsSession(t *testing.T) {
	f := newSignerFixture(t)
	ctx := context.Background()

	view, err := f.uc.Open(ctx, "", OpenSignerRequest{DocumentGroup: "g-1", SignerMail: "frank@example.com", SignerCode: 483921})
	require.NoError(t, err)
	id := view.ID

	_, err = f.uc.Activate(ctx, id, "sig")
	require.NoError(t, err)
	_, err = f.uc.SaveSignature(ctx, id, [][]canvas.Point{{{X: 1, Y: 1}, {X: 50, Y: 20}}})
	require.NoError(t, err)
	_, err = f.uc.SetText(ctx, id, "txt", "Paris")
	require.NoError(t, err)

	f.backend.failSubmit = entity.ErrBackend
	_, err = f.uc.Send(ctx, id, "", entity.DeviceInfo{})
	assert.ErrorIs(t, err, entity.ErrBackend)

	got, err := f.uc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Signatures["sig"].IsSigned)
	assert.Equal(t, "Paris", got.TextValues["txt"])
}

func TestSignerReject(t *testing.T) {
	f := newSignerFixture(t)
	ctx := context.Background()

	view, err := f.uc.Open(ctx, "", OpenSignerRequest{DocumentGroup: "g-1", SignerMail: "frank@example.com"})
	require.NoError(t, err)

	_, err = f.uc.Reject(ctx, view.ID, "", "  ", entity.DeviceInfo{})
	requireCode(t, err, entity.CodeMissingReason)

	out, err := f.uc.Reject(ctx, view.ID, "", "wrong amount", entity.DeviceInfo{Geolocation: &entity.Geolocation{Latitude: 52.52, Longitude: 13.405}})
	require.NoError(t, err)
	assert.Equal(t, "/done", out.RedirectURL)
	require.NotNil(t, f.backend.rejected)
	assert.Equal(t, "g-1", f.backend.rejected.DocGroupID)
	assert.Equal(t, "frank@example.com", f.backend.rejected.SignerEmail)
	assert.True(t, strings.HasSuffix(f.backend.rejected.MetadataInfo, "|52.520000,13.405000"))
}

func TestSignerOpenValidation(t *testing.T) {
	f := newSignerFixture(t)
	_, err := f.uc.Open(context.Background(), "", OpenSignerRequest{})
	requireCode(t, err, entity.CodeMissingGroup)

	f.backend.signerPages = &entity.SignerPagesResponse{}
	_, err = f.uc.Open(context.Background(), "", OpenSignerRequest{DocumentGroup: "g-1"})
	requireCode(t, err, entity.CodeNoPages)
}

func TestTrackingProgress(t *testing.T) {
	yes := true
	backend := &fakeBackend{groupPages: &entity.GroupPagesResponse{Tabs: []entity.SignerTab{
		{SavedTab: entity.SavedTab{SignerMail: "a@example.com", TabType: entity.FieldSignature}, IsSigned: &yes},
		{SavedTab: entity.SavedTab{SignerMail: "b@example.com", TabType: entity.FieldSignature}},
		{SavedTab: entity.SavedTab{SignerMail: "b@example.com", TabType: entity.FieldText}},
	}}}
	uc := NewTrackingUsecase(backend, zap.NewNop())

	p, err := uc.Progress(context.Background(), author, "g-9")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Signed)
	assert.Equal(t, 2, p.Total)
	assert.False(t, p.Complete)
	require.Len(t, p.Signers, 2)
	assert.True(t, p.Signers[0].Complete)

	_, err = uc.Progress(context.Background(), author, "")
	requireCode(t, err, entity.CodeMissingGroup)
}
