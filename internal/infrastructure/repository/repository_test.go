package repository

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"esign-canvas/internal/config"
	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/editor"
	"esign-canvas/internal/infrastructure/database"
	"esign-canvas/internal/infrastructure/httpclient"
	"esign-canvas/internal/infrastructure/redis"
	"esign-canvas/internal/signing"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.RedisClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, &redis.RedisClient{Client: client}
}

func testConfig() *config.Config {
	return &config.Config{
		Session: config.SessionConfig{TTL: time.Hour},
		Editor:  config.EditorConfig{PreviewTTL: 10 * time.Minute},
	}
}

func TestEditorSessionRoundTrip(t *testing.T) {
	mr, rc := newRedis(t)
	repo := NewEditorSessionRepository(testConfig(), rc, zap.NewNop())
	ctx := context.Background()

	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	state := editor.NewState("ed-1", "user-1", editor.DocumentMeta{Name: "Lease"}, now)
	state.Recipients = []entity.Recipient{{Signer: "alice@example.com", SignerName: "Alice"}}
	state.Items[2] = []entity.PlacedItem{{ID: "f-1", X: 0.25, Y: 0.5, Page: 2, TabType: entity.FieldSignature}}
	state.TextValues["f-1"] = "hello"

	require.NoError(t, repo.Save(ctx, state))
	assert.True(t, mr.Exists("esign:editor:ed-1"))
	assert.Equal(t, time.Hour, mr.TTL("esign:editor:ed-1"))

	got, err := repo.Get(ctx, "ed-1")
	require.NoError(t, err)
	assert.Equal(t, "Lease", got.Document.Name)
	require.Len(t, got.Items[2], 1)
	assert.Equal(t, 0.25, got.Items[2][0].X)
	assert.Equal(t, "hello", got.TextValues["f-1"])
	assert.Equal(t, editor.DragIdle, got.Drag.Phase)

	require.NoError(t, repo.Delete(ctx, "ed-1"))
	_, err = repo.Get(ctx, "ed-1")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestSignerSessionExpiresAndDropsGarbage(t *testing.T) {
	mr, rc := newRedis(t)
	repo := NewSignerSessionRepository(testConfig(), rc, zap.NewNop())
	ctx := context.Background()

	state := signing.NewState("sg-1", "group-1", "", signing.Identity{Mail: "bob@example.com"}, nil, nil, time.Now())
	require.NoError(t, repo.Save(ctx, state))

	got, err := repo.Get(ctx, "sg-1")
	require.NoError(t, err)
	assert.Equal(t, "group-1", got.DocumentGroup)
	assert.Equal(t, "bob@example.com", got.Identity.Mail)

	mr.FastForward(2 * time.Hour)
	_, err = repo.Get(ctx, "sg-1")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)

	require.NoError(t, mr.Set("esign:signer:bad", "{not json"))
	_, err = repo.Get(ctx, "bad")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
	assert.False(t, mr.Exists("esign:signer:bad"))
}

func TestPreviewPutGetRevoke(t *testing.T) {
	mr, rc := newRedis(t)
	repo := NewPreviewRepository(testConfig(), rc)
	ctx := context.Background()

	a, err := repo.Put(ctx, []byte("png-a"))
	require.NoError(t, err)
	b, err := repo.Put(ctx, []byte("png-b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 10*time.Minute, mr.TTL("esign:preview:"+a))

	data, err := repo.Get(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-b"), data)

	require.NoError(t, repo.Revoke(ctx, a, b))
	require.NoError(t, repo.Revoke(ctx))
	_, err = repo.Get(ctx, a)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestAPILogSaveAndFind(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAPILogRepository(database.New(db, zap.NewNop()), zap.NewNop())
	ctx := context.Background()
	at := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO api_logs").
		WithArgs("/api/upload", "POST", "{}", "{}", 200, int64(12), "g-1", "user-1", at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Save(ctx, &entity.APILog{
		Endpoint: "/api/upload", Method: "POST", RequestBody: "{}", ResponseBody: "{}",
		StatusCode: 200, Duration: 12, DocumentGroup: "g-1", Actor: "user-1", CreatedAt: at,
	}))

	cols := []string{"id", "endpoint", "method", "request_body", "response_body", "status_code", "duration_ms", "document_group", "actor", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM api_logs WHERE document_group = \\$1").
		WithArgs("g-1", 20).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(2, "/api/signDocument", "POST", "", "", 200, 30, "g-1", "bob@example.com", at).
			AddRow(1, "/api/upload", "POST", "", "", 502, 12, "g-1", "user-1", at))
	logs, err := repo.FindByGroup(ctx, "g-1", 20)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "bob@example.com", logs[0].Actor)
	assert.Equal(t, 502, logs[1].StatusCode)

	mock.ExpectQuery("SELECT (.+) FROM api_logs ORDER BY").
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(cols))
	logs, err = repo.FindAll(ctx, 50, 0)
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)

	mock.ExpectExec("INSERT INTO api_logs").WillReturnError(errors.New("disk full"))
	assert.Error(t, repo.Save(ctx, &entity.APILog{Endpoint: "/x", CreatedAt: at}))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func newBackend(t *testing.T, handler http.HandlerFunc) *backendRepository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.Config{Backend: config.BackendConfig{AuthType: config.AuthTypeBearer, BaseURL: srv.URL, Timeout: 5 * time.Second}}
	client := httpclient.NewHTTPClient(cfg, nil, zap.NewNop())
	return NewBackendRepository(client, zap.NewNop()).(*backendRepository)
}

func TestBackendGetPagesForSigner(t *testing.T) {
	repo := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/getPagesForSigner", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var req entity.SignerPagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "g-1", req.DocumentGroup)
		assert.Equal(t, 483921, req.SignerCode)
		_, _ = w.Write([]byte(`{"docs":[{"id":"p1","isFirstPage":true}],"vw_SignerTabs":[{"tabId":"t1","tab_type":"signature","documentId":"p1"}]}`))
	})

	res, err := repo.GetPagesForSigner(context.Background(), entity.Caller{Token: "tok", DocumentGroup: "g-1"},
		entity.SignerPagesRequest{DocumentGroup: "g-1", SignerCode: 483921})
	require.NoError(t, err)
	require.Len(t, res.Docs, 1)
	require.Len(t, res.SignerTabs, 1)
	assert.Equal(t, entity.FieldSignature, res.SignerTabs[0].TabType)
}

func TestBackendFailureResultIsAnError(t *testing.T) {
	repo := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/signDocument":
			_, _ = w.Write([]byte(`{"success":false,"message":"already signed"}`))
		case "/api/upload":
			_, _ = w.Write([]byte(`{"message":"saved"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	})
	ctx := context.Background()

	err := repo.SignDocument(ctx, entity.Caller{}, &entity.SigningPayload{DocumentGroup: "g-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrBackend)
	assert.Contains(t, err.Error(), "already signed")

	assert.NoError(t, repo.Upload(ctx, entity.Caller{}, &entity.DocumentSubmission{DocumentName: "Lease"}))

	err = repo.DeleteSignProcess(ctx, entity.Caller{}, "g-1")
	assert.ErrorIs(t, err, entity.ErrBackend)
}
