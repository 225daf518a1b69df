package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"esign-canvas/internal/config"
	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/domain/repository"
	"esign-canvas/internal/editor"
	"esign-canvas/internal/infrastructure/redis"
	"esign-canvas/internal/signing"
)

const (
	editorKeyPrefix = "esign:editor:"
	signerKeyPrefix = "esign:signer:"
)

// stateStore keeps JSON encoded session state in Redis, refreshing the TTL on every save.
type stateStore[T any] struct {
	redis  *redis.RedisClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func (s *stateStore[T]) save(ctx context.Context, id string, state *T) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", id, err)
	}
	if err := s.redis.Set(ctx, s.prefix+id, data, s.ttl); err != nil {
		return fmt.Errorf("failed to save session %s: %w", id, err)
	}
	return nil
}

func (s *stateStore[T]) get(ctx context.Context, id string) (*T, error) {
	data, err := s.redis.GetBytes(ctx, s.prefix+id)
	if redis.IsNil(err) {
		return nil, entity.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}

	var state T
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("Dropping unreadable session",
			zap.String("key", s.prefix+id),
			zap.Error(err),
		)
		_ = s.redis.Del(ctx, s.prefix+id)
		return nil, entity.ErrSessionNotFound
	}
	return &state, nil
}

func (s *stateStore[T]) delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.prefix+id); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

type editorSessionRepository struct {
	store stateStore[editor.State]
}

func NewEditorSessionRepository(cfg *config.Config, rc *redis.RedisClient, logger *zap.Logger) repository.EditorSessionRepository {
	return &editorSessionRepository{store: stateStore[editor.State]{
		redis:  rc,
		prefix: editorKeyPrefix,
		ttl:    cfg.Session.TTL,
		logger: logger,
	}}
}

func (r *editorSessionRepository) Save(ctx context.Context, state *editor.State) error {
	return r.store.save(ctx, state.ID, state)
}

func (r *editorSessionRepository) Get(ctx context.Context, id string) (*editor.State, error) {
	return r.store.get(ctx, id)
}

func (r *editorSessionRepository) Delete(ctx context.Context, id string) error {
	return r.store.delete(ctx, id)
}

type signerSessionRepository struct {
	store stateStore[signing.State]
}

func NewSignerSessionRepository(cfg *config.Config, rc *redis.RedisClient, logger *zap.Logger) repository.SignerSessionRepository {
	return &signerSessionRepository{store: stateStore[signing.State]{
		redis:  rc,
		prefix: signerKeyPrefix,
		ttl:    cfg.Session.TTL,
		logger: logger,
	}}
}

func (r *signerSessionRepository) Save(ctx context.Context, state *signing.State) error {
	return r.store.save(ctx, state.ID, state)
}

func (r *signerSessionRepository) Get(ctx context.Context, id string) (*signing.State, error) {
	return r.store.get(ctx, id)
}

func (r *signerSessionRepository) Delete(ctx context.Context, id string) error {
	return r.store.delete(ctx, id)
}
