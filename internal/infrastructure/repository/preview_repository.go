package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"esign-canvas/internal/config"
	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/domain/repository"
	"esign-canvas/internal/infrastructure/redis"
)

const previewKeyPrefix = "esign:preview:"

// previewRepository serves rendered page previews by opaque key until revoked or expired.
type previewRepository struct {
	redis *redis.RedisClient
	ttl   time.Duration
}

func NewPreviewRepository(cfg *config.Config, rc *redis.RedisClient) repository.PreviewRepository {
	return &previewRepository{redis: rc, ttl: cfg.Editor.PreviewTTL}
}

func (r *previewRepository) Put(ctx context.Context, data []byte) (string, error) {
	key := uuid.NewString()
	if err := r.redis.Set(ctx, previewKeyPrefix+key, data, r.ttl); err != nil {
		return "", fmt.Errorf("failed to store preview: %w", err)
	}
	return key, nil
}

func (r *previewRepository) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.redis.GetBytes(ctx, previewKeyPrefix+key)
	if redis.IsNil(err) {
		return nil, entity.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preview: %w", err)
	}
	return data, nil
}

func (r *previewRepository) Revoke(ctx context.Context, keys ...string) error {
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, previewKeyPrefix+k)
	}
	if err := r.redis.Del(ctx, full...); err != nil {
		return fmt.Errorf("failed to revoke previews: %w", err)
	}
	return nil
}
