package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"esign-canvas/internal/domain/entity"
	"esign-canvas/internal/domain/repository"
	"esign-canvas/internal/infrastructure/database"
)

const apiLogColumns = `id, endpoint, method, request_body, response_body, status_code, duration_ms, document_group, actor, created_at`

type apiLogRepository struct {
	db     *database.Database
	logger *zap.Logger
}

// NewAPILogRepository creates a new API log repository
func NewAPILogRepository(db *database.Database, logger *zap.Logger) repository.APILogRepository {
	return &apiLogRepository{
		db:     db,
		logger: logger,
	}
}

// Save saves an API log entry to the database
func (r *apiLogRepository) Save(ctx context.Context, log *entity.APILog) error {
	query := `
		INSERT INTO api_logs (endpoint, method, request_body, response_body, status_code, duration_ms, document_group, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		log.Endpoint,
		log.Method,
		log.RequestBody,
		log.ResponseBody,
		log.StatusCode,
		log.Duration,
		log.DocumentGroup,
		log.Actor,
		log.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to save API log",
			zap.String("endpoint", log.Endpoint),
			zap.Error(err),
		)
		return fmt.Errorf("failed to save API log: %w", err)
	}

	return nil
}

// FindAll returns the newest logs first.
func (r *apiLogRepository) FindAll(ctx context.Context, limit, offset int) ([]entity.APILog, error) {
	query := `SELECT ` + apiLogColumns + ` FROM api_logs ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query API logs: %w", err)
	}
	defer rows.Close()

	return scanAPILogs(rows)
}

func (r *apiLogRepository) FindByGroup(ctx context.Context, group string, limit int) ([]entity.APILog, error) {
	query := `SELECT ` + apiLogColumns + ` FROM api_logs WHERE document_group = $1 ORDER BY created_at DESC, id DESC LIMIT $2`

	rows, err := r.db.DB.QueryContext(ctx, query, group, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query API logs by group: %w", err)
	}
	defer rows.Close()

	return scanAPILogs(rows)
}

func scanAPILogs(rows *sql.Rows) ([]entity.APILog, error) {
	logs := make([]entity.APILog, 0)
	for rows.Next() {
		var log entity.APILog
		if err := rows.Scan(
			&log.ID,
			&log.Endpoint,
			&log.Method,
			&log.RequestBody,
			&log.ResponseBody,
			&log.StatusCode,
			&log.Duration,
			&log.DocumentGroup,
			&log.Actor,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan API log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate API logs: %w", err)
	}
	return logs, nil
}
