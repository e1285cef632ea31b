package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/model"
)

// CreateRunLog 创建批量分类记录，返回记录 ID
func (s *Store) CreateRunLog(periodID string, total int) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO classification_runs (id, period_id, total, status)
		VALUES (?, ?, ?, 'processing')
	`, id, periodID, total)
	if err != nil {
		return "", fmt.Errorf("failed to create run log: %w", err)
	}
	return id, nil
}

// FinishRunLog 完成批量分类记录
func (s *Store) FinishRunLog(id string, cacheHits, computed, failed int, status string) error {
	_, err := s.db.Exec(`
		UPDATE classification_runs SET
			cache_hits = ?,
			computed = ?,
			failed = ?,
			status = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, cacheHits, computed, failed, status, id)
	if err != nil {
		return fmt.Errorf("failed to update run log: %w", err)
	}
	return nil
}

// LastRunLog 最近一次批量分类记录，没有记录时返回 nil
func (s *Store) LastRunLog() (*model.RunLog, error) {
	var (
		r           model.RunLog
		completedAt sql.NullString
	)
	err := s.db.QueryRow(`
		SELECT id, period_id, total, cache_hits, computed, failed, status, started_at, completed_at
		FROM classification_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT 1
	`).Scan(&r.ID, &r.PeriodID, &r.Total, &r.CacheHits, &r.Computed, &r.Failed, &r.Status, &r.StartedAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query run log: %w", err)
	}
	r.CompletedAt = completedAt.String
	return &r, nil
}
