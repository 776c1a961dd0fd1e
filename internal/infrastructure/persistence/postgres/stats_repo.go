package postgres

import (
	"context"
	"database/sql"
	"time"
)

// StatsRepo /users/me 使用的統計查詢。
type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

func (r *StatsRepo) CountDocumentsUploaded(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM documents WHERE uploaded_by = $1;`, userID)
}

func (r *StatsRepo) CountActiveSessions(ctx context.Context, userID string, now time.Time) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM session_tokens WHERE user_id = $1 AND is_revoked = FALSE AND expires_at > $2;`, userID, now)
}

func (r *StatsRepo) CountProjectsManaged(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM projects WHERE project_manager_id = $1;`, userID)
}

func (r *StatsRepo) CountContractsAssigned(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM contracts WHERE assigned_to_id = $1;`, userID)
}

func (r *StatsRepo) CountNotesCreated(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM notes WHERE author_id = $1;`, userID)
}

func (r *StatsRepo) count(ctx context.Context, q string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
