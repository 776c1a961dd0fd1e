package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	authDomain "legal-contracts/internal/domain/auth"
	dbinfra "legal-contracts/internal/infrastructure/db"
)

// SessionRepo 以 token 雜湊存取 session_tokens。
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

const sessionColumns = `id, token_hash, user_id, issued_at, expires_at, last_used_at, usage_count, is_revoked, revoked_at, COALESCE(revoked_reason, ''), ip_address, user_agent, session_id`

// SaveSession 新增一筆 session。
func (r *SessionRepo) SaveSession(ctx context.Context, s authDomain.Session) error {
	const q = `
INSERT INTO session_tokens (token_hash, user_id, issued_at, expires_at, last_used_at, usage_count, is_revoked, ip_address, user_agent, session_id)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8, $9);
`
	_, err := r.db.ExecContext(ctx, q, s.TokenHash, s.UserID, s.IssuedAt, s.ExpiresAt, s.LastUsedAt, s.UsageCount, s.IPAddress, s.UserAgent, s.SessionID)
	if dbinfra.IsUniqueViolation(err) {
		return authDomain.ErrSessionExists
	}
	return err
}

// FindActiveByHash 查詢未撤銷且未過期的 session。
func (r *SessionRepo) FindActiveByHash(ctx context.Context, tokenHash string, now time.Time) (authDomain.Session, error) {
	q := `SELECT ` + sessionColumns + `
FROM session_tokens
WHERE token_hash = $1 AND is_revoked = FALSE AND expires_at > $2
LIMIT 1;`
	s, err := scanSession(r.db.QueryRowContext(ctx, q, tokenHash, now))
	if errors.Is(err, sql.ErrNoRows) {
		return authDomain.Session{}, authDomain.ErrSessionNotFound
	}
	return s, err
}

// TouchSession last_used_at = usedAt，usage_count + 1，於同一個 UPDATE 內完成。
func (r *SessionRepo) TouchSession(ctx context.Context, id string, usedAt time.Time) error {
	const q = `
UPDATE session_tokens
SET last_used_at = $2, usage_count = usage_count + 1
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, id, usedAt)
	if err != nil {
		return err
	}
	return expectAffected(res, authDomain.ErrSessionNotFound)
}

// RevokeByHash 撤銷尚未撤銷的紀錄；userID 非空時加上擁有者條件。
func (r *SessionRepo) RevokeByHash(ctx context.Context, tokenHash, userID string, reason authDomain.RevokeReason, at time.Time) (bool, error) {
	const q = `
UPDATE session_tokens
SET is_revoked = TRUE, revoked_at = $3, revoked_reason = $4
WHERE token_hash = $1 AND is_revoked = FALSE AND ($2::text = '' OR user_id::text = $2);
`
	res, err := r.db.ExecContext(ctx, q, tokenHash, userID, at, string(reason))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevokeAllForUser 撤銷使用者所有未撤銷的 session，回傳筆數。
func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID string, reason authDomain.RevokeReason, at time.Time) (int64, error) {
	const q = `
UPDATE session_tokens
SET is_revoked = TRUE, revoked_at = $2, revoked_reason = $3
WHERE user_id = $1 AND is_revoked = FALSE;
`
	res, err := r.db.ExecContext(ctx, q, userID, at, string(reason))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListActiveByUser 依 last_used_at 由新到舊列出有效 session。
func (r *SessionRepo) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]authDomain.Session, error) {
	q := `SELECT ` + sessionColumns + `
FROM session_tokens
WHERE user_id = $1 AND is_revoked = FALSE AND expires_at > $2
ORDER BY last_used_at DESC;`
	rows, err := r.db.QueryContext(ctx, q, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []authDomain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteExpired 刪除 expires_at < now 的紀錄（不論是否已撤銷）。
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM session_tokens WHERE expires_at < $1;`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (authDomain.Session, error) {
	var s authDomain.Session
	var revokedAt sql.NullTime
	var reason string
	if err := row.Scan(&s.ID, &s.TokenHash, &s.UserID, &s.IssuedAt, &s.ExpiresAt, &s.LastUsedAt,
		&s.UsageCount, &s.Revoked, &revokedAt, &reason, &s.IPAddress, &s.UserAgent, &s.SessionID); err != nil {
		return authDomain.Session{}, err
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		s.RevokedAt = &t
	}
	s.RevokedReason = authDomain.RevokeReason(reason)
	return s, nil
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
