package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSessionNotFound 查無符合條件的 session（不存在、已撤銷或已過期）。
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists token 雜湊重複。
	ErrSessionExists = errors.New("session token already exists")
)

// RevokeReason 撤銷原因。
type RevokeReason string

const (
	ReasonUserLogout   RevokeReason = "user_logout"
	ReasonLogoutAll    RevokeReason = "logout_all_sessions"
	ReasonManualRevoke RevokeReason = "manual_revocation"
)

// Session 紀錄 refresh token 的雜湊與其生命週期，原始 token 不落地。
type Session struct {
	ID            string
	TokenHash     string
	UserID        string
	IssuedAt      time.Time
	ExpiresAt     time.Time
	LastUsedAt    time.Time
	UsageCount    int
	Revoked       bool
	RevokedAt     *time.Time
	RevokedReason RevokeReason
	IPAddress     string
	UserAgent     string
	SessionID     string
}

// Active 檢查 session 是否仍可使用。
func (s Session) Active(now time.Time) bool {
	if s.Revoked {
		return false
	}
	return s.ExpiresAt.After(now)
}

// SessionView 給 /auth/sessions 使用的顯示欄位，不含 token 雜湊。
type SessionView struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	LastUsedAt time.Time `json:"lastUsedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	SessionID  string    `json:"sessionId"`
	UsageCount int       `json:"usageCount"`
}

// View 轉為顯示用結構。
func (s Session) View() SessionView {
	return SessionView{
		ID:         s.ID,
		CreatedAt:  s.IssuedAt,
		LastUsedAt: s.LastUsedAt,
		ExpiresAt:  s.ExpiresAt,
		IPAddress:  s.IPAddress,
		UserAgent:  s.UserAgent,
		SessionID:  s.SessionID,
		UsageCount: s.UsageCount,
	}
}

// SessionStore 提供 refresh token session 的儲存/查詢/撤銷，一律以雜湊查詢。
type SessionStore interface {
	SaveSession(ctx context.Context, sess Session) error
	// FindActiveByHash 僅回傳未撤銷且 expires_at > now 的紀錄，否則 ErrSessionNotFound。
	FindActiveByHash(ctx context.Context, tokenHash string, now time.Time) (Session, error)
	// TouchSession 更新 last_used_at 並將 usage_count 加一。
	TouchSession(ctx context.Context, id string, usedAt time.Time) error
	// RevokeByHash 撤銷未撤銷的紀錄；userID 非空時只撤銷該使用者的紀錄。回傳是否有命中。
	RevokeByHash(ctx context.Context, tokenHash, userID string, reason RevokeReason, at time.Time) (bool, error)
	RevokeAllForUser(ctx context.Context, userID string, reason RevokeReason, at time.Time) (int64, error)
	// ListActiveByUser 依 last_used_at 由新到舊排序。
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]Session, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenMeta 可選的 token 生成附帶資訊。
type TokenMeta struct {
	UserAgent string
	IP        string
}
