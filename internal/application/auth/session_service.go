package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"legal-contracts/internal/domain/auth"
)

// errInvalidRefresh 對外一律使用同一訊息，不區分不存在、過期或撤銷。
const errInvalidRefresh = "invalid or expired refresh token"

// SessionService 處理 refresh token 的換發、登出、撤銷與列表。
type SessionService struct {
	sessions  auth.SessionStore
	users     UserRepository
	tokens    TokenIssuer
	expiresIn string
	now       func() time.Time
}

func NewSessionService(sessions auth.SessionStore, users UserRepository, tokens TokenIssuer, expiresIn string) *SessionService {
	return &SessionService{
		sessions:  sessions,
		users:     users,
		tokens:    tokens,
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

type RefreshResult struct {
	JWT       string
	User      auth.Profile
	ExpiresIn string
}

// Refresh 以 refresh token 換發新的 access token；refresh token 本身不輪替。
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	var out RefreshResult
	if strings.TrimSpace(refreshToken) == "" {
		return out, fmt.Errorf("%w: refresh token is required", ErrBadRequest)
	}
	now := s.now()

	sess, err := s.sessions.FindActiveByHash(ctx, auth.HashRefreshToken(refreshToken), now)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return out, fmt.Errorf("%w: %s", ErrUnauthorized, errInvalidRefresh)
		}
		return out, fmt.Errorf("find session: %w", err)
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return out, fmt.Errorf("%w: user not found or blocked", ErrUnauthorized)
		}
		return out, fmt.Errorf("find user: %w", err)
	}
	if !user.CanLogin() {
		return out, fmt.Errorf("%w: user not found or blocked", ErrUnauthorized)
	}

	access, _, err := s.tokens.IssueAccess(ctx, user)
	if err != nil {
		return out, fmt.Errorf("issue access token: %w", err)
	}
	if err := s.sessions.TouchSession(ctx, sess.ID, now); err != nil {
		return out, fmt.Errorf("touch session: %w", err)
	}
	log.Printf("[Auth] token refreshed for user: %s", user.Email)

	out.JWT = access
	out.User = user.Profile()
	out.ExpiresIn = s.expiresIn
	return out, nil
}

type LogoutInput struct {
	RefreshToken string
	RevokeAll    bool
	// UserID 已驗證的呼叫者，未登入時為空。
	UserID string
}

// Logout 撤銷指定 token；RevokeAll 且有登入者時撤銷該使用者全部 token。
// 未知或已撤銷的 token 同樣視為成功。
func (s *SessionService) Logout(ctx context.Context, in LogoutInput) error {
	now := s.now()
	if strings.TrimSpace(in.RefreshToken) != "" {
		if _, err := s.sessions.RevokeByHash(ctx, auth.HashRefreshToken(in.RefreshToken), "", auth.ReasonUserLogout, now); err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}
	}
	if in.RevokeAll && in.UserID != "" {
		n, err := s.sessions.RevokeAllForUser(ctx, in.UserID, auth.ReasonLogoutAll, now)
		if err != nil {
			return fmt.Errorf("revoke all sessions: %w", err)
		}
		log.Printf("[Auth] revoked %d sessions for user %s", n, in.UserID)
	}
	return nil
}

// Revoke 只能撤銷呼叫者自己的 token，找不到（含已撤銷）時回傳 ErrNotFound。
func (s *SessionService) Revoke(ctx context.Context, refreshToken, userID string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return fmt.Errorf("%w: refresh token is required", ErrBadRequest)
	}
	if userID == "" {
		return fmt.Errorf("%w: authentication required", ErrUnauthorized)
	}
	ok, err := s.sessions.RevokeByHash(ctx, auth.HashRefreshToken(refreshToken), userID, auth.ReasonManualRevoke, s.now())
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: token not found or already revoked", ErrNotFound)
	}
	log.Printf("[Auth] refresh token revoked by user %s", userID)
	return nil
}

// ListSessions 列出呼叫者目前有效的 session。
func (s *SessionService) ListSessions(ctx context.Context, userID string) ([]auth.SessionView, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: authentication required", ErrUnauthorized)
	}
	list, err := s.sessions.ListActiveByUser(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]auth.SessionView, 0, len(list))
	for _, sess := range list {
		out = append(out, sess.View())
	}
	return out, nil
}
