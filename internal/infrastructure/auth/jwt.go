package authinfra

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"legal-contracts/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTIssuer 產生 access token（JWT）與 refresh token，refresh token 只以雜湊存入 session store。
type JWTIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	sessions   auth.SessionStore
	now        func() time.Time
}

// NewJWTIssuer 建立 JWT 簽發器。
func NewJWTIssuer(secret string, accessTTL, refreshTTL time.Duration, sessions auth.SessionStore) *JWTIssuer {
	return &JWTIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		sessions:   sessions,
		now:        time.Now,
	}
}

// WithClock 測試用，替換時間來源。
func (j *JWTIssuer) WithClock(now func() time.Time) *JWTIssuer {
	j.now = now
	return j
}

// Claims 定義 access token 的 payload，只放使用者 id。
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Issue 登入成功時呼叫：簽發 access token，產生 refresh token 並建立 session 紀錄。
func (j *JWTIssuer) Issue(ctx context.Context, user auth.User, meta auth.TokenMeta) (auth.TokenPair, error) {
	if j.sessions == nil {
		return auth.TokenPair{}, errors.New("session store not configured")
	}
	access, accessExp, err := j.IssueAccess(ctx, user)
	if err != nil {
		return auth.TokenPair{}, err
	}

	refreshToken, err := randomToken()
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}
	now := j.now()
	sess := auth.Session{
		TokenHash:  auth.HashRefreshToken(refreshToken),
		UserID:     user.ID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(j.refreshTTL),
		LastUsedAt: now,
		UsageCount: 0,
		IPAddress:  orUnknown(meta.IP),
		UserAgent:  orUnknown(meta.UserAgent),
		SessionID:  uuid.NewString(),
	}
	if err := j.sessions.SaveSession(ctx, sess); err != nil {
		return auth.TokenPair{}, fmt.Errorf("save session: %w", err)
	}

	return auth.TokenPair{
		AccessToken:   access,
		RefreshToken:  refreshToken,
		AccessExpiry:  accessExp,
		RefreshExpiry: sess.ExpiresAt,
		SessionID:     sess.SessionID,
	}, nil
}

// IssueAccess 只簽發新的 access token，refresh 流程使用。
func (j *JWTIssuer) IssueAccess(_ context.Context, user auth.User) (string, time.Time, error) {
	now := j.now()
	exp := now.Add(j.accessTTL)
	claims := Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseAccessToken 驗證並解析 access token。
func (j *JWTIssuer) ParseAccessToken(token string) (Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		return Claims{}, err
	}
	if !tkn.Valid || claims.UserID == "" {
		return Claims{}, errors.New("invalid token")
	}
	return claims, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
