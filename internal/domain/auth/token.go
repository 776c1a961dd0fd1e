package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// TokenPair 封裝 access/refresh token。
type TokenPair struct {
	AccessToken   string
	RefreshToken  string
	AccessExpiry  time.Time
	RefreshExpiry time.Time
	SessionID     string
}

// HashRefreshToken 回傳 refresh token 的 SHA-256 hex，資料庫只存這個值。
func HashRefreshToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
