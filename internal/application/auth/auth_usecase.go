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

// UserRepository 存取使用者。
type UserRepository interface {
	FindByIdentifier(ctx context.Context, identifier string) (auth.User, error)
	FindByID(ctx context.Context, id string) (auth.User, error)
}

// PasswordHasher 驗證密碼。
type PasswordHasher interface {
	Compare(hashed, plain string) bool
}

// TokenIssuer 簽發 access token 與 refresh session。
type TokenIssuer interface {
	Issue(ctx context.Context, user auth.User, meta auth.TokenMeta) (auth.TokenPair, error)
	IssueAccess(ctx context.Context, user auth.User) (string, time.Time, error)
}

// LoginLimiter 登入失敗次數限制；實作需自行處理後端錯誤（放行）。
type LoginLimiter interface {
	CheckLogin(ctx context.Context, identifier, ip string) error
	RecordFailure(ctx context.Context, identifier, ip string)
	Reset(ctx context.Context, identifier, ip string)
}

// LoginUseCase 驗證帳密並簽發 token。
type LoginUseCase struct {
	users     UserRepository
	hasher    PasswordHasher
	tokens    TokenIssuer
	limiter   LoginLimiter
	expiresIn string
}

func NewLoginUseCase(users UserRepository, hasher PasswordHasher, tokens TokenIssuer, expiresIn string) *LoginUseCase {
	return &LoginUseCase{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		expiresIn: expiresIn,
	}
}

// WithLimiter 掛上登入限流。
func (uc *LoginUseCase) WithLimiter(l LoginLimiter) *LoginUseCase {
	uc.limiter = l
	return uc
}

type LoginInput struct {
	Identifier string
	Password   string
	Meta       auth.TokenMeta
}

type LoginResult struct {
	JWT          string
	User         auth.Profile
	RefreshToken string
	ExpiresIn    string
	SessionID    string
}

func (uc *LoginUseCase) Execute(ctx context.Context, input LoginInput) (LoginResult, error) {
	var out LoginResult
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return out, fmt.Errorf("%w: identifier and password are required", ErrBadRequest)
	}

	if uc.limiter != nil {
		if err := uc.limiter.CheckLogin(ctx, identifier, input.Meta.IP); err != nil {
			return out, fmt.Errorf("%w: please try again later", ErrRateLimited)
		}
	}

	user, err := uc.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			uc.recordFailure(ctx, identifier, input.Meta.IP)
			return out, fmt.Errorf("%w: invalid identifier or password", ErrUnauthorized)
		}
		return out, fmt.Errorf("find user: %w", err)
	}
	if !uc.hasher.Compare(user.Password, input.Password) {
		uc.recordFailure(ctx, identifier, input.Meta.IP)
		return out, fmt.Errorf("%w: invalid identifier or password", ErrUnauthorized)
	}
	if user.Blocked {
		return out, fmt.Errorf("%w: your account has been blocked", ErrUnauthorized)
	}
	if !user.Confirmed {
		return out, fmt.Errorf("%w: your account email is not confirmed", ErrUnauthorized)
	}

	pair, err := uc.tokens.Issue(ctx, user, input.Meta)
	if err != nil {
		return out, fmt.Errorf("issue token: %w", err)
	}
	if uc.limiter != nil {
		uc.limiter.Reset(ctx, identifier, input.Meta.IP)
	}
	log.Printf("[Auth] user logged in: %s from %s", user.Email, input.Meta.IP)

	out.JWT = pair.AccessToken
	out.User = user.Profile()
	out.RefreshToken = pair.RefreshToken
	out.ExpiresIn = uc.expiresIn
	out.SessionID = pair.SessionID
	return out, nil
}

func (uc *LoginUseCase) recordFailure(ctx context.Context, identifier, ip string) {
	if uc.limiter != nil {
		uc.limiter.RecordFailure(ctx, identifier, ip)
	}
}
