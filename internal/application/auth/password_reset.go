package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"legal-contracts/internal/domain/auth"
)

// PasswordStore 讀取並更新使用者密碼。
type PasswordStore interface {
	FindByID(ctx context.Context, id string) (auth.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type Hasher interface {
	Hash(plain string) (string, error)
}

type PasswordGenerator interface {
	Generate() (string, error)
}

// Mailer 寄送純文字郵件。
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

const passwordMailSubject = "Legal Contracts - New Password Generated"

// PasswordResetUseCase 為指定使用者產生新密碼並寄信通知。
type PasswordResetUseCase struct {
	users       PasswordStore
	hasher      Hasher
	generator   PasswordGenerator
	mailer      Mailer
	frontendURL string
}

func NewPasswordResetUseCase(users PasswordStore, hasher Hasher, generator PasswordGenerator, mailer Mailer, frontendURL string) *PasswordResetUseCase {
	return &PasswordResetUseCase{
		users:       users,
		hasher:      hasher,
		generator:   generator,
		mailer:      mailer,
		frontendURL: frontendURL,
	}
}

type GeneratePasswordInput struct {
	RequesterID    string
	RequesterEmail string
	TargetID       string
}

// GeneratePasswordResult EmailSent 為 false 時 TemporaryPassword 才會有值。
type GeneratePasswordResult struct {
	Message           string
	User              auth.Profile
	EmailSent         bool
	TemporaryPassword string
}

func (uc *PasswordResetUseCase) Execute(ctx context.Context, in GeneratePasswordInput) (GeneratePasswordResult, error) {
	var out GeneratePasswordResult
	if in.RequesterID == "" {
		return out, fmt.Errorf("%w: authentication required", ErrUnauthorized)
	}
	target, err := uc.users.FindByID(ctx, in.TargetID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return out, fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return out, fmt.Errorf("find user: %w", err)
	}
	if target.Blocked {
		return out, fmt.Errorf("%w: cannot generate password for blocked user", ErrBadRequest)
	}

	plain, err := uc.generator.Generate()
	if err != nil {
		return out, fmt.Errorf("generate password: %w", err)
	}
	hashed, err := uc.hasher.Hash(plain)
	if err != nil {
		return out, fmt.Errorf("hash password: %w", err)
	}
	if err := uc.users.UpdatePassword(ctx, target.ID, hashed); err != nil {
		return out, fmt.Errorf("update password: %w", err)
	}

	out.User = target.Profile()
	if err := uc.send(ctx, target, plain); err != nil {
		log.Printf("[Auth] failed to send password email to %s: %v", target.Email, err)
		out.Message = "Password generated successfully, but email delivery failed. Please provide the password manually."
		out.TemporaryPassword = plain
		return out, nil
	}
	log.Printf("[Auth] password generated and emailed for user: %s by %s", target.Email, in.RequesterEmail)
	out.Message = "Password generated successfully and sent via email"
	out.EmailSent = true
	return out, nil
}

func (uc *PasswordResetUseCase) send(ctx context.Context, target auth.User, plain string) error {
	if uc.mailer == nil {
		return errors.New("mailer not configured")
	}
	body := fmt.Sprintf(`Legal Contracts System - Password Reset

Hello %s,

A new password has been generated for your Legal Contracts account by an administrator.

Your new password is: %s

IMPORTANT: Please change this password immediately after logging in. This password is temporary and should not be shared with anyone.

Login URL: %s

If you did not request this password reset, please contact your system administrator immediately.

---
This is an automated message from the Legal Contracts Management System.
`, target.DisplayName(), plain, uc.frontendURL)
	return uc.mailer.Send(ctx, target.Email, passwordMailSubject, body)
}
