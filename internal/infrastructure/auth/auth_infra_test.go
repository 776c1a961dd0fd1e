package authinfra

import (
	"context"
	"testing"
	"time"

	"legal-contracts/internal/domain/auth"
)

type mockSessionStore struct {
	auth.SessionStore
	saved []auth.Session
}

func (m *mockSessionStore) SaveSession(ctx context.Context, sess auth.Session) error {
	m.saved = append(m.saved, sess)
	return nil
}

func TestJWTIssuer_IssueAndParse(t *testing.T) {
	store := &mockSessionStore{}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	issuer := NewJWTIssuer("secret", time.Hour, 30*24*time.Hour, store).WithClock(func() time.Time { return now })
	user := auth.User{ID: "u-1", Role: auth.RoleAuthenticated}

	pair, err := issuer.Issue(context.Background(), user, auth.TokenMeta{UserAgent: "curl/8", IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := issuer.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken failed: %v", err)
	}
	if claims.UserID != "u-1" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	if len(store.saved) != 1 {
		t.Fatalf("expected 1 saved session, got %d", len(store.saved))
	}
	sess := store.saved[0]
	if len(pair.RefreshToken) != 64 {
		t.Errorf("refresh token should be 64 hex chars, got %d", len(pair.RefreshToken))
	}
	if sess.TokenHash != auth.HashRefreshToken(pair.RefreshToken) {
		t.Error("stored hash does not match refresh token")
	}
	if sess.TokenHash == pair.RefreshToken {
		t.Error("raw refresh token must not be stored")
	}
	if sess.UsageCount != 0 || !sess.LastUsedAt.Equal(now) || !sess.IssuedAt.Equal(now) {
		t.Errorf("unexpected session bookkeeping: %+v", sess)
	}
	if !sess.ExpiresAt.Equal(now.Add(30 * 24 * time.Hour)) {
		t.Errorf("unexpected expiry: %v", sess.ExpiresAt)
	}
	if sess.SessionID == "" || sess.SessionID != pair.SessionID {
		t.Errorf("session id not propagated: %q vs %q", sess.SessionID, pair.SessionID)
	}
	if sess.IPAddress != "10.0.0.1" || sess.UserAgent != "curl/8" {
		t.Errorf("meta not recorded: %+v", sess)
	}
}

func TestJWTIssuer_UnknownMeta(t *testing.T) {
	store := &mockSessionStore{}
	issuer := NewJWTIssuer("secret", time.Hour, time.Hour, store)
	if _, err := issuer.Issue(context.Background(), auth.User{ID: "u-1"}, auth.TokenMeta{}); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if store.saved[0].IPAddress != "unknown" || store.saved[0].UserAgent != "unknown" {
		t.Errorf("expected unknown defaults, got %+v", store.saved[0])
	}
}

func TestJWTIssuer_DistinctRefreshTokens(t *testing.T) {
	store := &mockSessionStore{}
	issuer := NewJWTIssuer("secret", time.Hour, time.Hour, store)
	a, _ := issuer.Issue(context.Background(), auth.User{ID: "u-1"}, auth.TokenMeta{})
	b, _ := issuer.Issue(context.Background(), auth.User{ID: "u-1"}, auth.TokenMeta{})
	if a.RefreshToken == b.RefreshToken || a.SessionID == b.SessionID {
		t.Error("each login should produce a fresh token and session id")
	}
}

func TestJWTIssuer_ParseRejects(t *testing.T) {
	now := time.Now()
	issuer := NewJWTIssuer("secret", time.Minute, time.Hour, &mockSessionStore{})
	access, _, err := issuer.IssueAccess(context.Background(), auth.User{ID: "u-1"})
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	other := NewJWTIssuer("other", time.Minute, time.Hour, nil)
	if _, err := other.ParseAccessToken(access); err == nil {
		t.Error("expected signature mismatch")
	}

	later := NewJWTIssuer("secret", time.Minute, time.Hour, nil).WithClock(func() time.Time { return now.Add(2 * time.Hour) })
	if _, err := later.ParseAccessToken(access); err == nil {
		t.Error("expected expired token to be rejected")
	}

	if _, err := issuer.ParseAccessToken("garbage"); err == nil {
		t.Error("expected malformed token to be rejected")
	}
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{}
	pwd := "password123"
	hashed, err := h.Hash(pwd)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if !h.Compare(hashed, pwd) {
		t.Error("Compare failed")
	}

	if h.Compare(hashed, "wrong") {
		t.Error("Compare should have failed")
	}
}

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		p, err := GeneratePassword()
		if err != nil {
			t.Fatalf("GeneratePassword failed: %v", err)
		}
		if len(p) != 16 {
			t.Fatalf("expected 16 chars, got %d (%q)", len(p), p)
		}
		if seen[p] {
			t.Fatalf("duplicate password %q", p)
		}
		seen[p] = true
	}
}
