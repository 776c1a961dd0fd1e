package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "legal-contracts/internal/domain/auth"
)

type fakeStats struct {
	err error
}

func (f fakeStats) CountDocumentsUploaded(context.Context, string) (int, error) { return 3, f.err }
func (f fakeStats) CountActiveSessions(context.Context, string, time.Time) (int, error) {
	return 2, nil
}
func (f fakeStats) CountProjectsManaged(context.Context, string) (int, error)   { return 1, nil }
func (f fakeStats) CountContractsAssigned(context.Context, string) (int, error) { return 4, nil }
func (f fakeStats) CountNotesCreated(context.Context, string) (int, error)      { return 5, nil }

func TestProfile(t *testing.T) {
	uc := NewProfileUseCase(fakeUserRepo{user: activeUser()}, fakeStats{})
	res, err := uc.Execute(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ProfileStats{ProjectsManaged: 1, ContractsAssigned: 4, DocumentsUploaded: 3, NotesCreated: 5, ActiveSessions: 2}
	if res.Stats != want {
		t.Fatalf("unexpected stats: %+v", res.Stats)
	}
	if res.User.ID != "u1" {
		t.Fatalf("unexpected user: %+v", res.User)
	}
}

func TestProfile_Errors(t *testing.T) {
	uc := NewProfileUseCase(fakeUserRepo{user: activeUser()}, fakeStats{err: errors.New("db down")})
	if _, err := uc.Execute(context.Background(), "u1"); err == nil {
		t.Fatal("expected stats error")
	}
	if _, err := uc.Execute(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := uc.Execute(context.Background(), "ghost"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for missing user, got %v", err)
	}
	gone := NewProfileUseCase(fakeUserRepo{err: domain.ErrUserNotFound}, fakeStats{})
	if _, err := gone.Execute(context.Background(), "u1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for deleted user, got %v", err)
	}
}
