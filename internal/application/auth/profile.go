package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legal-contracts/internal/domain/auth"

	"golang.org/x/sync/errgroup"
)

// StatsReader /users/me 所需的各項計數。
type StatsReader interface {
	CountDocumentsUploaded(ctx context.Context, userID string) (int, error)
	CountActiveSessions(ctx context.Context, userID string, now time.Time) (int, error)
	CountProjectsManaged(ctx context.Context, userID string) (int, error)
	CountContractsAssigned(ctx context.Context, userID string) (int, error)
	CountNotesCreated(ctx context.Context, userID string) (int, error)
}

type ProfileStats struct {
	ProjectsManaged   int `json:"projectsManaged"`
	ContractsAssigned int `json:"contractsAssigned"`
	DocumentsUploaded int `json:"documentsUploaded"`
	NotesCreated      int `json:"notesCreated"`
	ActiveSessions    int `json:"activeSessions"`
}

type ProfileResult struct {
	User  auth.Profile
	Stats ProfileStats
}

// ProfileUseCase 回傳目前使用者資料與統計。
type ProfileUseCase struct {
	users UserRepository
	stats StatsReader
	now   func() time.Time
}

func NewProfileUseCase(users UserRepository, stats StatsReader) *ProfileUseCase {
	return &ProfileUseCase{users: users, stats: stats, now: time.Now}
}

func (uc *ProfileUseCase) Execute(ctx context.Context, userID string) (ProfileResult, error) {
	var out ProfileResult
	if userID == "" {
		return out, fmt.Errorf("%w: authentication required", ErrUnauthorized)
	}
	user, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return out, fmt.Errorf("%w: user not found", ErrUnauthorized)
		}
		return out, fmt.Errorf("find user: %w", err)
	}

	// 各計數互不相依，併發查詢。
	g, gctx := errgroup.WithContext(ctx)
	now := uc.now()
	g.Go(func() (err error) {
		out.Stats.ProjectsManaged, err = uc.stats.CountProjectsManaged(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Stats.ContractsAssigned, err = uc.stats.CountContractsAssigned(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Stats.DocumentsUploaded, err = uc.stats.CountDocumentsUploaded(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Stats.NotesCreated, err = uc.stats.CountNotesCreated(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Stats.ActiveSessions, err = uc.stats.CountActiveSessions(gctx, userID, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return ProfileResult{}, fmt.Errorf("load stats: %w", err)
	}

	out.User = user.Profile()
	return out, nil
}
