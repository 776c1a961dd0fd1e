package audit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"legal-contracts/internal/domain/audit"

	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu      sync.Mutex
	entries []audit.Entry
	err     error
	block   chan struct{}
}

func (f *fakeRepo) Create(ctx context.Context, e audit.Entry) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeRepo) list() []audit.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]audit.Entry(nil), f.entries...)
}

func newTestRecorder(repo audit.Repository) *Recorder {
	r := NewRecorder(repo)
	r.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	r.newID = func() string { return "log-1" }
	return r
}

func TestRecorder_Scenarios(t *testing.T) {
	cases := []struct {
		name      string
		obs       Observation
		wantCount int
		wantEvent audit.Event
	}{
		{"read contract", Observation{Method: http.MethodGet, URL: "/api/contracts/42", StatusCode: 200}, 1, audit.EventRead},
		{"users me", Observation{Method: http.MethodGet, URL: "/api/users/me", StatusCode: 200}, 0, ""},
		{"login 400", Observation{Method: http.MethodPost, URL: "/api/auth/local", StatusCode: 400}, 0, ""},
		{"login 401", Observation{Method: http.MethodPost, URL: "/api/auth/local", StatusCode: 401}, 1, audit.EventLogin},
		{"forbidden", Observation{Method: http.MethodDelete, URL: "/api/contracts/1", StatusCode: 403}, 1, audit.EventDelete},
		{"server error", Observation{Method: http.MethodPost, URL: "/api/contracts", StatusCode: 500}, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRepo{}
			r := newTestRecorder(repo)
			r.Record(tc.obs)
			r.Wait()

			got := repo.list()
			require.Len(t, got, tc.wantCount)
			if tc.wantCount == 1 {
				require.Equal(t, tc.wantEvent, got[0].Event)
				require.Equal(t, "log-1", got[0].ID)
				require.False(t, got[0].Timestamp.IsZero())
			}
		})
	}
}

func TestRecorder_DoesNotBlockCaller(t *testing.T) {
	repo := &fakeRepo{block: make(chan struct{})}
	r := newTestRecorder(repo)

	done := make(chan bool, 1)
	go func() { done <- r.Record(Observation{Method: http.MethodGet, URL: "/api/contracts/42", StatusCode: 200}) }()

	select {
	case dispatched := <-done:
		require.True(t, dispatched)
	case <-time.After(time.Second):
		t.Fatal("Record blocked on the repository")
	}
	close(repo.block)
	r.Wait()
	require.Len(t, repo.list(), 1)
}

func TestRecorder_SwallowsErrors(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db down")}
	r := newTestRecorder(repo)
	require.True(t, r.Record(Observation{Method: http.MethodGet, URL: "/api/contracts/42", StatusCode: 200}))
	r.Wait()
	require.Empty(t, repo.list())
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	require.False(t, r.Record(Observation{}))
	r.Wait()
	require.False(t, NewRecorder(nil).Record(Observation{Method: http.MethodGet, URL: "/api/x", StatusCode: 200}))
}
