package auth

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// ExpiredSessionDeleter 刪除過期 session 的儲存層能力。
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionSweeper 定期清除過期的 refresh token 紀錄。
type SessionSweeper struct {
	store    ExpiredSessionDeleter
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	done     chan struct{}
}

// NewSessionSweeper 建立清理工作者，預設每 24 小時一次。
func NewSessionSweeper(store ExpiredSessionDeleter, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &SessionSweeper{
		store:    store,
		interval: interval,
		timeout:  30 * time.Second,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start 啟動迴圈。
func (w *SessionSweeper) Start() {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	log.Printf("[Sweeper] Starting session sweeper with interval: %v", w.interval)
	ticker := time.NewTicker(w.interval)
	go func() {
		defer close(w.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.RunOnce(context.Background())
			case <-w.stopChan:
				return
			}
		}
	}()
}

// Stop 停止迴圈並等待目前的清理結束。
func (w *SessionSweeper) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	if w.started.Load() {
		<-w.done
	}
}

// RunOnce 執行一次清理，回傳刪除筆數。
func (w *SessionSweeper) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	n, err := w.store.DeleteExpired(ctx, w.now())
	if err != nil {
		log.Printf("[Sweeper] Failed to delete expired sessions: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("[Sweeper] Deleted %d expired sessions", n)
	}
	return n
}
