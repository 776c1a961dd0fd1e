package audit

import (
	"context"
	"log"
	"sync"
	"time"

	"legal-contracts/internal/domain/audit"

	"github.com/google/uuid"
)

const writeTimeout = 5 * time.Second

// Recorder 分類請求並在背景寫入稽核紀錄；寫入失敗只記 log，不影響回應。
type Recorder struct {
	repo  audit.Repository
	now   func() time.Time
	newID func() string
	wg    sync.WaitGroup
}

func NewRecorder(repo audit.Repository) *Recorder {
	return &Recorder{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Record 回傳是否已排入寫入。
func (r *Recorder) Record(obs Observation) bool {
	if r == nil || r.repo == nil {
		return false
	}
	entry, ok := Classify(obs)
	if !ok || !ShouldPersist(obs.StatusCode) {
		return false
	}
	entry.ID = r.newID()
	entry.Timestamp = r.now()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := r.repo.Create(ctx, entry); err != nil {
			log.Printf("[Audit] failed to create audit log (%s %s): %v", entry.Method, entry.Endpoint, err)
		}
	}()
	return true
}

// Wait 等待所有已排入的寫入完成，關機與測試時使用。
func (r *Recorder) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}
