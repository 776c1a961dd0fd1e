package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	auditDomain "legal-contracts/internal/domain/audit"
	authDomain "legal-contracts/internal/domain/auth"
	docDomain "legal-contracts/internal/domain/document"

	"github.com/google/uuid"
)

// Store 未設定 DB_DSN 時使用的記憶體資料庫，各 repo 共用同一把鎖。
type Store struct {
	mu        sync.RWMutex
	users     map[string]authDomain.User
	sessions  map[string]authDomain.Session // id -> session
	byHash    map[string]string             // token hash -> id
	documents map[string]docDomain.Document
	versions  map[string][]docDomain.Version
	audit     []auditDomain.Entry
	now       func() time.Time
}

// NewStore 建立新的記憶體 Store 實例。
func NewStore() *Store {
	return &Store{
		users:     make(map[string]authDomain.User),
		sessions:  make(map[string]authDomain.Session),
		byHash:    make(map[string]string),
		documents: make(map[string]docDomain.Document),
		versions:  make(map[string][]docDomain.Version),
		now:       time.Now,
	}
}

func (s *Store) Users() *UserRepo         { return &UserRepo{s: s} }
func (s *Store) Sessions() *SessionRepo   { return &SessionRepo{s: s} }
func (s *Store) Documents() *DocumentRepo { return &DocumentRepo{s: s} }
func (s *Store) Audit() *AuditRepo        { return &AuditRepo{s: s} }
func (s *Store) Stats() *StatsRepo        { return &StatsRepo{s: s} }

// SeedUsers 建立示範帳號供登入測試，另含一個封鎖帳號與一個未確認帳號。
func (s *Store) SeedUsers(seed []authDomain.User, hash func(string) (string, error)) error {
	pwd, err := hash("password123")
	if err != nil {
		return err
	}
	extra := []authDomain.User{
		{Username: "blocked", Email: "blocked@example.com", FirstName: "Blocked", Role: authDomain.RoleAuthenticated, Confirmed: true, Blocked: true},
		{Username: "pending", Email: "pending@example.com", FirstName: "Pending", Role: authDomain.RoleAuthenticated},
	}
	repo := s.Users()
	for _, u := range append(append([]authDomain.User{}, seed...), extra...) {
		u.Password = pwd
		if _, err := repo.Create(context.Background(), u); err != nil && !errors.Is(err, authDomain.ErrUserExists) {
			return err
		}
	}
	return nil
}

// UserRepo 使用者帳號。
type UserRepo struct{ s *Store }

func (r *UserRepo) FindByIdentifier(ctx context.Context, identifier string) (authDomain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Matches(identifier) {
			return u, nil
		}
	}
	return authDomain.User{}, authDomain.ErrUserNotFound
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (authDomain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return authDomain.User{}, authDomain.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return authDomain.ErrUserNotFound
	}
	u.Password = passwordHash
	u.ResetPasswordToken = ""
	r.s.users[id] = u
	return nil
}

func (r *UserRepo) Create(ctx context.Context, u authDomain.User) (authDomain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) || strings.EqualFold(existing.Username, u.Username) {
			return authDomain.User{}, authDomain.ErrUserExists
		}
	}
	u.ID = uuid.NewString()
	if u.Role == "" {
		u.Role = authDomain.RoleAuthenticated
	}
	u.CreatedAt = r.s.now()
	r.s.users[u.ID] = u
	return u, nil
}

// SessionRepo 實作 auth.SessionStore。
type SessionRepo struct{ s *Store }

func (r *SessionRepo) SaveSession(ctx context.Context, sess authDomain.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.byHash[sess.TokenHash]; exists {
		return authDomain.ErrSessionExists
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	r.s.sessions[sess.ID] = sess
	r.s.byHash[sess.TokenHash] = sess.ID
	return nil
}

func (r *SessionRepo) FindActiveByHash(ctx context.Context, tokenHash string, now time.Time) (authDomain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byHash[tokenHash]
	if !ok {
		return authDomain.Session{}, authDomain.ErrSessionNotFound
	}
	sess := r.s.sessions[id]
	if !sess.Active(now) {
		return authDomain.Session{}, authDomain.ErrSessionNotFound
	}
	return sess, nil
}

func (r *SessionRepo) TouchSession(ctx context.Context, id string, usedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return authDomain.ErrSessionNotFound
	}
	sess.LastUsedAt = usedAt
	sess.UsageCount++
	r.s.sessions[id] = sess
	return nil
}

func (r *SessionRepo) RevokeByHash(ctx context.Context, tokenHash, userID string, reason authDomain.RevokeReason, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.byHash[tokenHash]
	if !ok {
		return false, nil
	}
	sess := r.s.sessions[id]
	if sess.Revoked || (userID != "" && sess.UserID != userID) {
		return false, nil
	}
	revoke(&sess, reason, at)
	r.s.sessions[id] = sess
	return true, nil
}

func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID string, reason authDomain.RevokeReason, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, sess := range r.s.sessions {
		if sess.UserID != userID || sess.Revoked {
			continue
		}
		revoke(&sess, reason, at)
		r.s.sessions[id] = sess
		n++
	}
	return n, nil
}

func (r *SessionRepo) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]authDomain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []authDomain.Session
	for _, sess := range r.s.sessions {
		if sess.UserID == userID && sess.Active(now) {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUsedAt.After(out[j].LastUsedAt)
	})
	return out, nil
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, sess := range r.s.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(r.s.sessions, id)
			delete(r.s.byHash, sess.TokenHash)
			n++
		}
	}
	return n, nil
}

func revoke(sess *authDomain.Session, reason authDomain.RevokeReason, at time.Time) {
	t := at
	sess.Revoked = true
	sess.RevokedAt = &t
	sess.RevokedReason = reason
}

// DocumentRepo 實作 document.Repository。
type DocumentRepo struct{ s *Store }

func (r *DocumentRepo) CreateWithVersion(ctx context.Context, doc docDomain.Document, ver docDomain.Version) (docDomain.Document, docDomain.Version, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	doc.ID = uuid.NewString()
	doc.CreatedAt = now
	ver.ID = uuid.NewString()
	ver.DocumentID = doc.ID
	ver.CreatedAt = now
	r.s.documents[doc.ID] = cloneDocument(doc)
	r.s.versions[doc.ID] = append(r.s.versions[doc.ID], ver)
	return doc, ver, nil
}

func (r *DocumentRepo) FindByID(ctx context.Context, id string) (docDomain.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.documents[id]
	if !ok {
		return docDomain.Document{}, docDomain.ErrNotFound
	}
	return cloneDocument(d), nil
}

func (r *DocumentRepo) List(ctx context.Context, limit, offset int) ([]docDomain.Document, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := make([]docDomain.Document, 0, len(r.s.documents))
	for _, d := range r.s.documents {
		all = append(all, cloneDocument(d))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := len(all)
	if offset >= total {
		return []docDomain.Document{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (r *DocumentRepo) UpdateSignatures(ctx context.Context, id string, signatures map[string]docDomain.Signature, status docDomain.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.documents[id]
	if !ok {
		return docDomain.ErrNotFound
	}
	d.SignatureStatus = make(map[string]docDomain.Signature, len(signatures))
	for k, v := range signatures {
		d.SignatureStatus[k] = v
	}
	d.Status = status
	r.s.documents[id] = d
	return nil
}

func (r *DocumentRepo) UpdateAccessLog(ctx context.Context, id string, log []docDomain.AccessEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.documents[id]
	if !ok {
		return docDomain.ErrNotFound
	}
	d.AccessLog = append([]docDomain.AccessEntry(nil), log...)
	r.s.documents[id] = d
	return nil
}

// Versions 測試用，回傳文件的所有版本。
func (r *DocumentRepo) Versions(id string) []docDomain.Version {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]docDomain.Version(nil), r.s.versions[id]...)
}

func cloneDocument(d docDomain.Document) docDomain.Document {
	if d.SignatureStatus != nil {
		sigs := make(map[string]docDomain.Signature, len(d.SignatureStatus))
		for k, v := range d.SignatureStatus {
			sigs[k] = v
		}
		d.SignatureStatus = sigs
	}
	d.AccessLog = append([]docDomain.AccessEntry(nil), d.AccessLog...)
	return d
}

// AuditRepo 只新增的稽核紀錄。
type AuditRepo struct{ s *Store }

func (r *AuditRepo) Create(ctx context.Context, e auditDomain.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, e)
	return nil
}

// Entries 回傳目前所有紀錄的副本。
func (r *AuditRepo) Entries() []auditDomain.Entry {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]auditDomain.Entry(nil), r.s.audit...)
}

// StatsRepo /users/me 統計；專案、合約、筆記不存在記憶體模式，固定為 0。
type StatsRepo struct{ s *Store }

func (r *StatsRepo) CountDocumentsUploaded(ctx context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, d := range r.s.documents {
		if d.UploadedBy == userID {
			n++
		}
	}
	return n, nil
}

func (r *StatsRepo) CountActiveSessions(ctx context.Context, userID string, now time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, sess := range r.s.sessions {
		if sess.UserID == userID && sess.Active(now) {
			n++
		}
	}
	return n, nil
}

func (r *StatsRepo) CountProjectsManaged(ctx context.Context, userID string) (int, error) {
	return 0, nil
}

func (r *StatsRepo) CountContractsAssigned(ctx context.Context, userID string) (int, error) {
	return 0, nil
}

func (r *StatsRepo) CountNotesCreated(ctx context.Context, userID string) (int, error) {
	return 0, nil
}
