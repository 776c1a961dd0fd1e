package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	auditDomain "legal-contracts/internal/domain/audit"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestAuditRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewAuditRepo(db)
	ts := time.Now()
	entry := auditDomain.Entry{
		ID:             "a-1",
		Event:          auditDomain.EventLogin,
		EntityType:     "authentication",
		IPAddress:      "10.0.0.1",
		UserAgent:      "UA",
		Method:         "POST",
		Endpoint:       "/api/auth/local",
		StatusCode:     200,
		ResponseTimeMs: 12,
		Details:        map[string]interface{}{"identifier": "jane", "success": true},
		Timestamp:      ts,
	}

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs("a-1", "auth.login", "authentication", sql.NullString{}, sql.NullString{}, sql.NullString{},
			"10.0.0.1", "UA", "POST", "/api/auth/local", 200, int64(12),
			`{"identifier":"jane","success":true}`, "{}", ts).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAuditRepo_CreateError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	repo := NewAuditRepo(db)
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnError(errors.New("boom"))
	if err := repo.Create(context.Background(), auditDomain.Entry{ID: "a-1"}); err == nil {
		t.Fatal("expected error")
	}
}
