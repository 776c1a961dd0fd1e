package postgres

import (
	"context"
	"database/sql"

	auditDomain "legal-contracts/internal/domain/audit"
)

// AuditRepo 只新增不修改的稽核紀錄。
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Create 寫入一筆 audit_logs。
func (r *AuditRepo) Create(ctx context.Context, e auditDomain.Entry) error {
	details, err := jsonValue(e.Details, "{}")
	if err != nil {
		return err
	}
	metadata, err := jsonValue(e.Metadata, "{}")
	if err != nil {
		return err
	}
	const q = `
INSERT INTO audit_logs (id, event, entity_type, entity_id, user_id, user_email, ip_address, user_agent,
                        method, endpoint, status_code, response_time_ms, details, metadata, timestamp)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb, $14::jsonb, $15);
`
	_, err = r.db.ExecContext(ctx, q,
		e.ID, string(e.Event), e.EntityType, nullableString(e.EntityID), nullableString(e.UserID), nullableString(e.UserEmail),
		e.IPAddress, e.UserAgent, e.Method, e.Endpoint, e.StatusCode, e.ResponseTimeMs, details, metadata, e.Timestamp,
	)
	return err
}
