package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	docDomain "legal-contracts/internal/domain/document"
)

// DocumentRepo 文件與版本的 Postgres 實作。
type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = `id, title, description, file_name, original_file_name, file_type, file_size, file_url,
       document_type, status, version, COALESCE(contract_id::text, ''), COALESCE(uploaded_by::text, ''), checksum,
       is_template, signature_required, signature_status, access_log, metadata, created_at`

// CreateWithVersion 同一個 transaction 內建立文件與初始版本。
func (r *DocumentRepo) CreateWithVersion(ctx context.Context, doc docDomain.Document, ver docDomain.Version) (docDomain.Document, docDomain.Version, error) {
	sigs, err := jsonValue(doc.SignatureStatus, "{}")
	if err != nil {
		return docDomain.Document{}, docDomain.Version{}, err
	}
	access, err := jsonValue(doc.AccessLog, "[]")
	if err != nil {
		return docDomain.Document{}, docDomain.Version{}, err
	}
	meta, err := jsonValue(doc.Metadata, "{}")
	if err != nil {
		return docDomain.Document{}, docDomain.Version{}, err
	}
	verMeta, err := jsonValue(ver.Metadata, "{}")
	if err != nil {
		return docDomain.Document{}, docDomain.Version{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return docDomain.Document{}, docDomain.Version{}, err
	}
	defer tx.Rollback()

	const insertDoc = `
INSERT INTO documents (title, description, file_name, original_file_name, file_type, file_size, file_url,
                       document_type, status, version, contract_id, uploaded_by, checksum, is_template,
                       signature_required, signature_status, access_log, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16::jsonb, $17::jsonb, $18::jsonb)
RETURNING id, created_at;
`
	if err := tx.QueryRowContext(ctx, insertDoc,
		doc.Title, doc.Description, doc.FileName, doc.OriginalFileName, doc.FileType, doc.FileSize, doc.FileURL,
		doc.DocumentType, string(doc.Status), doc.Version, nullableString(doc.ContractID), nullableString(doc.UploadedBy),
		doc.Checksum, doc.IsTemplate, doc.SignatureRequired, sigs, access, meta,
	).Scan(&doc.ID, &doc.CreatedAt); err != nil {
		return docDomain.Document{}, docDomain.Version{}, fmt.Errorf("insert document: %w", err)
	}

	const insertVer = `
INSERT INTO document_versions (document_id, version_number, title, description, change_log, file_name, file_type,
                               file_size, file_url, created_by, status, is_active, checksum, version_notes, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15::jsonb)
RETURNING id, created_at;
`
	ver.DocumentID = doc.ID
	if err := tx.QueryRowContext(ctx, insertVer,
		ver.DocumentID, ver.VersionNumber, ver.Title, ver.Description, ver.ChangeLog, ver.FileName, ver.FileType,
		ver.FileSize, ver.FileURL, nullableString(ver.CreatedBy), string(ver.Status), ver.IsActive, ver.Checksum,
		ver.VersionNotes, verMeta,
	).Scan(&ver.ID, &ver.CreatedAt); err != nil {
		return docDomain.Document{}, docDomain.Version{}, fmt.Errorf("insert document version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return docDomain.Document{}, docDomain.Version{}, err
	}
	return doc, ver, nil
}

// FindByID 依 ID 讀取文件。
func (r *DocumentRepo) FindByID(ctx context.Context, id string) (docDomain.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1;`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return docDomain.Document{}, docDomain.ErrNotFound
	}
	return d, err
}

// List 依建立時間由新到舊分頁列出，並回傳總數。
func (r *DocumentRepo) List(ctx context.Context, limit, offset int) ([]docDomain.Document, int, error) {
	q := `SELECT ` + documentColumns + `
FROM documents
ORDER BY created_at DESC
LIMIT $1 OFFSET $2;`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []docDomain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM documents;`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateSignatures 覆寫簽署資訊與狀態。
func (r *DocumentRepo) UpdateSignatures(ctx context.Context, id string, signatures map[string]docDomain.Signature, status docDomain.Status) error {
	sigs, err := jsonValue(signatures, "{}")
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE documents SET signature_status = $2::jsonb, status = $3, updated_at = NOW() WHERE id = $1;`,
		id, sigs, string(status))
	if err != nil {
		return err
	}
	return expectAffected(res, docDomain.ErrNotFound)
}

// UpdateAccessLog 覆寫存取紀錄。
func (r *DocumentRepo) UpdateAccessLog(ctx context.Context, id string, log []docDomain.AccessEntry) error {
	access, err := jsonValue(log, "[]")
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE documents SET access_log = $2::jsonb, updated_at = NOW() WHERE id = $1;`, id, access)
	if err != nil {
		return err
	}
	return expectAffected(res, docDomain.ErrNotFound)
}

func scanDocument(row rowScanner) (docDomain.Document, error) {
	var d docDomain.Document
	var status string
	var sigs, access, meta []byte
	if err := row.Scan(&d.ID, &d.Title, &d.Description, &d.FileName, &d.OriginalFileName, &d.FileType, &d.FileSize,
		&d.FileURL, &d.DocumentType, &status, &d.Version, &d.ContractID, &d.UploadedBy, &d.Checksum, &d.IsTemplate,
		&d.SignatureRequired, &sigs, &access, &meta, &d.CreatedAt); err != nil {
		return docDomain.Document{}, err
	}
	d.Status = docDomain.Status(status)
	if err := scanJSON(sigs, &d.SignatureStatus); err != nil {
		return docDomain.Document{}, err
	}
	if err := scanJSON(access, &d.AccessLog); err != nil {
		return docDomain.Document{}, err
	}
	if err := scanJSON(meta, &d.Metadata); err != nil {
		return docDomain.Document{}, err
	}
	return d, nil
}
