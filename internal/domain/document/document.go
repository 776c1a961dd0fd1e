package document

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound 文件不存在。
var ErrNotFound = errors.New("document not found")

// Status 文件狀態。
type Status string

const (
	StatusDraft  Status = "draft"
	StatusSigned Status = "signed"
)

// InitialVersion 上傳建立的第一個版本號。
const InitialVersion = "1.0"

// Signature 單一使用者的簽署資訊。
type Signature struct {
	UserID        string                 `json:"userId"`
	UserEmail     string                 `json:"userEmail"`
	Signature     string                 `json:"signature"`
	SignedAt      time.Time              `json:"signedAt"`
	IPAddress     string                 `json:"ipAddress"`
	UserAgent     string                 `json:"userAgent"`
	SignatureData map[string]interface{} `json:"signatureData"`
}

// AccessEntry 下載等存取紀錄。
type AccessEntry struct {
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
}

// Document 合約相關文件。
type Document struct {
	ID                string                 `json:"id"`
	Title             string                 `json:"title"`
	Description       string                 `json:"description"`
	FileName          string                 `json:"fileName"`
	OriginalFileName  string                 `json:"originalFileName"`
	FileType          string                 `json:"fileType"`
	FileSize          int64                  `json:"fileSize"`
	FileURL           string                 `json:"fileUrl"`
	DocumentType      string                 `json:"documentType"`
	Status            Status                 `json:"status"`
	Version           string                 `json:"version"`
	ContractID        string                 `json:"contractId,omitempty"`
	UploadedBy        string                 `json:"uploadedBy"`
	Checksum          string                 `json:"checksum"`
	IsTemplate        bool                   `json:"isTemplate"`
	SignatureRequired bool                   `json:"signatureRequired"`
	SignatureStatus   map[string]Signature   `json:"signatureStatus"`
	AccessLog         []AccessEntry          `json:"accessLog"`
	Metadata          map[string]interface{} `json:"metadata"`
	CreatedAt         time.Time              `json:"createdAt"`
}

// Version 文件版本。
type Version struct {
	ID            string                 `json:"id"`
	DocumentID    string                 `json:"documentId"`
	VersionNumber string                 `json:"versionNumber"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	ChangeLog     string                 `json:"changeLog"`
	FileName      string                 `json:"fileName"`
	FileType      string                 `json:"fileType"`
	FileSize      int64                  `json:"fileSize"`
	FileURL       string                 `json:"fileUrl"`
	CreatedBy     string                 `json:"createdBy"`
	Status        Status                 `json:"status"`
	IsActive      bool                   `json:"isActive"`
	Checksum      string                 `json:"checksum"`
	VersionNotes  string                 `json:"versionNotes"`
	Metadata      map[string]interface{} `json:"metadata"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// Sign 記錄簽署並將狀態設為 signed；同一使用者重簽會覆蓋前一次。
func (d *Document) Sign(sig Signature) {
	if d.SignatureStatus == nil {
		d.SignatureStatus = make(map[string]Signature)
	}
	d.SignatureStatus[sig.UserID] = sig
	d.Status = StatusSigned
}

// RecordAccess 追加存取紀錄。
func (d *Document) RecordAccess(entry AccessEntry) {
	d.AccessLog = append(d.AccessLog, entry)
}

// Repository 文件與版本的存取。
type Repository interface {
	// CreateWithVersion 建立文件與初始版本，回傳含 ID 的文件。
	CreateWithVersion(ctx context.Context, doc Document, ver Version) (Document, Version, error)
	FindByID(ctx context.Context, id string) (Document, error)
	List(ctx context.Context, limit, offset int) ([]Document, int, error)
	UpdateSignatures(ctx context.Context, id string, signatures map[string]Signature, status Status) error
	UpdateAccessLog(ctx context.Context, id string, log []AccessEntry) error
}
