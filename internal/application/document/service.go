package document

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"regexp"
	"strconv"
	"strings"
	"time"

	"legal-contracts/internal/domain/document"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
)

var dataURIPattern = regexp.MustCompile(`^data:([a-zA-Z0-9]+/[a-zA-Z0-9\-.+]+);base64,(.+)$`)

// 常見類型固定副檔名，其他交給 mime 套件。
var preferredExt = map[string]string{
	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"application/vnd.ms-excel": "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "xlsx",
	"application/zip": "zip",
	"application/json": "json",
	"text/plain":       "txt",
	"text/csv":         "csv",
	"image/png":        "png",
	"image/jpeg":       "jpeg",
	"image/gif":        "gif",
}

// FileStore 上傳檔案的儲存位置。
type FileStore interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (io.ReadCloser, error)
	Remove(name string) error
}

// Service 文件上傳、簽署、下載。
type Service struct {
	repo    document.Repository
	files   FileStore
	maxSize int64
	now     func() time.Time
	randHex func() (string, error)
}

func NewService(repo document.Repository, files FileStore, maxSize int64) *Service {
	return &Service{
		repo:    repo,
		files:   files,
		maxSize: maxSize,
		now:     time.Now,
		randHex: randomHex,
	}
}

// Actor 執行操作的使用者與連線資訊。
type Actor struct {
	UserID    string
	UserEmail string
	IP        string
	UserAgent string
}

type UploadInput struct {
	Name         string
	Data         string
	ContractID   string
	Description  string
	DocumentType string
	Actor        Actor
}

type UploadResult struct {
	Document document.Document
	Version  document.Version
	FileSize int64
	Checksum string
}

// UploadBase64 解析 data URI，存檔後建立文件與 1.0 版本。
func (s *Service) UploadBase64(ctx context.Context, in UploadInput) (UploadResult, error) {
	var out UploadResult
	if in.Actor.UserID == "" {
		return out, fmt.Errorf("%w: authentication required", ErrBadRequest)
	}
	if strings.TrimSpace(in.Name) == "" || in.Data == "" {
		return out, fmt.Errorf("%w: name and data are required", ErrBadRequest)
	}
	m := dataURIPattern.FindStringSubmatch(in.Data)
	if m == nil {
		return out, fmt.Errorf("%w: invalid base64 data format", ErrBadRequest)
	}
	mimeType, encoded := m[1], m[2]
	raw, err := decodeBase64(encoded)
	if err != nil {
		return out, fmt.Errorf("%w: invalid base64 data format", ErrBadRequest)
	}
	size := int64(len(raw))
	if s.maxSize > 0 && size > s.maxSize {
		return out, fmt.Errorf("%w: file exceeds maximum size of %d bytes", ErrBadRequest, s.maxSize)
	}

	now := s.now()
	suffix, err := s.randHex()
	if err != nil {
		return out, fmt.Errorf("generate file name: %w", err)
	}
	fileName := strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix + "." + extensionFor(mimeType)
	fileURL, err := s.files.Save(fileName, raw)
	if err != nil {
		return out, fmt.Errorf("store file: %w", err)
	}
	sum := sha256.Sum256(raw)
	checksum := hex.EncodeToString(sum[:])

	ratio := 0.0
	if len(encoded) > 0 {
		ratio = float64(size) / float64(len(encoded))
	}
	docType := in.DocumentType
	if docType == "" {
		docType = "contract"
	}

	doc := document.Document{
		Title:            in.Name,
		Description:      in.Description,
		FileName:         fileName,
		OriginalFileName: in.Name,
		FileType:         mimeType,
		FileSize:         size,
		FileURL:          fileURL,
		DocumentType:     docType,
		Status:           document.StatusDraft,
		Version:          document.InitialVersion,
		ContractID:       in.ContractID,
		UploadedBy:       in.Actor.UserID,
		Checksum:         checksum,
		SignatureStatus:  map[string]document.Signature{},
		AccessLog:        []document.AccessEntry{},
		Metadata: map[string]interface{}{
			"uploadMethod":     "base64",
			"originalSize":     len(encoded),
			"compressionRatio": ratio,
			"uploadTimestamp":  now.UTC().Format(time.RFC3339Nano),
		},
	}
	ver := document.Version{
		VersionNumber: document.InitialVersion,
		Title:         in.Name,
		Description:   "Initial version uploaded via base64",
		ChangeLog:     "Document created via base64 upload",
		FileName:      fileName,
		FileType:      mimeType,
		FileSize:      size,
		FileURL:       fileURL,
		CreatedBy:     in.Actor.UserID,
		Status:        document.StatusDraft,
		IsActive:      true,
		Checksum:      checksum,
		VersionNotes:  "Initial upload",
		Metadata: map[string]interface{}{
			"uploadMethod":     "base64",
			"originalSize":     len(encoded),
			"compressionRatio": ratio,
		},
	}
	doc, ver, err = s.repo.CreateWithVersion(ctx, doc, ver)
	if err != nil {
		if rmErr := s.files.Remove(fileName); rmErr != nil {
			log.Printf("[Document] remove orphaned file %s failed: %v", fileName, rmErr)
		}
		return out, fmt.Errorf("create document: %w", err)
	}
	log.Printf("[Document] uploaded via base64: %s by user %s", in.Name, in.Actor.UserEmail)

	out.Document = doc
	out.Version = ver
	out.FileSize = size
	out.Checksum = checksum
	return out, nil
}

type SignInput struct {
	DocumentID    string
	Signature     string
	SignatureData map[string]interface{}
	Actor         Actor
}

// Sign 記錄呼叫者的簽署並將文件狀態設為 signed。
func (s *Service) Sign(ctx context.Context, in SignInput) (document.Document, time.Time, error) {
	if in.Actor.UserID == "" {
		return document.Document{}, time.Time{}, fmt.Errorf("%w: authentication required", ErrBadRequest)
	}
	doc, err := s.get(ctx, in.DocumentID)
	if err != nil {
		return document.Document{}, time.Time{}, err
	}
	signedAt := s.now()
	doc.Sign(document.Signature{
		UserID:        in.Actor.UserID,
		UserEmail:     in.Actor.UserEmail,
		Signature:     in.Signature,
		SignedAt:      signedAt,
		IPAddress:     in.Actor.IP,
		UserAgent:     in.Actor.UserAgent,
		SignatureData: in.SignatureData,
	})
	if err := s.repo.UpdateSignatures(ctx, doc.ID, doc.SignatureStatus, doc.Status); err != nil {
		return document.Document{}, time.Time{}, fmt.Errorf("update signatures: %w", err)
	}
	log.Printf("[Document] signed: %s by user %s", doc.Title, in.Actor.UserEmail)
	return doc, signedAt, nil
}

// Download 開啟檔案並追加存取紀錄；呼叫端負責關閉 reader。
func (s *Service) Download(ctx context.Context, id string, actor Actor) (document.Document, io.ReadCloser, error) {
	doc, err := s.get(ctx, id)
	if err != nil {
		return document.Document{}, nil, err
	}
	rc, err := s.files.Open(doc.FileName)
	if err != nil {
		log.Printf("[Document] file not found on disk: %s: %v", doc.FileName, err)
		return document.Document{}, nil, fmt.Errorf("%w: file not found on server", ErrNotFound)
	}
	doc.RecordAccess(document.AccessEntry{
		UserID:    actor.UserID,
		UserEmail: actor.UserEmail,
		Action:    "download",
		Timestamp: s.now(),
		IPAddress: actor.IP,
		UserAgent: actor.UserAgent,
	})
	if err := s.repo.UpdateAccessLog(ctx, doc.ID, doc.AccessLog); err != nil {
		rc.Close()
		return document.Document{}, nil, fmt.Errorf("update access log: %w", err)
	}
	log.Printf("[Document] downloaded: %s by user %s", doc.Title, actor.UserEmail)
	return doc, rc, nil
}

// Get 讀取單一文件。
func (s *Service) Get(ctx context.Context, id string) (document.Document, error) {
	return s.get(ctx, id)
}

// List 分頁列出文件，page 從 1 開始。
func (s *Service) List(ctx context.Context, page, pageSize int) ([]document.Document, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 25
	}
	docs, total, err := s.repo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	return docs, total, nil
}

func (s *Service) get(ctx context.Context, id string) (document.Document, error) {
	if strings.TrimSpace(id) == "" {
		return document.Document{}, fmt.Errorf("%w: document id is required", ErrBadRequest)
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return document.Document{}, fmt.Errorf("%w: document not found", ErrNotFound)
		}
		return document.Document{}, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func extensionFor(mimeType string) string {
	if ext, ok := preferredExt[strings.ToLower(mimeType)]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "bin"
}

func randomHex() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
