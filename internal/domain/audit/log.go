package audit

import (
	"context"
	"time"
)

// Event 稽核事件種類。
type Event string

const (
	// 認證
	EventLogin          Event = "auth.login"
	EventLogout         Event = "auth.logout"
	EventRefreshToken   Event = "auth.refresh_token"
	EventPasswordReset  Event = "auth.password_reset"
	EventPasswordChange Event = "auth.password_change"

	// CRUD
	EventCreate Event = "crud.create"
	EventRead   Event = "crud.read"
	EventUpdate Event = "crud.update"
	EventDelete Event = "crud.delete"

	// 檔案
	EventFileUpload   Event = "file.upload"
	EventFileDownload Event = "file.download"
	EventFileDelete   Event = "file.delete"

	// 文件（目前分類器不會產生）
	EventDocumentSign    Event = "document.sign"
	EventDocumentApprove Event = "document.approve"
	EventDocumentReject  Event = "document.reject"

	// 使用者管理
	EventUserCreate     Event = "user.create"
	EventUserUpdate     Event = "user.update"
	EventUserDelete     Event = "user.delete"
	EventUserRoleChange Event = "user.role_change"
)

// Entry 一筆稽核紀錄，建立後不可修改。空字串欄位寫入時視為 NULL。
type Entry struct {
	ID             string
	Event          Event
	EntityType     string
	EntityID       string
	UserID         string
	UserEmail      string
	IPAddress      string
	UserAgent      string
	Method         string
	Endpoint       string
	StatusCode     int
	ResponseTimeMs int64
	Details        map[string]interface{}
	Metadata       map[string]interface{}
	Timestamp      time.Time
}

// Repository 僅提供新增（append-only）。
type Repository interface {
	Create(ctx context.Context, entry Entry) error
}
