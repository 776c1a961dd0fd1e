package audit

import (
	"net/http"
	"strings"
	"time"

	"legal-contracts/internal/domain/audit"
)

// Observation 一個請求完成後可供稽核的資訊。
type Observation struct {
	Method    string
	URL       string
	UserID    string
	UserEmail string
	IP        string
	UserAgent string

	StatusCode int
	Duration   time.Duration

	// Body 只保留 identifier、name、data 等需要寫入 details 的欄位。
	Body map[string]interface{}

	ContentType      string
	HasAuthorization bool
	RequestSize      int64
	ResponseSize     int
}

// ShouldPersist 成功請求與 401/403 才寫入。
func ShouldPersist(status int) bool {
	return status < http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden
}

// Classify 依 URL 與 HTTP method 判斷事件類型；第二個回傳值為 false 表示不需稽核。
func Classify(obs Observation) (audit.Entry, bool) {
	path := obs.URL
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	method := strings.ToUpper(obs.Method)
	entityType, entityID := entityFromPath(path)
	success := obs.StatusCode == http.StatusOK

	e := audit.Entry{Details: map[string]interface{}{}}
	switch {
	case strings.Contains(path, "/auth/local") && method == http.MethodPost:
		e.Event = audit.EventLogin
		e.EntityType, entityID = "authentication", ""
		e.Details["identifier"] = obs.Body["identifier"]
		e.Details["success"] = success
	case strings.Contains(path, "/auth/refresh"):
		e.Event = audit.EventRefreshToken
		e.EntityType, entityID = "authentication", ""
		e.Details["success"] = success
	case strings.Contains(path, "/auth/logout"):
		e.Event = audit.EventLogout
		e.EntityType, entityID = "authentication", ""
		e.Details["success"] = success
	case strings.Contains(path, "/upload-base64"):
		e.Event = audit.EventFileUpload
		e.EntityType, entityID = "document", ""
		e.Details["fileName"] = obs.Body["name"]
		if data, ok := obs.Body["data"].(string); ok {
			e.Details["fileSize"] = len(data)
		} else {
			e.Details["fileSize"] = nil
		}
		e.Details["success"] = success
	case strings.Contains(path, "/generate-password"):
		e.Event = audit.EventPasswordReset
		e.EntityType = "user"
		e.Details["targetUserId"] = nullable(entityID)
		e.Details["success"] = success
	default:
		switch method {
		case http.MethodPost:
			e.Event = audit.EventCreate
		case http.MethodGet:
			if strings.Contains(path, "/me") {
				return audit.Entry{}, false
			}
			e.Event = audit.EventRead
		case http.MethodPut:
			e.Event = audit.EventUpdate
		case http.MethodDelete:
			e.Event = audit.EventDelete
		default:
			return audit.Entry{}, false
		}
		e.EntityType = entityType
	}
	if e.EntityType == "" {
		e.EntityType = "unknown"
	}

	e.EntityID = entityID
	e.UserID = obs.UserID
	e.UserEmail = obs.UserEmail
	e.IPAddress = orUnknown(obs.IP)
	e.UserAgent = orUnknown(obs.UserAgent)
	e.Method = method
	e.Endpoint = obs.URL
	e.StatusCode = obs.StatusCode
	e.ResponseTimeMs = obs.Duration.Milliseconds()
	e.Metadata = metadata(obs)
	return e, true
}

// entityFromPath 取 "api" 之後的第一段為實體類型（轉單數），第二段為 ID。
func entityFromPath(path string) (string, string) {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p != "api" {
			continue
		}
		var typ, id string
		if i+1 < len(parts) {
			typ = singular(parts[i+1])
		}
		if i+2 < len(parts) {
			id = parts[i+2]
		}
		return typ, id
	}
	return "", ""
}

func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies") && len(s) > 3:
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "ss"):
		return s
	case strings.HasSuffix(s, "s") && len(s) > 1:
		return s[:len(s)-1]
	}
	return s
}

func metadata(obs Observation) map[string]interface{} {
	headers := map[string]interface{}{
		"content-type":  nullable(obs.ContentType),
		"authorization": nil,
	}
	if obs.HasAuthorization {
		headers["authorization"] = "[REDACTED]"
	}
	size := obs.RequestSize
	if size < 0 {
		size = 0
	}
	return map[string]interface{}{
		"requestHeaders": headers,
		"requestSize":    size,
		"responseSize":   obs.ResponseSize,
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
