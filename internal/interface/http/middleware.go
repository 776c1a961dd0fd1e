package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"legal-contracts/internal/application/audit"
	authDomain "legal-contracts/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

const ctxUserKey = "user"

// 稽核 details 只需要這幾個欄位。
var auditBodyFields = []string{"identifier", "name", "data"}

// identify 有 Bearer token 時解析出使用者放進 context，失敗不擋請求。
func (s *Server) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := parseBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}
		claims, err := s.tokenSvc.ParseAccessToken(token)
		if err != nil {
			c.Next()
			return
		}
		user, err := s.users.FindByID(c.Request.Context(), claims.UserID)
		if err == nil && user.CanLogin() {
			c.Set(ctxUserKey, user)
		}
		c.Next()
	}
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUser(c); ok {
			c.Next()
			return
		}
		msg := "invalid token"
		if parseBearer(c.GetHeader("Authorization")) == "" {
			msg = "missing token"
		}
		writeError(c, http.StatusUnauthorized, errCodeUnauthorized, msg)
		c.Abort()
	}
}

// auditMiddleware 請求完成後交給 Recorder 判斷是否寫入稽核紀錄，不影響回應。
func (s *Server) auditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		body := peekJSONBody(c.Request, s.cfg.Upload.MaxSize*2)

		c.Next()

		obs := audit.Observation{
			Method:           c.Request.Method,
			URL:              c.Request.URL.RequestURI(),
			IP:               clientIP(c.Request),
			UserAgent:        c.Request.UserAgent(),
			StatusCode:       c.Writer.Status(),
			Duration:         time.Since(start),
			Body:             body,
			ContentType:      c.GetHeader("Content-Type"),
			HasAuthorization: c.GetHeader("Authorization") != "",
			RequestSize:      c.Request.ContentLength,
			ResponseSize:     max(c.Writer.Size(), 0),
		}
		if user, ok := currentUser(c); ok {
			obs.UserID = user.ID
			obs.UserEmail = user.Email
		}
		s.recorder.Record(obs)
	}
}

// peekJSONBody 讀出 JSON body 中稽核需要的欄位，並把原始內容放回供 handler 使用。
func peekJSONBody(r *http.Request, limit int64) map[string]interface{} {
	if r.Body == nil || r.Method == http.MethodGet || !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return nil
	}
	if limit <= 0 {
		limit = 1 << 20
	}
	orig := r.Body
	peeked, err := io.ReadAll(io.LimitReader(orig, limit+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(peeked), orig), orig}
	if err != nil || int64(len(peeked)) > limit {
		return nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(peeked, &raw); err != nil {
		return nil
	}
	out := make(map[string]interface{}, len(auditBodyFields))
	for _, k := range auditBodyFields {
		if v, ok := raw[k]; ok {
			out[k] = v
		}
	}
	return out
}

// clientIP 先取直接連線位址，再依序退回 X-Forwarded-For、X-Real-IP。
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" && !strings.Contains(r.RemoteAddr, ":") {
		return r.RemoteAddr
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Real-IP"))
}

func (s *Server) ginLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Printf("[HTTP] %3d | %13v | %-7s %s",
			status,
			latency,
			c.Request.Method,
			path,
		)
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(s.cfg.HTTP.CORSOrigins))
	for _, o := range s.cfg.HTTP.CORSOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := allowed[origin]; ok {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func currentUser(c *gin.Context) (authDomain.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return authDomain.User{}, false
	}
	user, ok := v.(authDomain.User)
	return user, ok
}
