package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"legal-contracts/internal/application/auth"
	"legal-contracts/internal/application/document"

	"github.com/gin-gonic/gin"
)

const (
	errCodeBadRequest         = "BAD_REQUEST"
	errCodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	errCodeUnauthorized       = "AUTH_UNAUTHORIZED"
	errCodeRateLimited        = "AUTH_RATE_LIMITED"
	errCodeNotFound           = "NOT_FOUND"
	errCodeInternal           = "INTERNAL_ERROR"
)

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

func writeError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, errorResponse{
		Success:   false,
		Error:     msg,
		ErrorCode: code,
	})
}

// respondError 依應用層錯誤分類決定狀態碼；未分類的錯誤一律 500 且不外洩細節。
func respondError(c *gin.Context, err error, unauthorizedCode string) {
	switch {
	case errors.Is(err, auth.ErrBadRequest), errors.Is(err, document.ErrBadRequest):
		writeError(c, http.StatusBadRequest, errCodeBadRequest, publicMessage(err))
	case errors.Is(err, auth.ErrRateLimited):
		writeError(c, http.StatusTooManyRequests, errCodeRateLimited, publicMessage(err))
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(c, http.StatusUnauthorized, unauthorizedCode, publicMessage(err))
	case errors.Is(err, auth.ErrNotFound), errors.Is(err, document.ErrNotFound):
		writeError(c, http.StatusNotFound, errCodeNotFound, publicMessage(err))
	default:
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		writeError(c, http.StatusInternalServerError, errCodeInternal, "internal error")
	}
}

// publicMessage 去掉 sentinel 前綴，只留下給使用者看的說明。
func publicMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

func parseBearer(h string) string {
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
