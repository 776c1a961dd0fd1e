package auth

import "errors"

// 應用層錯誤分類，HTTP 層以 errors.Is 對應狀態碼。
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("too many login attempts")
)
