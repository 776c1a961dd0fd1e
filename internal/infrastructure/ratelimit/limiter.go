package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRateLimited 超過登入失敗次數上限。
var ErrRateLimited = errors.New("rate limited")

const keyPrefix = "lc:login"

// LoginLimiter 以 Redis 固定窗口計數登入失敗次數，依識別碼與 IP 各算一份。
// client 為 nil 時所有檢查都放行；Redis 出錯時也放行並記錄。
type LoginLimiter struct {
	client redis.UniversalClient
	max    int
	window time.Duration
}

func NewLoginLimiter(client redis.UniversalClient, max int, window time.Duration) *LoginLimiter {
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &LoginLimiter{client: client, max: max, window: window}
}

// Enabled 是否實際連到 Redis。
func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.client != nil
}

// CheckLogin 目前計數已達上限時回傳 ErrRateLimited。
func (l *LoginLimiter) CheckLogin(ctx context.Context, identifier, ip string) error {
	if !l.Enabled() {
		return nil
	}
	for _, key := range keys(identifier, ip) {
		count, err := l.client.Get(ctx, key).Int64()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Printf("[RateLimit] check %s failed: %v", key, err)
			}
			continue
		}
		if count >= int64(l.max) {
			return ErrRateLimited
		}
	}
	return nil
}

// RecordFailure 累加失敗次數，第一次命中時設定 TTL。
func (l *LoginLimiter) RecordFailure(ctx context.Context, identifier, ip string) {
	if !l.Enabled() {
		return
	}
	for _, key := range keys(identifier, ip) {
		if err := l.incrementWithTTL(ctx, key); err != nil {
			log.Printf("[RateLimit] increment %s failed: %v", key, err)
		}
	}
}

// Reset 登入成功後清除識別碼的計數；IP 計數保留到窗口結束。
func (l *LoginLimiter) Reset(ctx context.Context, identifier, ip string) {
	if !l.Enabled() {
		return
	}
	if err := l.client.Del(ctx, identifierKey(identifier)).Err(); err != nil {
		log.Printf("[RateLimit] reset failed: %v", err)
	}
}

func (l *LoginLimiter) incrementWithTTL(ctx context.Context, key string) error {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("expire: %w", err)
		}
	}
	return nil
}

func keys(identifier, ip string) []string {
	out := []string{identifierKey(identifier)}
	if ip != "" && ip != "unknown" {
		out = append(out, keyPrefix+":ip:"+ip)
	}
	return out
}

func identifierKey(identifier string) string {
	return keyPrefix + ":id:" + strings.ToLower(strings.TrimSpace(identifier))
}
