package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 儲存 HTTP API 及外部相依的執行設定。
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	DB        DBConfig        `yaml:"db"`
	Auth      AuthConfig      `yaml:"auth"`
	Upload    UploadConfig    `yaml:"upload"`
	Mail      MailConfig      `yaml:"mail"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cron      CronConfig      `yaml:"cron"`
}

type HTTPConfig struct {
	Addr        string   `yaml:"addr"`
	PublicURL   string   `yaml:"public_url"`
	FrontendURL string   `yaml:"frontend_url"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DBConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
}

type AuthConfig struct {
	// ExpiresIn 原樣回傳給前端的 access token 期限字串，例如 "7d"。
	ExpiresIn  string        `yaml:"expires_in"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
	Secret     string        `yaml:"secret"`
}

type UploadConfig struct {
	Dir     string `yaml:"dir"`
	MaxSize int64  `yaml:"max_size"`
}

type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Enabled 是否有足夠設定可寄信。
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.Port != 0
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RateLimitConfig 登入限流；Enabled 未設定時視為開啟，仍需有 Redis 才會生效。
type RateLimitConfig struct {
	Enabled *bool         `yaml:"enabled"`
	Max     int           `yaml:"max"`
	Window  time.Duration `yaml:"window"`
}

func (r RateLimitConfig) On() bool {
	return r.Enabled == nil || *r.Enabled
}

type CronConfig struct {
	Enabled       bool          `yaml:"enabled"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// LoadFromFile 從 YAML 組態檔載入設定。
func LoadFromFile(path string) (Config, error) {
	// 嘗試載入 .env 檔案（如果存在）
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyEnv(cfg)
	cfg = ApplyDefaults(cfg)
	return cfg, nil
}

// ApplyDefaults 補齊未設定的欄位；測試直接組 Config 時也會用到。
func ApplyDefaults(cfg Config) Config {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":1337"
	}
	if cfg.HTTP.FrontendURL == "" {
		cfg.HTTP.FrontendURL = "http://localhost:5173"
	}
	if len(cfg.HTTP.CORSOrigins) == 0 {
		cfg.HTTP.CORSOrigins = []string{"http://localhost:1337", "http://localhost:5173", "http://127.0.0.1:5173"}
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 5
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 2
	}
	if cfg.DB.MaxIdleTime == 0 {
		cfg.DB.MaxIdleTime = 15 * time.Minute
	}
	if cfg.Auth.ExpiresIn == "" {
		cfg.Auth.ExpiresIn = "7d"
	}
	if cfg.Auth.TokenTTL == 0 {
		ttl, err := ParseExpiresIn(cfg.Auth.ExpiresIn)
		if err != nil {
			ttl = 7 * 24 * time.Hour
		}
		cfg.Auth.TokenTTL = ttl
	}
	if cfg.Auth.RefreshTTL == 0 {
		cfg.Auth.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = "dev-secret-change-me"
	}
	if cfg.Upload.Dir == "" {
		cfg.Upload.Dir = "public/uploads"
	}
	if cfg.Upload.MaxSize == 0 {
		cfg.Upload.MaxSize = 50000000
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = "noreply@legalcontracts.com"
	}
	if cfg.RateLimit.Enabled == nil {
		on := true
		cfg.RateLimit.Enabled = &on
	}
	if cfg.RateLimit.Max == 0 {
		cfg.RateLimit.Max = 5
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = time.Minute
	}
	if cfg.Cron.SweepInterval == 0 {
		cfg.Cron.SweepInterval = 24 * time.Hour
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Addr = ":" + val
	}
	if val := os.Getenv("PUBLIC_URL"); val != "" {
		cfg.HTTP.PublicURL = val
	}
	if val := os.Getenv("FRONTEND_URL"); val != "" {
		cfg.HTTP.FrontendURL = val
		cfg.HTTP.CORSOrigins = append(cfg.HTTP.CORSOrigins, val)
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("AUTH_SECRET"); val != "" {
		cfg.Auth.Secret = val
	}
	if val := os.Getenv("API_TOKEN_EXPIRES_IN"); val != "" {
		if ttl, err := ParseExpiresIn(val); err == nil {
			cfg.Auth.ExpiresIn = val
			cfg.Auth.TokenTTL = ttl
		}
	}
	if val := os.Getenv("UPLOAD_DIR"); val != "" {
		cfg.Upload.Dir = val
	}
	if val := os.Getenv("MAX_FILE_SIZE"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Upload.MaxSize = n
		}
	}
	if val := os.Getenv("SMTP_HOST"); val != "" {
		cfg.Mail.Host = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Mail.Port = n
		}
	}
	if val := os.Getenv("SMTP_USERNAME"); val != "" {
		cfg.Mail.Username = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		cfg.Mail.Password = val
	}
	if val := os.Getenv("SMTP_FROM"); val != "" {
		cfg.Mail.From = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("RATE_LIMIT_ENABLED"); val != "" {
		on := val == "true"
		cfg.RateLimit.Enabled = &on
	}
	if val := os.Getenv("CRON_ENABLED"); val != "" {
		cfg.Cron.Enabled = (val == "true")
	}
	return cfg
}

// ParseExpiresIn 解析 "7d"、"12h"、"30m" 這類期限字串；純數字視為秒。
func ParseExpiresIn(val string) (time.Duration, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	if strings.HasSuffix(val, "d") {
		n, err := strconv.Atoi(strings.TrimSuffix(val, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", val)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", val)
	}
	return d, nil
}
