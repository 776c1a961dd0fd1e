package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseExpiresIn(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: "12h", want: 12 * time.Hour},
		{in: "90", want: 90 * time.Second},
		{in: "", wantErr: true},
		{in: "xd", wantErr: true},
		{in: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExpiresIn(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseExpiresIn(%q) err=%v wantErr=%v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseExpiresIn(%q)=%v want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := ApplyDefaults(Config{})
	if cfg.Auth.ExpiresIn != "7d" || cfg.Auth.TokenTTL != 7*24*time.Hour {
		t.Errorf("unexpected token defaults: %+v", cfg.Auth)
	}
	if cfg.Auth.RefreshTTL != 30*24*time.Hour {
		t.Errorf("expected 30 day refresh ttl, got %v", cfg.Auth.RefreshTTL)
	}
	if cfg.Upload.MaxSize != 50000000 {
		t.Errorf("unexpected upload max size %d", cfg.Upload.MaxSize)
	}
	if cfg.RateLimit.Max != 5 || cfg.RateLimit.Window != time.Minute {
		t.Errorf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if !cfg.RateLimit.On() {
		t.Error("rate limit should default to enabled")
	}
	if cfg.Mail.Enabled() {
		t.Error("mail should be disabled without host")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("http:\n  addr: \":9000\"\nauth:\n  expires_in: \"1d\"\ncron:\n  enabled: true\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AUTH_SECRET", "from-env")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Errorf("expected addr from yaml, got %s", cfg.HTTP.Addr)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("expected 1d token ttl, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.Secret != "from-env" {
		t.Errorf("expected env secret, got %s", cfg.Auth.Secret)
	}
	if !cfg.Cron.Enabled {
		t.Error("expected cron enabled")
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.HTTP.Addr == "" {
		t.Error("expected default addr")
	}
}

func TestLoadFromFile_RateLimitToggle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("rate_limit:\n  enabled: false\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RATE_LIMIT_ENABLED", "")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.RateLimit.On() {
		t.Error("explicit enabled: false should be kept")
	}

	t.Setenv("RATE_LIMIT_ENABLED", "true")
	cfg, err = LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if !cfg.RateLimit.On() {
		t.Error("env should override yaml")
	}
}
