package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()

	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.RetryBackoff != 2*time.Second {
		t.Errorf("RetryBackoff = %v, want 2s", cfg.RetryBackoff)
	}
	if cfg.HardPageLimit != 10 {
		t.Errorf("HardPageLimit = %d, want 10", cfg.HardPageLimit)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
base_url: https://shop.example.com/catalogue
max_pages: 4
retry_backoff: 500ms
cache:
  backend: memory
  ttl: 10m
sinks: [json, csv]
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MAX_PAGES", "6")
	t.Setenv("NOTIFIERS", "log, queue")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BaseURL != "https://shop.example.com/catalogue" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.MaxPages != 6 {
		t.Errorf("MaxPages = %d, want env override 6", cfg.MaxPages)
	}
	if cfg.RetryBackoff != 500*time.Millisecond {
		t.Errorf("RetryBackoff = %v, want 500ms", cfg.RetryBackoff)
	}
	if cfg.Cache.Backend != CacheBackendMemory || cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if len(cfg.Sinks) != 2 || cfg.Sinks[1] != "csv" {
		t.Errorf("Sinks = %v", cfg.Sinks)
	}
	if len(cfg.Notifiers) != 2 || cfg.Notifiers[1] != "queue" {
		t.Errorf("Notifiers = %v", cfg.Notifiers)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want default 3", cfg.MaxAttempts)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "negative max pages", modify: func(c *Config) { c.MaxPages = -1 }},
		{name: "zero attempts", modify: func(c *Config) { c.MaxAttempts = 0 }},
		{name: "zero hard limit", modify: func(c *Config) { c.HardPageLimit = 0 }},
		{name: "empty title selector", modify: func(c *Config) { c.Selectors.Title = "" }},
		{name: "unknown backend", modify: func(c *Config) { c.Cache.Backend = "memcached" }},
		{name: "unknown sink", modify: func(c *Config) { c.Sinks = []string{"s3"} }},
		{name: "unknown notifier", modify: func(c *Config) { c.Notifiers = []string{"slack"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() = nil, want error")
			}
		})
	}
}
