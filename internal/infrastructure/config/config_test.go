package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("SESSION_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Session.CookieName != "taskflow.session_token" {
		t.Errorf("cookie name = %q", cfg.Session.CookieName)
	}
	if cfg.Session.ExpiresIn != 168*time.Hour {
		t.Errorf("session lifetime = %v, want 168h", cfg.Session.ExpiresIn)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("cache ttl = %v, want 5m", cfg.Cache.TTL)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("database driver = %q, want memory", cfg.Database.Driver)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CACHE_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("server port = %d, want 9000", cfg.Server.Port)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache should be enabled")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		return Config{
			App:      AppConfig{Environment: "development"},
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "postgres", Host: "localhost", Name: "taskflow"},
			Session:  SessionConfig{Secret: "s", CookieName: "c", ExpiresIn: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "unsupported database driver"},
		{"missing host", func(c *Config) { c.Database.Host = "" }, "database host is required"},
		{"memory needs no host", func(c *Config) { c.Database.Driver = "memory"; c.Database.Host = "" }, ""},
		{"default secret in production", func(c *Config) {
			c.App.Environment = "production"
			c.Session.Secret = defaultSessionSecret
		}, "default value"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server port"},
		{"zero session lifetime", func(c *Config) { c.Session.ExpiresIn = 0 }, "session lifetime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := validateConfig(&cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
