package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "taskhub.yaml")
	yamlDoc := `
port: "8080"
jwt_secret: from-file
database:
  driver: sqlite
  url: file:taskhub.db
cache:
  driver: memory
  prefix: tm
  ttl: 5m
github:
  timeout: 3s
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.JWTSecret != "from-env" {
		t.Errorf("JWTSecret = %q, want env to win", cfg.JWTSecret)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.URL != "file:taskhub.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Cache.Prefix != "tm" || cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.GitHub.Timeout != 3*time.Second || cfg.GitHub.BaseURL != "https://api.github.com" {
		t.Errorf("GitHub = %+v", cfg.GitHub)
	}
	if !slices.Contains(cfg.AllowedOrigins, "https://b.example") || !slices.Contains(cfg.AllowedOrigins, "http://localhost:5173") {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	for name, testcase := range map[string]struct {
		mutate  func(*Config)
		wantErr bool
	}{
		"memory everything": {
			mutate:  func(c *Config) { c.Database.Driver = "memory" },
			wantErr: false,
		},
		"postgres without url": {
			mutate:  func(c *Config) {},
			wantErr: true,
		},
		"redis without url": {
			mutate: func(c *Config) {
				c.Database.Driver = "memory"
				c.Cache.Driver = "redis"
			},
			wantErr: true,
		},
		"unknown cache driver": {
			mutate: func(c *Config) {
				c.Database.Driver = "memory"
				c.Cache.Driver = "memcached"
			},
			wantErr: true,
		},
		"missing secret": {
			mutate: func(c *Config) {
				c.Database.Driver = "memory"
				c.JWTSecret = ""
			},
			wantErr: true,
		},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.JWTSecret = "secret"
			testcase.mutate(&cfg)

			if err := cfg.Validate(); (err != nil) != testcase.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, testcase.wantErr)
			}
		})
	}
}

func TestLoad_BadDuration(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CACHE_TTL", "ten minutes")

	if _, err := Load(); err == nil {
		t.Error("Load accepted an invalid CACHE_TTL")
	}
}
