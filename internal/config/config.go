package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Database struct {
	// Driver is one of "postgres", "sqlite" or "memory".
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

type Cache struct {
	// Driver is one of "memory" or "redis".
	Driver   string        `yaml:"driver"`
	RedisURL string        `yaml:"redis_url"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type GitHub struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type Config struct {
	Port           string   `yaml:"port"`
	JWTSecret      string   `yaml:"jwt_secret"`
	Domain         string   `yaml:"domain"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Database       Database `yaml:"database"`
	Cache          Cache    `yaml:"cache"`
	GitHub         GitHub   `yaml:"github"`
}

// Default origins for development
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

func Default() Config {
	return Config{
		Port:           "3000",
		AllowedOrigins: append([]string(nil), defaultOrigins...),
		Database: Database{
			Driver: "postgres",
		},
		Cache: Cache{
			Driver: "memory",
			Prefix: "taskhub",
			TTL:    600 * time.Second,
		},
		GitHub: GitHub{
			BaseURL: "https://api.github.com",
			Timeout: 10 * time.Second,
		},
	}
}

// Load reads .env (when present), then the YAML file named by CONFIG_FILE
// (when set), then environment variables. Later sources win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading .env: %w", err)
		}
		log.Println("No .env file found, using environment")
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.Domain, "DOMAIN")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Cache.Driver, "CACHE_DRIVER")
	setString(&c.Cache.RedisURL, "REDIS_URL")
	setString(&c.Cache.Prefix, "CACHE_PREFIX")
	setString(&c.GitHub.BaseURL, "GITHUB_API_URL")
	setString(&c.GitHub.Token, "GITHUB_TOKEN")

	if err := setDuration(&c.Cache.TTL, "CACHE_TTL"); err != nil {
		return err
	}
	if err := setDuration(&c.GitHub.Timeout, "GITHUB_TIMEOUT"); err != nil {
		return err
	}

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		c.AllowedOrigins = append(c.AllowedOrigins, clientURL)
	}

	if allowedOrigins := os.Getenv("ALLOWED_ORIGINS"); allowedOrigins != "" {
		for _, origin := range strings.Split(allowedOrigins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, trimmed)
			}
		}
	}

	return nil
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for driver %s", c.Database.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis cache")
		}
	default:
		return fmt.Errorf("unsupported cache driver: %s", c.Cache.Driver)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}

	*dst = d
	return nil
}
