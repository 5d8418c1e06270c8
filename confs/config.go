package confs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultSecret = "dev-secret-change-me"

// Config holds runtime settings for the articles server.
type Config struct {
	AppEnv           string         `yaml:"app_env"`
	ListenAddr       string         `yaml:"listen_addr"`
	LogLevel         string         `yaml:"log_level"`
	PasswordCost     int            `yaml:"password_cost"`
	EnforceOwnership bool           `yaml:"enforce_ownership"`
	AllowedOrigins   []string       `yaml:"cors_allowed_origins"`
	Database         DatabaseConfig `yaml:"database"`
	Session          SessionConfig  `yaml:"session"`
}

type DatabaseConfig struct {
	Driver      string `yaml:"driver"` // postgres | sqlite
	URL         string `yaml:"url"`
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Name        string `yaml:"name"`
	Path        string `yaml:"path"` // sqlite file
	LogLevel    string `yaml:"log_level"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type SessionConfig struct {
	Secret           string        `yaml:"secret"`
	CookieName       string        `yaml:"cookie_name"`
	Lifetime         time.Duration `yaml:"lifetime"`
	RememberLifetime time.Duration `yaml:"remember_lifetime"`
	CookieSecure     bool          `yaml:"cookie_secure"`
	Store            string        `yaml:"store"` // database | redis
	RedisURL         string        `yaml:"redis_url"`
}

// Default returns a development configuration backed by a local SQLite file.
func Default() *Config {
	return &Config{
		AppEnv:           "development",
		ListenAddr:       "0.0.0.0:3536",
		LogLevel:         "info",
		PasswordCost:     10,
		EnforceOwnership: true,
		Database: DatabaseConfig{
			Driver:      "sqlite",
			Path:        "articles.db",
			LogLevel:    "warn",
			AutoMigrate: true,
		},
		Session: SessionConfig{
			Secret:           defaultSecret,
			CookieName:       "articles_session",
			Lifetime:         12 * time.Hour,
			RememberLifetime: 30 * 24 * time.Hour,
			Store:            "database",
		},
	}
}

// LoadConfig builds a Config from defaults, then an optional YAML file,
// then a .env file if present, then the process environment.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not load .env: %v", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.AppEnv, "APP_ENV")
	setString(&c.ListenAddr, "LISTEN_ADDR")
	setString(&c.LogLevel, "LOG_LEVEL")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.URL, "DB_URL")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.Path, "DB_PATH")
	setString(&c.Database.LogLevel, "DB_LOG_LEVEL")

	setString(&c.Session.Secret, "SECRET_KEY")
	setString(&c.Session.CookieName, "SESSION_COOKIE")
	setString(&c.Session.Store, "SESSION_STORE")
	setString(&c.Session.RedisURL, "REDIS_URL")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}

	// DB_URL implies postgres unless a driver is set explicitly
	if os.Getenv("DB_URL") != "" && os.Getenv("DB_DRIVER") == "" {
		c.Database.Driver = "postgres"
	}

	var errs []error
	errs = append(errs,
		setBool(&c.Database.AutoMigrate, "DB_AUTO_MIGRATE"),
		setBool(&c.Session.CookieSecure, "COOKIE_SECURE"),
		setBool(&c.EnforceOwnership, "ENFORCE_OWNERSHIP"),
		setInt(&c.PasswordCost, "BCRYPT_COST"),
		setDuration(&c.Session.Lifetime, "SESSION_LIFETIME"),
		setDuration(&c.Session.RememberLifetime, "REMEMBER_LIFETIME"),
	)
	return errors.Join(errs...)
}

// Validate checks settings that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Session.Secret == "" {
		return errors.New("SECRET_KEY must not be empty")
	}
	if c.IsProduction() && c.Session.Secret == defaultSecret {
		return errors.New("SECRET_KEY must be set in production")
	}
	if c.Session.Lifetime <= 0 || c.Session.RememberLifetime <= 0 {
		return errors.New("session lifetimes must be positive")
	}
	if c.Session.CookieName == "" {
		return errors.New("SESSION_COOKIE must not be empty")
	}
	switch c.Session.Store {
	case "database":
	case "redis":
		if c.Session.RedisURL == "" {
			return errors.New("REDIS_URL is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.Session.Store)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
