// Package config loads the service configuration.
//
// Load order:
//  1. built in defaults
//  2. .env file (secrets), existing environment variables win
//  3. YAML file
//  4. ACCOUNT_* environment variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/joho/godotenv"
	account "github.com/nightcatsama/go-account"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every override variable
const EnvPrefix = "ACCOUNT_"

var _ account.Config = (*Config)(nil)

type Config struct {
	Debug       bool   `yaml:"debug"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	LogLevel    string `yaml:"log_level"`

	SessionSecret string `yaml:"session_secret"`

	Session  SessionConfig  `yaml:"session"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Mail     MailConfig     `yaml:"mail_opts"`
}

type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`
	// TokenTTL in hours
	TokenTTL int    `yaml:"token_ttl"`
	Issuer   string `yaml:"issuer"`
	Secure   bool   `yaml:"secure"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// RedisConfig is optional, sessions stay in memory when Addr is empty
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MailConfig is optional, activation emails are only logged when Host is empty
type MailConfig struct {
	Host string   `yaml:"host"`
	Port int      `yaml:"port"`
	Auth MailAuth `yaml:"auth"`
	From string   `yaml:"from"`
}

type MailAuth struct {
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

// Defaults returns the development configuration
func Defaults() *Config {
	return &Config{
		Debug:         false,
		Host:          "localhost:8080",
		Port:          3000,
		Name:          "NightCat",
		Description:   "A site",
		LogLevel:      "info",
		SessionSecret: "modify-it",
		Session: SessionConfig{
			CookieName: "session_id",
			TokenTTL:   account.DefaultTokenExpiration,
			Issuer:     "go-account",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "file:account.db?cache=shared",
		},
		Mail: MailConfig{
			Port: 25,
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and environment are used. envFiles default to ".env".
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.SessionSecret, validation.Required),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "notice", "warning", "warn", "error", "critical")),
		validation.Field(&c.Session),
		validation.Field(&c.Database),
		validation.Field(&c.Redis),
		validation.Field(&c.Mail),
	)
}

func (s SessionConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.CookieName, validation.Required),
		validation.Field(&s.TokenTTL, validation.Min(0)),
	)
}

func (d DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In("sqlite", "sqlite3", "postgres", "postgresql", "pgx")),
		validation.Field(&d.DSN, validation.Required),
	)
}

func (r RedisConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Addr, is.DialString),
		validation.Field(&r.DB, validation.Min(0)),
	)
}

func (m MailConfig) Validate() error {
	if m.Host == "" {
		return nil
	}
	return validation.ValidateStruct(&m,
		validation.Field(&m.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&m.From, is.Email),
	)
}

func (c *Config) GetSiteName() string { return c.Name }

// GetPublicURL returns Host with a scheme, without trailing slash
func (c *Config) GetPublicURL() string {
	host := strings.TrimRight(c.Host, "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "http://" + host
}

func (c *Config) GetSessionSecret() string { return c.SessionSecret }

func (c *Config) GetTokenExpiration() int { return c.Session.TokenTTL }

func (c *Config) GetIssuer() string { return c.Session.Issuer }

func (c *Config) GetSessionKey() string { return c.Session.CookieName }

// ListenAddr is the address the HTTP server binds to
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Redacted returns a copy safe to print
func (c *Config) Redacted() Config {
	out := *c
	if out.SessionSecret != "" {
		out.SessionSecret = "******"
	}
	if out.Redis.Password != "" {
		out.Redis.Password = "******"
	}
	if out.Mail.Auth.Pass != "" {
		out.Mail.Auth.Pass = "******"
	}
	return out
}
