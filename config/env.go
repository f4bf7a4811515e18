package config

import (
	"fmt"
	"strconv"
)

type lookupFunc func(key string) (string, bool)

type envBinding struct {
	key string
	set func(c *Config, v string) error
}

func stringVar(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func intVar(dst func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func boolVar(dst func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

var envBindings = []envBinding{
	{"DEBUG", boolVar(func(c *Config) *bool { return &c.Debug })},
	{"HOST", stringVar(func(c *Config) *string { return &c.Host })},
	{"PORT", intVar(func(c *Config) *int { return &c.Port })},
	{"NAME", stringVar(func(c *Config) *string { return &c.Name })},
	{"DESCRIPTION", stringVar(func(c *Config) *string { return &c.Description })},
	{"LOG_LEVEL", stringVar(func(c *Config) *string { return &c.LogLevel })},
	{"SESSION_SECRET", stringVar(func(c *Config) *string { return &c.SessionSecret })},
	{"SESSION_COOKIE_NAME", stringVar(func(c *Config) *string { return &c.Session.CookieName })},
	{"SESSION_TOKEN_TTL", intVar(func(c *Config) *int { return &c.Session.TokenTTL })},
	{"SESSION_ISSUER", stringVar(func(c *Config) *string { return &c.Session.Issuer })},
	{"SESSION_SECURE", boolVar(func(c *Config) *bool { return &c.Session.Secure })},
	{"DB_DRIVER", stringVar(func(c *Config) *string { return &c.Database.Driver })},
	{"DB_DSN", stringVar(func(c *Config) *string { return &c.Database.DSN })},
	{"REDIS_ADDR", stringVar(func(c *Config) *string { return &c.Redis.Addr })},
	{"REDIS_PASSWORD", stringVar(func(c *Config) *string { return &c.Redis.Password })},
	{"REDIS_DB", intVar(func(c *Config) *int { return &c.Redis.DB })},
	{"MAIL_HOST", stringVar(func(c *Config) *string { return &c.Mail.Host })},
	{"MAIL_PORT", intVar(func(c *Config) *int { return &c.Mail.Port })},
	{"MAIL_USER", stringVar(func(c *Config) *string { return &c.Mail.Auth.User })},
	{"MAIL_PASS", stringVar(func(c *Config) *string { return &c.Mail.Auth.Pass })},
	{"MAIL_FROM", stringVar(func(c *Config) *string { return &c.Mail.From })},
}

// applyEnv overrides cfg with the ACCOUNT_* variables found by lookup
func applyEnv(cfg *Config, lookup lookupFunc) error {
	for _, b := range envBindings {
		v, ok := lookup(EnvPrefix + b.key)
		if !ok {
			continue
		}
		if err := b.set(cfg, v); err != nil {
			return fmt.Errorf("env %s%s: %w", EnvPrefix, b.key, err)
		}
	}
	return nil
}
