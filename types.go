package account

import (
	"context"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds the options the core needs
type Config interface {
	GetSiteName() string
	GetPublicURL() string
	GetSessionSecret() string
	GetTokenExpiration() int
	GetIssuer() string
	GetSessionKey() string
}

// Notifier delivers the activation email
type Notifier interface {
	SendActivationEmail(ctx context.Context, to, activationKey, account string) error
}

// CredentialHasher turns a plaintext password into the stored digest
type CredentialHasher interface {
	Hash(plaintext string) string
	HashTwice(plaintext string) string
	Equals(a, b string) bool
}

// TokenService issues and verifies session tokens bound to an account
type TokenService interface {
	Sign(account string) (string, error)
	Verify(token string) (string, error)
}

// KeyDeriver computes activation keys
type KeyDeriver interface {
	Derive(email, passwordDigest string) string
	Verify(email, passwordDigest, key string) bool
}
