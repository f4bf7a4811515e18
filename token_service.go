package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenExpiration in hours, used when the configured value is not positive
const DefaultTokenExpiration = 24

// SessionClaims are the claims carried by a session token
type SessionClaims struct {
	jwt.RegisteredClaims
}

// TokenServiceImpl signs HS256 JWTs whose subject is the account
type TokenServiceImpl struct {
	signingKey      []byte
	tokenExpiration time.Duration
	issuer          string
	now             func() time.Time
	logger          Logger
}

var _ TokenService = (*TokenServiceImpl)(nil)

// TokenServiceOption customizes the token service
type TokenServiceOption func(*TokenServiceImpl)

// WithTokenClock injects a clock, useful in tests
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a new TokenService from cfg
func NewTokenService(cfg Config, opts ...TokenServiceOption) *TokenServiceImpl {
	hours := cfg.GetTokenExpiration()
	if hours <= 0 {
		hours = DefaultTokenExpiration
	}

	ts := &TokenServiceImpl{
		signingKey:      []byte(cfg.GetSessionSecret()),
		tokenExpiration: time.Duration(hours) * time.Hour,
		issuer:          cfg.GetIssuer(),
		now:             time.Now,
		logger:          NopLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts
}

// Sign issues a token bound to account
func (ts *TokenServiceImpl) Sign(account string) (string, error) {
	if account == "" {
		return "", ErrValidationFailed(TextCodeAccountRequired, MsgAccountRequired)
	}

	now := ts.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   account,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.tokenExpiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", ErrInternal(err, "failed to sign session token")
	}

	return signed, nil
}

// Verify returns the account the token was issued for
func (ts *TokenServiceImpl) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrTokenInvalid
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		ts.logger.Debug("session token rejected: %v", err)
		return "", ErrTokenInvalid
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}
