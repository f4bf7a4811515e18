package account

import (
	"bytes"
	"crypto/sha256"
	"encoding/base32"
	"encoding/gob"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/gorilla/securecookie"
)

// SessionStore keeps Session values server side in a fiber.Storage. The
// session cookie only carries a signed and encrypted session ID.
type SessionStore struct {
	codec      *securecookie.SecureCookie
	storage    fiber.Storage
	cookieName string
	expiration time.Duration
	secure     bool
	now        func() time.Time
}

// SessionStoreConfig holds the session cookie options
type SessionStoreConfig struct {
	CookieName   string
	Expiration   time.Duration
	CookieSecure bool
	// Secret signs and encrypts the session cookie
	Secret string
	// Storage holds the sessions, e.g. storage/bunstore or storage/redis
	Storage fiber.Storage
}

func NewSessionStore(cfg SessionStoreConfig) *SessionStore {
	if cfg.Secret == "" {
		panic("Missing Secret in account session store...")
	}
	if cfg.Storage == nil {
		panic("Missing Storage in account session store...")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "session_id"
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = DefaultTokenExpiration * time.Hour
	}

	blockKey := sha256.Sum256([]byte(cfg.Secret))
	codec := securecookie.New([]byte(cfg.Secret), blockKey[:]).
		MaxAge(int(cfg.Expiration / time.Second))

	return &SessionStore{
		codec:      codec,
		storage:    cfg.Storage,
		cookieName: cfg.CookieName,
		expiration: cfg.Expiration,
		secure:     cfg.CookieSecure,
		now:        time.Now,
	}
}

// Load returns the stored session, zero when none exists. A cookie that
// fails to decode is reported as an error.
func (s *SessionStore) Load(c router.Context) (Session, error) {
	id, err := s.sessionID(c)
	if err != nil || id == "" {
		return Session{}, err
	}

	data, err := s.storage.Get(id)
	if err != nil {
		return Session{}, err
	}
	if len(data) == 0 {
		return Session{}, nil
	}

	out := Session{}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&out); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return out, nil
}

// Save stores in under the caller's session ID, a new one is issued when
// the request carries none.
func (s *SessionStore) Save(c router.Context, in Session) error {
	id, err := s.sessionID(c)
	if err != nil || id == "" {
		id = newSessionID()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(in); err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.storage.Set(id, buf.Bytes(), s.expiration); err != nil {
		return err
	}

	encoded, err := s.codec.Encode(s.cookieName, id)
	if err != nil {
		return err
	}
	s.setCookie(c, encoded, s.now().Add(s.expiration))
	return nil
}

// Destroy removes the caller's session and expires the cookie
func (s *SessionStore) Destroy(c router.Context) error {
	var err error
	if id, decodeErr := s.sessionID(c); decodeErr == nil && id != "" {
		err = s.storage.Delete(id)
	}

	s.setCookie(c, "", s.now().Add(-24*time.Hour))
	return err
}

func (s *SessionStore) sessionID(c router.Context) (string, error) {
	raw := c.Cookies(s.cookieName)
	if raw == "" {
		return "", nil
	}
	var id string
	if err := s.codec.Decode(s.cookieName, raw, &id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *SessionStore) setCookie(c router.Context, value string, expires time.Time) {
	c.Cookie(&router.Cookie{
		Name:     s.cookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: "Lax",
	})
}

func newSessionID() string {
	return strings.TrimRight(
		base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)),
		"=",
	)
}
