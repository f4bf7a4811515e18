// Package bunstore provides a fiber.Storage on the account database so
// HTTP sessions stay server side without extra infrastructure.
package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
)

const opTimeout = 5 * time.Second

var _ fiber.Storage = (*Storage)(nil)

type sessionRecord struct {
	bun.BaseModel `bun:"table:sessions,alias:sess"`
	ID            string `bun:"id,pk"`
	Data          []byte `bun:"data,notnull"`
	ExpiresAt     int64  `bun:"expires_at,notnull"`
}

type Storage struct {
	db  bun.IDB
	now func() time.Time
}

// Option customizes the Storage
type Option func(*Storage)

// WithClock sets the clock used for expirations
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		if now != nil {
			s.now = now
		}
	}
}

// New uses the sessions table created by the embedded migrations
func New(db bun.IDB, opts ...Option) *Storage {
	s := &Storage{db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Get returns nil without error for unknown and expired keys
func (s *Storage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	record := &sessionRecord{}
	err := s.db.NewSelect().Model(record).Where("?TableAlias.id = ?", key).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if record.ExpiresAt != 0 && record.ExpiresAt <= s.now().Unix() {
		_, _ = s.db.NewDelete().Model((*sessionRecord)(nil)).Where("id = ?", key).Exec(ctx)
		return nil, nil
	}

	return record.Data, nil
}

// Set stores val, exp of zero means no expiration
func (s *Storage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	record := &sessionRecord{ID: key, Data: val}
	if exp > 0 {
		record.ExpiresAt = s.now().Add(exp).Unix()
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	return err
}

func (s *Storage) Delete(key string) error {
	if key == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := s.db.NewDelete().Model((*sessionRecord)(nil)).Where("id = ?", key).Exec(ctx)
	return err
}

// Reset removes every session
func (s *Storage) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := s.db.NewDelete().Model((*sessionRecord)(nil)).Where("1 = 1").Exec(ctx)
	return err
}

// Sweep deletes expired sessions and reports how many were removed
func (s *Storage) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*sessionRecord)(nil)).
		Where("expires_at <> 0").
		Where("expires_at <= ?", s.now().Unix()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close is a no-op, the database belongs to the caller
func (s *Storage) Close() error {
	return nil
}
