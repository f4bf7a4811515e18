package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

// pgUniqueViolation is the postgres SQLSTATE for unique constraint errors
const pgUniqueViolation = "23505"

// Users is the user record store consumed by the lifecycle. Unique
// constraints on account and email are the source of truth for duplicates:
// Insert reports them as ErrConflict errors.
type Users interface {
	FindByAccount(ctx context.Context, account string) (*User, error)
	FindByAccountTx(ctx context.Context, tx bun.IDB, account string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	Insert(ctx context.Context, user *User) (*User, error)
	InsertTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	MarkActivated(ctx context.Context, id uuid.UUID, at time.Time) (*User, error)
	MarkActivatedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) (*User, error)
}

type users struct {
	repo repository.Repository[*User]
	db   *bun.DB
	now  func() time.Time
}

var _ Users = (*users)(nil)

// UsersOption customizes the users repository
type UsersOption func(*users)

// WithUsersClock sets the clock used for timestamps
func WithUsersClock(now func() time.Time) UsersOption {
	return func(u *users) {
		if now != nil {
			u.now = now
		}
	}
}

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	u := &users{
		repo: repo,
		db:   db,
		now:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	return u
}

func (a *users) FindByAccount(ctx context.Context, account string) (*User, error) {
	return a.FindByAccountTx(ctx, a.db, account)
}

func (a *users) FindByAccountTx(ctx context.Context, tx bun.IDB, account string) (*User, error) {
	return a.findBy(ctx, tx, "account", account)
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	return a.findBy(ctx, tx, "email", email)
}

func (a *users) findBy(ctx context.Context, tx bun.IDB, column, value string) (*User, error) {
	if value == "" {
		return nil, ErrUserNotFound
	}

	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Insert(ctx context.Context, user *User) (*User, error) {
	return a.InsertTx(ctx, a.db, user)
}

func (a *users) InsertTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	a.prepareUserDefaults(user)

	created, err := a.repo.CreateTx(ctx, tx, user)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, err
	}

	return created, nil
}

func (a *users) Update(ctx context.Context, user *User) (*User, error) {
	return a.UpdateTx(ctx, a.db, user)
}

func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if user == nil || user.ID == uuid.Nil {
		return nil, ErrUserNotFound
	}

	now := a.now()
	user.UpdatedAt = &now

	updated, err := a.repo.UpdateTx(ctx, tx, user, repository.UpdateByID(user.ID.String()))
	if err != nil {
		if repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return updated, nil
}

func (a *users) MarkActivated(ctx context.Context, id uuid.UUID, at time.Time) (*User, error) {
	return a.MarkActivatedTx(ctx, a.db, id, at)
}

// MarkActivatedTx flips active only while the record is still pending.
// When no row changes the account is either gone or already active.
func (a *users) MarkActivatedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) (*User, error) {
	if id == uuid.Nil {
		return nil, ErrUserNotFound
	}

	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("active = ?", true).
		Set("activated_at = ?", at).
		Set("updated_at = ?", a.now()).
		Where("id = ?", id).
		Where("active = ?", false).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	record := &User{}
	if err := tx.NewSelect().Model(record).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if affected == 0 {
		return record, ErrAlreadyActivated()
	}

	return record, nil
}

func (a *users) prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		// accounts are case sensitive, so the ID must be too
		if id, err := hashid.NewUUID(record.Account, hashid.WithNormalization(false)); err == nil {
			record.ID = id
		} else {
			record.ID = uuid.New()
		}
	}

	now := a.now()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	if record.UpdatedAt == nil {
		record.UpdatedAt = &now
	}
}

// uniqueViolation maps driver unique constraint errors to conflict errors.
// The ID is derived from the account, so a primary key clash is an account clash.
func uniqueViolation(err error) error {
	var column string

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return nil
		}
		column = pgErr.ConstraintName + " " + pgErr.Detail
	} else {
		msg := strings.ToLower(err.Error())
		if !strings.Contains(msg, "unique") && !strings.Contains(msg, "duplicate") {
			return nil
		}
		column = msg
	}

	if strings.Contains(strings.ToLower(column), "email") {
		return ErrConflict(TextCodeEmailExists, MsgEmailExists)
	}
	return ErrConflict(TextCodeAccountExists, MsgAccountExists)
}
