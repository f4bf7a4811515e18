package account

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/uptrace/bun"
)

type RegisterAccountMessage struct {
	Account    string `json:"account" form:"account"`
	Password   string `json:"password" form:"password"`
	RePassword string `json:"repassword" form:"repassword"`
	Email      string `json:"email" form:"email"`
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// Validate runs the shape checks in order, the first failure wins.
// Lengths are in bytes.
func (e RegisterAccountMessage) Validate() error {
	return runValidation(
		validationStep{TextCodeIncomplete, MsgIncomplete,
			requireAll(e.Account, e.Password, e.RePassword, e.Email)},
		validationStep{TextCodeAccountLength, MsgAccountLength,
			rules(e.Account, validation.Length(6, 20))},
		validationStep{TextCodePasswordTooShort, MsgPasswordTooShort,
			rules(e.Password, validation.Length(6, 0))},
		validationStep{TextCodeAccountNotAlphanumeric, MsgAccountNotAlphanumeric,
			rules(e.Account, is.Alphanumeric)},
		validationStep{TextCodeInvalidEmail, MsgInvalidEmail,
			rules(e.Email, is.Email)},
		validationStep{TextCodePasswordMismatch, MsgPasswordMismatch,
			rules(e.RePassword, validation.By(ValidateStringEquals(e.Password)))},
	)
}

// RegisterResult acknowledges a registration
type RegisterResult struct {
	Message string
	User    *User
}

// Register creates a pending account and mails the activation link. The
// exists checks are a fast path; the unique constraints decide races.
func (l *Lifecycle) Register(ctx context.Context, msg RegisterAccountMessage) (*RegisterResult, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	user := &User{
		Account:        msg.Account,
		Email:          msg.Email,
		PasswordDigest: l.hasher.HashTwice(msg.Password),
	}

	err := l.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		users := l.repo.Users()

		if _, err := users.FindByAccountTx(ctx, tx, msg.Account); err == nil {
			return ErrConflict(TextCodeAccountExists, MsgAccountExists)
		} else if !HasTextCode(err, TextCodeUserNotFound) {
			return ErrInternal(err, "failed to look up account")
		}

		if _, err := users.FindByEmailTx(ctx, tx, msg.Email); err == nil {
			return ErrConflict(TextCodeEmailExists, MsgEmailExists)
		} else if !HasTextCode(err, TextCodeUserNotFound) {
			return ErrInternal(err, "failed to look up email")
		}

		created, err := users.InsertTx(ctx, tx, user)
		if err != nil {
			if IsConflict(err) {
				return err
			}
			return ErrInternal(err, "failed to create account")
		}
		if created != nil {
			user = created
		}
		return nil
	})

	if err != nil {
		l.logger.Debug("register account=%s rejected: %v", msg.Account, err)
		return nil, err
	}

	l.logger.Info("registered account=%s", user.Account)
	l.emit(ctx, ActivityEvent{
		EventType: ActivityEventRegistered,
		Account:   user.Account,
		FromState: StateUnregistered,
		ToState:   StatePendingActivation,
	})

	l.sendActivation(ctx, user)

	return &RegisterResult{
		Message: fmt.Sprintf("welcome to %s! an activation link was sent to your email, follow it to activate your account", l.cfg.GetSiteName()),
		User:    user,
	}, nil
}
