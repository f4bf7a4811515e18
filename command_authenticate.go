package account

import (
	"context"
)

type AuthenticateMessage struct {
	Account  string `json:"account" form:"account"`
	Password string `json:"password" form:"password"`
}

func (e AuthenticateMessage) Type() string { return "account.authenticate" }

func (e AuthenticateMessage) Validate() error {
	return runValidation(
		validationStep{TextCodeAccountRequired, MsgAccountRequired, requireAll(e.Account)},
		validationStep{TextCodePasswordRequired, MsgPasswordRequired, requireAll(e.Password)},
	)
}

// AuthResult is the success payload of Authenticate and ReVerify.
// IsAdmin comes from the record on Authenticate and from the inbound
// session on ReVerify.
type AuthResult struct {
	Message     string
	Account     string
	IsAdmin     bool
	User        ProfileView
	AccessToken string
	Token       string
	Session     Session
}

// Authenticate checks the credentials and opens a session. Pending
// accounts get the activation link again and a NotActivatedError.
func (l *Lifecycle) Authenticate(ctx context.Context, msg AuthenticateMessage) (*AuthResult, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	digest := l.hasher.HashTwice(msg.Password)

	user, err := l.repo.Users().FindByAccount(ctx, msg.Account)
	if err != nil {
		if HasTextCode(err, TextCodeUserNotFound) {
			l.loginFailed(ctx, msg.Account, TextCodeAccountNotFound)
			return nil, ErrAuthFailed(TextCodeAccountNotFound, MsgAccountNotFound)
		}
		return nil, ErrInternal(err, "failed to look up account")
	}

	if !l.hasher.Equals(digest, user.PasswordDigest) {
		l.loginFailed(ctx, msg.Account, TextCodeIncorrectPassword)
		return nil, ErrAuthFailed(TextCodeIncorrectPassword, MsgIncorrectPassword)
	}

	if !user.IsActive() {
		l.sendActivation(ctx, user)
		l.emit(ctx, ActivityEvent{EventType: ActivityEventLoginInactive, Account: user.Account})
		return nil, ErrNotActivated(user.Email)
	}

	token, err := l.tokens.Sign(user.Account)
	if err != nil {
		return nil, ErrInternal(err, "failed to issue session token")
	}

	l.emit(ctx, ActivityEvent{EventType: ActivityEventLoginSuccess, Account: user.Account})

	return &AuthResult{
		Message:     MsgLoggedIn,
		Account:     user.Account,
		IsAdmin:     user.Admin,
		User:        NewProfileView(user),
		AccessToken: user.AccessToken,
		Token:       token,
		Session: Session{
			Token:   token,
			IsAdmin: user.Admin,
		},
	}, nil
}

func (l *Lifecycle) loginFailed(ctx context.Context, account, reason string) {
	l.emit(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Account:   account,
		Metadata:  map[string]any{"reason": reason},
	})
}
