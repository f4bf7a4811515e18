package account

import (
	"context"
)

// ReVerify checks the token held by the inbound session and reloads the
// account. Every failure is reported as the same generic error.
func (l *Lifecycle) ReVerify(ctx context.Context, in Session) (*AuthResult, error) {
	account, err := l.tokens.Verify(in.Token)
	if err != nil {
		l.logger.Debug("session token rejected: %v", err)
		l.emit(ctx, ActivityEvent{EventType: ActivityEventSessionRejected})
		return nil, ErrAuthFailed(TextCodeAuthenticationFailed, MsgAuthenticationFailed)
	}

	user, err := l.repo.Users().FindByAccount(ctx, account)
	if err != nil {
		if !HasTextCode(err, TextCodeUserNotFound) {
			l.logger.Error("re-verify account=%s lookup: %v", account, err)
		}
		l.emit(ctx, ActivityEvent{EventType: ActivityEventSessionRejected, Account: account})
		return nil, ErrAuthFailed(TextCodeAuthenticationFailed, MsgAuthenticationFailed)
	}

	l.emit(ctx, ActivityEvent{EventType: ActivityEventSessionVerified, Account: user.Account})

	return &AuthResult{
		Message:     MsgLoggedIn,
		Account:     user.Account,
		IsAdmin:     in.IsAdmin,
		User:        NewProfileView(user),
		AccessToken: user.AccessToken,
		Token:       in.Token,
		Session: Session{
			Token:   in.Token,
			IsAdmin: in.IsAdmin,
		},
	}, nil
}
