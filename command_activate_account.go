package account

import (
	"context"
)

type ActivateAccountMessage struct {
	Account string `json:"account" query:"account"`
	Key     string `json:"key" query:"key"`
}

func (e ActivateAccountMessage) Type() string { return "account.activate" }

// ActivateResult reports a successful activation
type ActivateResult struct {
	Message string
	User    *User
}

// Activate checks the key against the recomputed one and moves the
// account to active. A second activation returns ErrAlreadyActivated and
// leaves the record untouched. Persistence failures are internal errors.
func (l *Lifecycle) Activate(ctx context.Context, msg ActivateAccountMessage) (*ActivateResult, error) {
	user, err := l.repo.Users().FindByAccount(ctx, msg.Account)
	if err != nil {
		if HasTextCode(err, TextCodeUserNotFound) {
			return nil, ErrAuthFailed(TextCodeInvalidAccount, MsgInvalidAccount)
		}
		return nil, ErrInternal(err, "failed to look up account")
	}

	if !l.keys.Verify(user.Email, user.PasswordDigest, msg.Key) {
		l.emit(ctx, ActivityEvent{EventType: ActivityEventActivationFailed, Account: user.Account})
		return nil, ErrAuthFailed(TextCodeActivationMismatch, MsgActivationMismatch)
	}

	if user.IsActive() {
		return nil, ErrAlreadyActivated()
	}

	updated, err := l.stateMachine.Transition(ctx, ActorRef{ID: user.Account, Type: "user"}, user, StateActive,
		WithTransitionReason("activation link"),
		WithTransitionMetadata(map[string]any{
			"email":     user.Email,
			"key_check": "matched",
		}),
	)
	if err != nil {
		if IsAlreadyActivated(err) || IsInternal(err) {
			return nil, err
		}
		return nil, ErrInternal(err, "failed to activate account")
	}

	l.logger.Info("activated account=%s", updated.Account)

	return &ActivateResult{
		Message: MsgActivated,
		User:    updated,
	}, nil
}
