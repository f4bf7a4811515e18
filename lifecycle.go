package account

import (
	"context"
	"net/url"
)

// Lifecycle orchestrates registration, login, session re-verification,
// activation and sign out.
type Lifecycle struct {
	cfg          Config
	repo         RepositoryManager
	hasher       CredentialHasher
	keys         KeyDeriver
	tokens       TokenService
	notifier     Notifier
	stateMachine AccountStateMachine
	activitySink ActivitySink
	logger       Logger
}

// LifecycleOption customizes the Lifecycle
type LifecycleOption func(*Lifecycle)

func WithHasher(h CredentialHasher) LifecycleOption {
	return func(l *Lifecycle) {
		if h != nil {
			l.hasher = h
		}
	}
}

func WithKeyDeriver(k KeyDeriver) LifecycleOption {
	return func(l *Lifecycle) {
		if k != nil {
			l.keys = k
		}
	}
}

func WithTokenService(ts TokenService) LifecycleOption {
	return func(l *Lifecycle) {
		if ts != nil {
			l.tokens = ts
		}
	}
}

func WithNotifier(n Notifier) LifecycleOption {
	return func(l *Lifecycle) {
		if n != nil {
			l.notifier = n
		}
	}
}

func WithStateMachine(sm AccountStateMachine) LifecycleOption {
	return func(l *Lifecycle) {
		if sm != nil {
			l.stateMachine = sm
		}
	}
}

func WithActivitySink(sink ActivitySink) LifecycleOption {
	return func(l *Lifecycle) {
		l.activitySink = normalizeActivitySink(sink)
	}
}

func WithLogger(logger Logger) LifecycleOption {
	return func(l *Lifecycle) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLifecycle wires the default hasher, key deriver and token service
// from cfg unless options replace them.
func NewLifecycle(cfg Config, repo RepositoryManager, opts ...LifecycleOption) *Lifecycle {
	if repo == nil {
		panic("missing RepositoryManager in account lifecycle")
	}

	l := &Lifecycle{
		cfg:          cfg,
		repo:         repo,
		hasher:       MD5Hasher{},
		activitySink: noopActivitySink{},
		logger:       NopLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	if l.keys == nil {
		l.keys = NewActivationKeyDeriver(cfg, l.hasher)
	}
	if l.tokens == nil {
		l.tokens = NewTokenService(cfg, WithTokenLogger(l.logger))
	}
	if l.notifier == nil {
		l.notifier = NotifierFunc(func(context.Context, string, string, string) error { return nil })
	}
	if l.stateMachine == nil {
		l.stateMachine = NewAccountStateMachine(repo.Users(),
			WithStateMachineActivitySink(l.activitySink),
			WithStateMachineLogger(l.logger),
		)
	}

	return l
}

// SignOutResult is returned by SignOut
type SignOutResult struct {
	Message string
	Session Session
}

// SignOut always succeeds. The returned session is empty, the caller
// destroys the stored one.
func (l *Lifecycle) SignOut(ctx context.Context, in Session) *SignOutResult {
	if in.Token != "" {
		if account, err := l.tokens.Verify(in.Token); err == nil {
			l.emit(ctx, ActivityEvent{EventType: ActivityEventSignOut, Account: account})
		}
	}
	return &SignOutResult{Message: MsgSignedOut}
}

// ActivationLink builds the link mailed to the user
func ActivationLink(baseURL, account, key string) string {
	q := url.Values{}
	q.Set("key", key)
	q.Set("account", account)
	return baseURL + "/api/active_account?" + q.Encode()
}

// sendActivation derives the key for user and hands it to the notifier.
// Notifier errors are logged only.
func (l *Lifecycle) sendActivation(ctx context.Context, user *User) {
	key := l.keys.Derive(user.Email, user.PasswordDigest)
	if err := l.notifier.SendActivationEmail(ctx, user.Email, key, user.Account); err != nil {
		l.logger.Error("activation email account=%s: %v", user.Account, err)
		l.emit(ctx, ActivityEvent{
			EventType: ActivityEventNotificationError,
			Account:   user.Account,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return
	}
	l.emit(ctx, ActivityEvent{EventType: ActivityEventActivationSent, Account: user.Account})
}

func (l *Lifecycle) emit(ctx context.Context, event ActivityEvent) {
	emitActivity(ctx, l.activitySink, l.logger, event)
}
