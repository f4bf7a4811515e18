package account

import (
	"context"
	"time"
)

// ActorRef identifies who/what triggered a transition.
type ActorRef struct {
	ID   string
	Type string
}

// TransitionMetadata captures extra context for a transition.
type TransitionMetadata struct {
	Reason   string
	Metadata map[string]any
}

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor ActorRef
	User  *User
	From  AccountState
	To    AccountState
	Meta  TransitionMetadata
}

// TransitionHook runs after a transition was persisted. Hook errors are
// logged, the transition is not rolled back.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

type transitionOptions struct {
	metadata   TransitionMetadata
	afterHooks []TransitionHook
}

// AccountStateMachine defines lifecycle operations for accounts.
type AccountStateMachine interface {
	Transition(ctx context.Context, actor ActorRef, user *User, target AccountState, opts ...TransitionOption) (*User, error)
	CurrentState(user *User) AccountState
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*accountStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *accountStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *accountStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineLogger overrides the logger used for sink and hook failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *accountStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.metadata.Reason = reason
	}
}

// WithTransitionMetadata merges metadata into the transition context.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata.Metadata == nil {
			opts.metadata.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata.Metadata[k] = v
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the update succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

type accountStateMachine struct {
	users        Users
	transitions  map[AccountState]map[AccountState]struct{}
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
}

// NewAccountStateMachine returns the default implementation backed by users.
func NewAccountStateMachine(users Users, opts ...StateMachineOption) AccountStateMachine {
	sm := &accountStateMachine{
		users: users,
		transitions: map[AccountState]map[AccountState]struct{}{
			StatePendingActivation: {
				StateActive: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       NopLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

func (sm *accountStateMachine) CurrentState(user *User) AccountState {
	return user.State()
}

func (sm *accountStateMachine) Transition(ctx context.Context, actor ActorRef, user *User, target AccountState, opts ...TransitionOption) (*User, error) {
	if user == nil {
		return nil, ErrUserNotFound
	}

	options := transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	from := sm.CurrentState(user)
	if from == target && target == StateActive {
		return user, ErrAlreadyActivated()
	}

	if _, ok := sm.transitions[from][target]; !ok {
		return user, ErrInvalidTransition
	}

	// pending to active is the only transition
	updated, err := sm.users.MarkActivated(ctx, user.ID, sm.now())
	if err != nil {
		if IsAlreadyActivated(err) {
			return user, err
		}
		return user, ErrInternal(err, "failed to persist account state")
	}

	tc := TransitionContext{
		Actor: actor,
		User:  updated,
		From:  from,
		To:    target,
		Meta:  options.metadata,
	}

	for _, hook := range options.afterHooks {
		if err := hook(ctx, tc); err != nil {
			sm.logger.Warn("after transition hook failed account=%s: %v", updated.Account, err)
		}
	}

	emitActivity(ctx, sm.activitySink, sm.logger, ActivityEvent{
		EventType:  ActivityEventAccountActivated,
		Actor:      actor,
		Account:    updated.Account,
		FromState:  from,
		ToState:    target,
		Metadata:   options.metadata.Metadata,
		OccurredAt: sm.now(),
	})

	return updated, nil
}
