package account

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventRegistered        ActivityEventType = "account.registered"
	ActivityEventActivationSent    ActivityEventType = "account.activation.sent"
	ActivityEventActivationFailed  ActivityEventType = "account.activation.failed"
	ActivityEventAccountActivated  ActivityEventType = "account.activated"
	ActivityEventLoginSuccess      ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure      ActivityEventType = "auth.login.failure"
	ActivityEventLoginInactive     ActivityEventType = "auth.login.inactive"
	ActivityEventSessionVerified   ActivityEventType = "auth.session.verified"
	ActivityEventSessionRejected   ActivityEventType = "auth.session.rejected"
	ActivityEventSignOut           ActivityEventType = "auth.signout"
	ActivityEventNotificationError ActivityEventType = "notification.failed"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	Account    string
	FromState  AccountState
	ToState    AccountState
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// MultiActivitySink fans events out to every sink. All sinks run, the
// first error is returned.
type MultiActivitySink []ActivitySink

func (m MultiActivitySink) Record(ctx context.Context, event ActivityEvent) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LoggingActivitySink writes every event to a Logger
type LoggingActivitySink struct {
	Logger Logger
}

func (s LoggingActivitySink) Record(_ context.Context, event ActivityEvent) error {
	logger := normalizeLogger(s.Logger)
	if event.FromState != event.ToState {
		logger.Info("activity %s account=%s %s->%s", event.EventType, event.Account, event.FromState, event.ToState)
		return nil
	}
	logger.Info("activity %s account=%s", event.EventType, event.Account)
	return nil
}

// emitActivity records event on sink and logs sink failures
func emitActivity(ctx context.Context, sink ActivitySink, logger Logger, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := normalizeActivitySink(sink).Record(ctx, event); err != nil {
		normalizeLogger(logger).Warn("activity sink failed for %s: %v", event.EventType, err)
	}
}
