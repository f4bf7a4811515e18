package account_test

import (
	"context"
	"errors"
	"testing"

	account "github.com/nightcatsama/go-account"
	"github.com/stretchr/testify/assert"
)

func TestMultiActivitySinkFansOut(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	failing := account.ActivitySinkFunc(func(context.Context, account.ActivityEvent) error {
		return errors.New("sink down")
	})

	multi := account.MultiActivitySink{a, nil, failing, b}
	err := multi.Record(context.Background(), account.ActivityEvent{EventType: account.ActivityEventSignOut})

	assert.EqualError(t, err, "sink down")
	assert.Equal(t, []account.ActivityEventType{account.ActivityEventSignOut}, a.types())
	assert.Equal(t, []account.ActivityEventType{account.ActivityEventSignOut}, b.types())
}

func TestLoggingActivitySink(t *testing.T) {
	logger := &bufferLogger{}
	sink := account.LoggingActivitySink{Logger: logger}

	_ = sink.Record(context.Background(), account.ActivityEvent{
		EventType: account.ActivityEventRegistered,
		Account:   "player01",
		FromState: account.StateUnregistered,
		ToState:   account.StatePendingActivation,
	})
	_ = sink.Record(context.Background(), account.ActivityEvent{
		EventType: account.ActivityEventLoginSuccess,
		Account:   "player01",
	})

	out := logger.String()
	assert.Contains(t, out, "account.registered account=player01 unregistered->pending_activation")
	assert.Contains(t, out, "auth.login.success account=player01")
}

func TestLifecycleSurvivesFailingSink(t *testing.T) {
	failing := account.ActivitySinkFunc(func(context.Context, account.ActivityEvent) error {
		return errors.New("sink down")
	})
	logger := &bufferLogger{}
	f := newLifecycleFixture(t, account.WithActivitySink(failing), account.WithLogger(logger))

	f.register(t, "player01", "secret1", "player@example.com")
	assert.Contains(t, logger.String(), "sink down")
}
