package account_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	account "github.com/nightcatsama/go-account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountStateMachineActivatesPendingAccount(t *testing.T) {
	repo := &MockUsers{}
	sink := &recordingSink{}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	user := &account.User{ID: uuid.New(), Account: "player01"}
	activated := &account.User{ID: user.ID, Account: "player01", Active: true, ActivatedAt: &now}

	repo.On("MarkActivated", mock.Anything, user.ID, now).Return(activated, nil).Once()

	sm := account.NewAccountStateMachine(repo,
		account.WithStateMachineClock(fixedClock(now)),
		account.WithStateMachineActivitySink(sink),
	)

	var hookCalled bool
	result, err := sm.Transition(context.Background(), account.ActorRef{ID: "player01"}, user, account.StateActive,
		account.WithTransitionReason("activation link"),
		account.WithTransitionMetadata(map[string]any{"key_check": "matched"}),
		account.WithTransitionMetadata(map[string]any{"email": "player@example.com"}),
		account.WithAfterTransitionHook(func(_ context.Context, tc account.TransitionContext) error {
			hookCalled = true
			assert.Equal(t, account.StatePendingActivation, tc.From)
			assert.Equal(t, account.StateActive, tc.To)
			assert.Equal(t, "activation link", tc.Meta.Reason)
			assert.Equal(t, "matched", tc.Meta.Metadata["key_check"])
			assert.Equal(t, "player@example.com", tc.Meta.Metadata["email"])
			return errors.New("ignored")
		}),
	)
	require.NoError(t, err)
	assert.True(t, result.IsActive())
	assert.Equal(t, account.StateActive, sm.CurrentState(result))
	assert.False(t, user.Active, "input record is not mutated")
	assert.True(t, hookCalled)
	assert.Equal(t, []account.ActivityEventType{account.ActivityEventAccountActivated}, sink.types())
	repo.AssertExpectations(t)
}

func TestAccountStateMachineAlreadyActive(t *testing.T) {
	repo := &MockUsers{}
	user := &account.User{ID: uuid.New(), Account: "player01", Active: true}

	sm := account.NewAccountStateMachine(repo)

	_, err := sm.Transition(context.Background(), account.ActorRef{}, user, account.StateActive)
	require.Error(t, err)
	assert.True(t, account.IsAlreadyActivated(err))
	repo.AssertNotCalled(t, "MarkActivated", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountStateMachineRejectsBackwardTransition(t *testing.T) {
	repo := &MockUsers{}
	user := &account.User{ID: uuid.New(), Account: "player01", Active: true}

	sm := account.NewAccountStateMachine(repo)

	_, err := sm.Transition(context.Background(), account.ActorRef{}, user, account.StatePendingActivation)
	require.Error(t, err)
	assert.ErrorIs(t, err, account.ErrInvalidTransition)
	repo.AssertNotCalled(t, "MarkActivated", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountStateMachinePersistenceFailure(t *testing.T) {
	repo := &MockUsers{}
	user := &account.User{ID: uuid.New(), Account: "player01"}

	repo.On("MarkActivated", mock.Anything, user.ID, mock.Anything).Return(nil, errors.New("disk full")).Once()

	sm := account.NewAccountStateMachine(repo)

	_, err := sm.Transition(context.Background(), account.ActorRef{}, user, account.StateActive)
	require.Error(t, err)
	assert.True(t, account.IsInternal(err))
	assert.False(t, user.Active)
}

func TestAccountStateMachineLostActivationRace(t *testing.T) {
	repo := &MockUsers{}
	sink := &recordingSink{}
	stale := &account.User{ID: uuid.New(), Account: "player01"}
	current := &account.User{ID: stale.ID, Account: "player01", Active: true}

	repo.On("MarkActivated", mock.Anything, stale.ID, mock.Anything).
		Return(current, account.ErrAlreadyActivated()).Once()

	sm := account.NewAccountStateMachine(repo, account.WithStateMachineActivitySink(sink))

	_, err := sm.Transition(context.Background(), account.ActorRef{}, stale, account.StateActive)
	require.Error(t, err)
	assert.True(t, account.IsAlreadyActivated(err))
	assert.False(t, account.IsInternal(err))
	assert.Empty(t, sink.types())
	repo.AssertExpectations(t)
}

func TestAccountStateMachineNilUser(t *testing.T) {
	sm := account.NewAccountStateMachine(&MockUsers{})

	_, err := sm.Transition(context.Background(), account.ActorRef{}, nil, account.StateActive)
	assert.ErrorIs(t, err, account.ErrUserNotFound)
}
