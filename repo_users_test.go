package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	account "github.com/nightcatsama/go-account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsers(t *testing.T, now time.Time) account.Users {
	t.Helper()
	return account.NewUsersRepository(newTestDB(t), account.WithUsersClock(fixedClock(now)))
}

func TestUsersInsertAndFind(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	users := newUsers(t, now)

	created, err := users.Insert(ctx, &account.User{
		Account:        "player01",
		Email:          "player@example.com",
		PasswordDigest: "3c705d1a3abbb2987b4aab61dbe10715",
	})
	require.NoError(t, err)

	expectedID, err := hashid.NewUUID("player01", hashid.WithNormalization(false))
	require.NoError(t, err)
	assert.Equal(t, expectedID, created.ID)
	require.NotNil(t, created.CreatedAt)
	assert.True(t, created.CreatedAt.Equal(now))

	byAccount, err := users.FindByAccount(ctx, "player01")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byAccount.ID)
	assert.Equal(t, "player@example.com", byAccount.Email)
	assert.Equal(t, "3c705d1a3abbb2987b4aab61dbe10715", byAccount.PasswordDigest)
	assert.False(t, byAccount.Active)
	assert.False(t, byAccount.Admin)
	assert.Equal(t, account.StatePendingActivation, byAccount.State())

	byEmail, err := users.FindByEmail(ctx, "player@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestUsersFindNotFound(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t, time.Now())

	_, err := users.FindByAccount(ctx, "ghost01")
	assert.ErrorIs(t, err, account.ErrUserNotFound)

	_, err = users.FindByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, account.ErrUserNotFound)

	_, err = users.FindByAccount(ctx, "")
	assert.ErrorIs(t, err, account.ErrUserNotFound)
}

func TestUsersAccountLookupIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t, time.Now())

	_, err := users.Insert(ctx, &account.User{Account: "player01", Email: "player@example.com", PasswordDigest: "x"})
	require.NoError(t, err)

	_, err = users.FindByAccount(ctx, "PLAYER01")
	assert.ErrorIs(t, err, account.ErrUserNotFound)
}

func TestUsersInsertDuplicates(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t, time.Now())

	_, err := users.Insert(ctx, &account.User{Account: "player01", Email: "player@example.com", PasswordDigest: "x"})
	require.NoError(t, err)

	_, err = users.Insert(ctx, &account.User{Account: "player01", Email: "other@example.com", PasswordDigest: "x"})
	require.Error(t, err)
	assert.True(t, account.IsConflict(err))
	assert.True(t, account.HasTextCode(err, account.TextCodeAccountExists))

	_, err = users.Insert(ctx, &account.User{Account: "player02", Email: "player@example.com", PasswordDigest: "x"})
	require.Error(t, err)
	assert.True(t, account.IsConflict(err))
	assert.True(t, account.HasTextCode(err, account.TextCodeEmailExists))
}

func TestUsersUpdate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	users := newUsers(t, now)

	created, err := users.Insert(ctx, &account.User{Account: "player01", Email: "player@example.com", PasswordDigest: "x"})
	require.NoError(t, err)

	created.Active = true
	created.ActivatedAt = &now
	_, err = users.Update(ctx, created)
	require.NoError(t, err)

	found, err := users.FindByAccount(ctx, "player01")
	require.NoError(t, err)
	assert.True(t, found.Active)
	require.NotNil(t, found.ActivatedAt)
	assert.True(t, found.ActivatedAt.Equal(now))
}

func TestUsersUpdateWithoutID(t *testing.T) {
	users := newUsers(t, time.Now())

	_, err := users.Update(context.Background(), &account.User{ID: uuid.Nil, Account: "player01"})
	assert.ErrorIs(t, err, account.ErrUserNotFound)
}

func TestUsersCaseVariantsGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t, time.Now())

	lower, err := users.Insert(ctx, &account.User{Account: "alice01", Email: "a@x.com", PasswordDigest: "x"})
	require.NoError(t, err)
	upper, err := users.Insert(ctx, &account.User{Account: "Alice01", Email: "b@x.com", PasswordDigest: "x"})
	require.NoError(t, err)

	assert.NotEqual(t, lower.ID, upper.ID)
}

func TestUsersMarkActivated(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	users := newUsers(t, now)

	created, err := users.Insert(ctx, &account.User{Account: "player01", Email: "player@example.com", PasswordDigest: "x"})
	require.NoError(t, err)

	at := now.Add(time.Hour)
	activated, err := users.MarkActivated(ctx, created.ID, at)
	require.NoError(t, err)
	assert.True(t, activated.Active)
	require.NotNil(t, activated.ActivatedAt)
	assert.True(t, activated.ActivatedAt.Equal(at))

	again, err := users.MarkActivated(ctx, created.ID, at.Add(time.Hour))
	require.Error(t, err)
	assert.True(t, account.IsAlreadyActivated(err))
	require.NotNil(t, again)
	assert.True(t, again.ActivatedAt.Equal(at), "activation time is kept")

	_, err = users.MarkActivated(ctx, uuid.New(), at)
	assert.ErrorIs(t, err, account.ErrUserNotFound)

	_, err = users.MarkActivated(ctx, uuid.Nil, at)
	assert.ErrorIs(t, err, account.ErrUserNotFound)
}

func TestRepositoryManager(t *testing.T) {
	db := newTestDB(t)
	repo := account.NewRepositoryManager(db)

	require.NoError(t, repo.Validate())
	assert.NotPanics(t, repo.MustValidate)
	assert.NotNil(t, repo.Users())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := repo.RunInTx(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
