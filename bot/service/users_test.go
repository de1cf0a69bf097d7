package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkotov/clipcoin/bot/models"
	"github.com/vkotov/clipcoin/bot/storage"
)

const (
	testAdminID = int64(1000)
	testReward  = int64(10)
)

func newUserService(store *fakeUsers) *UserService {
	return NewUserService(store, testAdminID, testReward)
}

func TestRegisterCreatesAccount(t *testing.T) {
	store := newFakeUsers()
	svc := newUserService(store)

	reg, err := svc.Register(context.Background(), 42, "alice", "Alice", "")
	require.NoError(t, err)
	require.True(t, reg.Created)
	require.NotNil(t, reg.User)

	assert.Equal(t, int64(42), reg.User.TelegramID)
	assert.Equal(t, "Alice", reg.User.FirstName)
	assert.Equal(t, int64(0), reg.User.Balance)
	assert.Len(t, reg.User.ReferralCode, 8)
	assert.False(t, reg.User.IsAdmin)
	assert.Nil(t, reg.Inviter)
}

func TestRegisterAdminFlag(t *testing.T) {
	store := newFakeUsers()
	svc := newUserService(store)

	reg, err := svc.Register(context.Background(), testAdminID, "boss", "Boss", "")
	require.NoError(t, err)
	assert.True(t, reg.User.IsAdmin)
}

func TestRegisterIdempotent(t *testing.T) {
	store := newFakeUsers()
	svc := newUserService(store)
	ctx := context.Background()

	first, err := svc.Register(ctx, 42, "alice", "Alice", "")
	require.NoError(t, err)

	second, err := svc.Register(ctx, 42, "alice", "Alice", first.User.ReferralCode)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Nil(t, second.Inviter)
	assert.Equal(t, first.User.ReferralCode, second.User.ReferralCode)
	assert.Equal(t, int64(0), store.balance(42))
}

func TestRegisterReferralCreditsInviter(t *testing.T) {
	store := newFakeUsers()
	svc := newUserService(store)
	ctx := context.Background()

	inviter, err := svc.Register(ctx, 1, "inv", "Inviter", "")
	require.NoError(t, err)

	reg, err := svc.Register(ctx, 2, "new", "Newbie", inviter.User.ReferralCode)
	require.NoError(t, err)
	require.NotNil(t, reg.Inviter)

	assert.Equal(t, int64(1), reg.Inviter.TelegramID)
	assert.Equal(t, testReward, reg.Reward)
	assert.Equal(t, int64(1), reg.User.InvitedBy)
	assert.Equal(t, testReward, store.balance(1))
}

func TestRegisterUnknownCodeNoInviter(t *testing.T) {
	store := newFakeUsers()
	svc := newUserService(store)

	reg, err := svc.Register(context.Background(), 2, "new", "Newbie", "deadbeef")
	require.NoError(t, err)
	assert.Nil(t, reg.Inviter)
	assert.Equal(t, int64(0), reg.User.InvitedBy)
}

func TestRegisterDistinctCodes(t *testing.T) {
	store := newFakeUsers()
	svc := newUserService(store)
	ctx := context.Background()

	seen := make(map[string]bool)
	for id := int64(1); id <= 50; id++ {
		reg, err := svc.Register(ctx, id, "", "User", "")
		require.NoError(t, err)
		require.False(t, seen[reg.User.ReferralCode], "duplicate code %s", reg.User.ReferralCode)
		seen[reg.User.ReferralCode] = true
	}
}

func TestRegisterStorageFailure(t *testing.T) {
	store := newFakeUsers()
	store.failWith = errors.New("db down")
	svc := newUserService(store)

	_, err := svc.Register(context.Background(), 42, "", "Alice", "")
	require.Error(t, err)
}

func TestGrantCreditsBalance(t *testing.T) {
	store := newFakeUsers()
	store.put(&models.User{TelegramID: 42, FirstName: "Alice", Balance: 3, ReferralCode: "aaaa0001"})
	svc := newUserService(store)

	res, err := svc.Grant(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.NewBalance)
	assert.Equal(t, "Alice", res.Target.FirstName)
	assert.Equal(t, int64(10), store.balance(42))
}

func TestGrantUnknownUser(t *testing.T) {
	store := newFakeUsers()
	svc := newUserService(store)

	_, err := svc.Grant(context.Background(), 404, 7)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestConcurrentGrants(t *testing.T) {
	store := newFakeUsers()
	store.put(&models.User{TelegramID: 42, ReferralCode: "aaaa0001"})
	svc := newUserService(store)

	const n = 64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Grant(context.Background(), 42, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(n), store.balance(42))
}

func TestGetProfileCountsInvitees(t *testing.T) {
	store := newFakeUsers()
	store.put(&models.User{TelegramID: 1, ReferralCode: "aaaa0001"})
	store.put(&models.User{TelegramID: 2, ReferralCode: "aaaa0002", InvitedBy: 1})
	store.put(&models.User{TelegramID: 3, ReferralCode: "aaaa0003", InvitedBy: 1})
	svc := newUserService(store)

	p, err := svc.GetProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Invitees)
}
