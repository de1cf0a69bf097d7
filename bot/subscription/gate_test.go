package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/vkotov/clipcoin/bot/models"
	"github.com/vkotov/clipcoin/bot/storage"
)

type fakeStore struct {
	users    map[int64]*models.User
	failWith error

	persisted map[int64]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[int64]*models.User), persisted: make(map[int64]bool)}
}

func (f *fakeStore) GetByTelegramID(_ context.Context, telegramID int64) (*models.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[telegramID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) SetSubscribed(_ context.Context, telegramID int64, subscribed bool) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.users[telegramID]; !ok {
		return storage.ErrNotFound
	}
	f.users[telegramID].IsSubscribed = subscribed
	f.persisted[telegramID] = subscribed
	return nil
}

func (f *fakeStore) GetByReferralCode(context.Context, string) (*models.User, error) {
	return nil, storage.ErrNotFound
}
func (f *fakeStore) Create(context.Context, *models.User) error          { return nil }
func (f *fakeStore) AdjustBalance(context.Context, int64, int64) (int64, error) { return 0, nil }
func (f *fakeStore) Count(context.Context) (int64, error)               { return 0, nil }
func (f *fakeStore) CountJoinedOn(context.Context, time.Time) (int64, error) {
	return 0, nil
}
func (f *fakeStore) CountInvitees(context.Context, int64) (int64, error) { return 0, nil }

type fakeChecker struct {
	role  tele.MemberStatus
	err   error
	calls int
}

func (f *fakeChecker) ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &tele.ChatMember{Role: f.role}, nil
}

// fakeContext provides just enough tele.Context surface for the gate.
type fakeContext struct {
	tele.Context
	sender *tele.User
	store  map[string]interface{}
}

func newFakeContext(userID int64) *fakeContext {
	return &fakeContext{sender: &tele.User{ID: userID}, store: make(map[string]interface{})}
}

func (c *fakeContext) Sender() *tele.User  { return c.sender }
func (c *fakeContext) Chat() *tele.Chat    { return &tele.Chat{ID: c.sender.ID} }
func (c *fakeContext) Update() tele.Update { return tele.Update{ID: 1} }
func (c *fakeContext) Get(key string) interface{} {
	return c.store[key]
}
func (c *fakeContext) Set(key string, value interface{}) {
	c.store[key] = value
}

func TestGateDisabledWhenNoChannel(t *testing.T) {
	g := NewGate("", newFakeStore())

	assert.False(t, g.Enabled())
	ok, err := g.IsEntitled(newFakeContext(42))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGateStickyCacheSkipsChecker(t *testing.T) {
	store := newFakeStore()
	store.users[42] = &models.User{TelegramID: 42, IsSubscribed: true}
	checker := &fakeChecker{role: tele.Left}

	g := NewGate("@channel", store)
	g.SetChecker(checker)

	ok, err := g.IsEntitled(newFakeContext(42))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, checker.calls)
}

func TestGateLiveCheckPersistsFlag(t *testing.T) {
	store := newFakeStore()
	store.users[42] = &models.User{TelegramID: 42}
	checker := &fakeChecker{role: tele.Member}

	g := NewGate("@channel", store)
	g.SetChecker(checker)

	ok, err := g.IsEntitled(newFakeContext(42))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, checker.calls)
	assert.True(t, store.persisted[42])
}

func TestGateNonMemberRoles(t *testing.T) {
	for _, role := range []tele.MemberStatus{tele.Left, tele.Kicked, tele.Restricted} {
		store := newFakeStore()
		store.users[42] = &models.User{TelegramID: 42}
		checker := &fakeChecker{role: role}

		g := NewGate("@channel", store)
		g.SetChecker(checker)

		ok, err := g.IsEntitled(newFakeContext(42))
		require.NoError(t, err)
		assert.False(t, ok, "role %s should not pass", role)
	}
}

func TestGateFailsClosedOnCheckerError(t *testing.T) {
	store := newFakeStore()
	store.users[42] = &models.User{TelegramID: 42}
	checker := &fakeChecker{err: errors.New("api down")}

	g := NewGate("@channel", store)
	g.SetChecker(checker)

	ok, err := g.IsEntitled(newFakeContext(42))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGateFailsClosedWithoutChecker(t *testing.T) {
	store := newFakeStore()
	store.users[42] = &models.User{TelegramID: 42}

	g := NewGate("@channel", store)

	ok, err := g.IsEntitled(newFakeContext(42))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGateSurfacesStoreError(t *testing.T) {
	store := newFakeStore()
	store.failWith = errors.New("db down")

	g := NewGate("@channel", store)
	g.SetChecker(&fakeChecker{role: tele.Member})

	_, err := g.IsEntitled(newFakeContext(42))
	require.Error(t, err)
}

func TestGateUnknownAccountPassesWithoutPersist(t *testing.T) {
	store := newFakeStore()
	checker := &fakeChecker{role: tele.Member}

	g := NewGate("@channel", store)
	g.SetChecker(checker)

	ok, err := g.IsEntitled(newFakeContext(42))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, store.persisted)
}

func TestRefreshBypassesCache(t *testing.T) {
	store := newFakeStore()
	store.users[42] = &models.User{TelegramID: 42, IsSubscribed: true}
	checker := &fakeChecker{role: tele.Left}

	g := NewGate("@channel", store)
	g.SetChecker(checker)

	ok, err := g.Refresh(newFakeContext(42))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, checker.calls)
}

func TestChannelURL(t *testing.T) {
	assert.Equal(t, "https://t.me/clips", NewGate("@clips", newFakeStore()).ChannelURL())
	assert.Equal(t, "", NewGate("-1001234567890", newFakeStore()).ChannelURL())
}
