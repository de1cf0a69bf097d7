package flows

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/vkotov/clipcoin/bot/models"
	"github.com/vkotov/clipcoin/bot/service"
	"github.com/vkotov/clipcoin/bot/storage"
	"github.com/vkotov/clipcoin/core/telegram/state"
)

// memUsers is a minimal in-memory UserStore for conversation tests.
type memUsers struct {
	mu   sync.Mutex
	byTG map[int64]*models.User
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{byTG: make(map[int64]*models.User)}
	for i, u := range users {
		u.ID = int64(i + 1)
		m.byTG[u.TelegramID] = u
	}
	return m
}

func (m *memUsers) GetByTelegramID(_ context.Context, telegramID int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byTG[telegramID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) AdjustBalance(_ context.Context, telegramID, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byTG[telegramID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	if u.Balance+delta < 0 {
		return 0, storage.ErrInsufficientFunds
	}
	u.Balance += delta
	return u.Balance, nil
}

func (m *memUsers) GetByReferralCode(context.Context, string) (*models.User, error) {
	return nil, storage.ErrNotFound
}
func (m *memUsers) Create(context.Context, *models.User) error { return nil }
func (m *memUsers) SetSubscribed(context.Context, int64, bool) error {
	return nil
}
func (m *memUsers) Count(context.Context) (int64, error)                 { return 0, nil }
func (m *memUsers) CountJoinedOn(context.Context, time.Time) (int64, error) { return 0, nil }
func (m *memUsers) CountInvitees(context.Context, int64) (int64, error)  { return 0, nil }

// memVideos is a minimal in-memory VideoStore.
type memVideos struct {
	mu    sync.Mutex
	items []*models.Video
}

func (m *memVideos) Append(_ context.Context, fileID string) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := &models.Video{ID: int64(len(m.items) + 1), FileID: fileID}
	m.items = append(m.items, v)
	return v, nil
}

func (m *memVideos) Random(_ context.Context) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return nil, storage.ErrEmptyPool
	}
	return m.items[0], nil
}

func (m *memVideos) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.items)), nil
}

// fakeContext provides just enough tele.Context surface for flow steps.
type fakeContext struct {
	tele.Context
	sender *tele.User
	msg    *tele.Message
	store  map[string]interface{}
	sent   []string
}

func newFakeContext(userID int64) *fakeContext {
	return &fakeContext{sender: &tele.User{ID: userID}, store: make(map[string]interface{})}
}

func (c *fakeContext) Sender() *tele.User  { return c.sender }
func (c *fakeContext) Chat() *tele.Chat    { return &tele.Chat{ID: c.sender.ID} }
func (c *fakeContext) Update() tele.Update { return tele.Update{ID: 1} }
func (c *fakeContext) Message() *tele.Message {
	return c.msg
}
func (c *fakeContext) Text() string {
	if c.msg != nil {
		return c.msg.Text
	}
	return ""
}
func (c *fakeContext) Get(key string) interface{}      { return c.store[key] }
func (c *fakeContext) Set(key string, v interface{})   { c.store[key] = v }
func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		c.sent = append(c.sent, s)
	}
	return nil
}

func (c *fakeContext) text(t *testing.T, text string) *fakeContext {
	t.Helper()
	c.msg = &tele.Message{Text: text, Sender: c.sender}
	return c
}

func (c *fakeContext) video(fileID string) *fakeContext {
	c.msg = &tele.Message{Sender: c.sender, Video: &tele.Video{File: tele.File{FileID: fileID}}}
	return c
}

func (c *fakeContext) lastSent(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, c.sent)
	return c.sent[len(c.sent)-1]
}

const adminID = int64(99)

func newGrantFixture(t *testing.T, users ...*models.User) (*GrantFlow, state.Manager, *memUsers, *[]int64) {
	t.Helper()
	store := newMemUsers(users...)
	svc := service.NewUserService(store, adminID, 10)
	fsm := state.NewMemoryManager()
	flow := NewGrantFlow(fsm, svc)

	var notified []int64
	flow.notify = func(_ tele.Context, userID int64, _ string) {
		notified = append(notified, userID)
	}
	flow.Register()
	return flow, fsm, store, &notified
}

func TestGrantFlowHappyPath(t *testing.T) {
	flow, fsm, store, notified := newGrantFixture(t,
		&models.User{TelegramID: 42, FirstName: "Alice", Balance: 1})

	c := newFakeContext(adminID)
	require.NoError(t, flow.Start(c))
	assert.Equal(t, StateGrantUser, fsm.GetState(adminID))

	require.NoError(t, fsm.ManagerHandler(c.text(t, "42")))
	assert.Equal(t, StateGrantAmount, fsm.GetState(adminID))

	require.NoError(t, fsm.ManagerHandler(c.text(t, "7")))
	assert.False(t, fsm.InProgress(adminID))

	u, err := store.GetByTelegramID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(8), u.Balance)
	assert.Equal(t, []int64{42}, *notified)
	assert.Contains(t, c.lastSent(t), "Granted 7 coins")
}

func TestGrantFlowRetriesOnBadID(t *testing.T) {
	flow, fsm, _, _ := newGrantFixture(t)

	c := newFakeContext(adminID)
	require.NoError(t, flow.Start(c))

	require.NoError(t, fsm.ManagerHandler(c.text(t, "not a number")))
	// Still waiting for the ID.
	assert.Equal(t, StateGrantUser, fsm.GetState(adminID))
}

func TestGrantFlowUnknownUserTerminates(t *testing.T) {
	flow, fsm, _, notified := newGrantFixture(t)

	c := newFakeContext(adminID)
	require.NoError(t, flow.Start(c))

	require.NoError(t, fsm.ManagerHandler(c.text(t, "404")))
	assert.False(t, fsm.InProgress(adminID))
	assert.Empty(t, *notified)
	assert.Contains(t, c.lastSent(t), "not found")
}

func TestGrantFlowRetriesOnBadAmount(t *testing.T) {
	flow, fsm, _, _ := newGrantFixture(t,
		&models.User{TelegramID: 42, FirstName: "Alice"})

	c := newFakeContext(adminID)
	require.NoError(t, flow.Start(c))
	require.NoError(t, fsm.ManagerHandler(c.text(t, "42")))

	for _, bad := range []string{"zero", "-5", "0"} {
		require.NoError(t, fsm.ManagerHandler(c.text(t, bad)))
		assert.Equal(t, StateGrantAmount, fsm.GetState(adminID), "input %q", bad)
	}
}

func TestIntakeFlowHappyPath(t *testing.T) {
	videos := &memVideos{}
	svc := service.NewVideoService(videos, newMemUsers(), 2)
	fsm := state.NewMemoryManager()
	flow := NewIntakeFlow(fsm, svc)
	flow.Register()

	c := newFakeContext(adminID)
	require.NoError(t, flow.Start(c))
	assert.Equal(t, StateVideoWait, fsm.GetState(adminID))

	require.NoError(t, fsm.ManagerHandler(c.video("file-9")))
	assert.False(t, fsm.InProgress(adminID))

	total, err := videos.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Contains(t, c.lastSent(t), "Video added")
}

func TestIntakeFlowRejectsNonVideo(t *testing.T) {
	videos := &memVideos{}
	svc := service.NewVideoService(videos, newMemUsers(), 2)
	fsm := state.NewMemoryManager()
	flow := NewIntakeFlow(fsm, svc)
	flow.Register()

	c := newFakeContext(adminID)
	require.NoError(t, flow.Start(c))

	require.NoError(t, fsm.ManagerHandler(c.text(t, "here is text instead")))
	// Still waiting for a video.
	assert.Equal(t, StateVideoWait, fsm.GetState(adminID))

	total, err := videos.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}
