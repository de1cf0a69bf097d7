package service

import (
	"context"
	"sync"
	"time"

	"github.com/vkotov/clipcoin/bot/models"
	"github.com/vkotov/clipcoin/bot/storage"
)

// fakeUsers is an in-memory UserStore with the same guarded-debit semantics
// as the Postgres repository.
type fakeUsers struct {
	mu     sync.Mutex
	byTG   map[int64]*models.User
	nextID int64

	// failWith, when set, makes every call fail.
	failWith error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byTG: make(map[int64]*models.User)}
}

func (f *fakeUsers) GetByTelegramID(_ context.Context, telegramID int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.byTG[telegramID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByReferralCode(_ context.Context, code string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.byTG {
		if u.ReferralCode == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, exists := f.byTG[u.TelegramID]; exists {
		return storage.ErrConflict
	}
	f.nextID++
	u.ID = f.nextID
	if u.JoinedAt.IsZero() {
		u.JoinedAt = time.Now()
	}
	cp := *u
	f.byTG[u.TelegramID] = &cp
	return nil
}

func (f *fakeUsers) AdjustBalance(_ context.Context, telegramID, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	u, ok := f.byTG[telegramID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	if u.Balance+delta < 0 {
		return 0, storage.ErrInsufficientFunds
	}
	u.Balance += delta
	return u.Balance, nil
}

func (f *fakeUsers) SetSubscribed(_ context.Context, telegramID int64, subscribed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	u, ok := f.byTG[telegramID]
	if !ok {
		return storage.ErrNotFound
	}
	u.IsSubscribed = subscribed
	return nil
}

func (f *fakeUsers) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	return int64(len(f.byTG)), nil
}

func (f *fakeUsers) CountJoinedOn(_ context.Context, day time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	var n int64
	y, m, d := day.Date()
	for _, u := range f.byTG {
		uy, um, ud := u.JoinedAt.Date()
		if uy == y && um == m && ud == d {
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) CountInvitees(_ context.Context, telegramID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	var n int64
	for _, u := range f.byTG {
		if u.InvitedBy == telegramID {
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) put(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	if u.JoinedAt.IsZero() {
		u.JoinedAt = time.Now()
	}
	cp := *u
	f.byTG[u.TelegramID] = &cp
}

func (f *fakeUsers) balance(telegramID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byTG[telegramID].Balance
}

// fakeVideos is an in-memory VideoStore. Random returns the first item so
// tests stay deterministic.
type fakeVideos struct {
	mu     sync.Mutex
	items  []*models.Video
	nextID int64

	failWith error
}

func newFakeVideos() *fakeVideos {
	return &fakeVideos{}
}

func (f *fakeVideos) Append(_ context.Context, fileID string) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.nextID++
	v := &models.Video{ID: f.nextID, FileID: fileID, AddedAt: time.Now()}
	f.items = append(f.items, v)
	cp := *v
	return &cp, nil
}

func (f *fakeVideos) Random(_ context.Context) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	if len(f.items) == 0 {
		return nil, storage.ErrEmptyPool
	}
	cp := *f.items[0]
	return &cp, nil
}

func (f *fakeVideos) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	return int64(len(f.items)), nil
}
