package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkotov/clipcoin/bot/models"
	"github.com/vkotov/clipcoin/bot/storage"
)

const testPrice = int64(2)

func TestDispenseDebitsAndReturnsVideo(t *testing.T) {
	users := newFakeUsers()
	users.put(&models.User{TelegramID: 42, Balance: 5, ReferralCode: "aaaa0001"})
	videos := newFakeVideos()
	_, err := videos.Append(context.Background(), "file-1")
	require.NoError(t, err)

	svc := NewVideoService(videos, users, testPrice)

	d, err := svc.Dispense(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, d.Video)
	assert.Equal(t, "file-1", d.Video.FileID)
	assert.Equal(t, int64(3), d.Balance)
	assert.Equal(t, testPrice, d.Price)
	assert.Equal(t, int64(3), users.balance(42))
}

func TestDispenseInsufficientFunds(t *testing.T) {
	users := newFakeUsers()
	users.put(&models.User{TelegramID: 42, Balance: 1, ReferralCode: "aaaa0001"})
	videos := newFakeVideos()
	_, err := videos.Append(context.Background(), "file-1")
	require.NoError(t, err)

	svc := NewVideoService(videos, users, testPrice)

	d, err := svc.Dispense(context.Background(), 42)
	require.ErrorIs(t, err, storage.ErrInsufficientFunds)
	require.NotNil(t, d)
	assert.Equal(t, int64(1), d.Balance)
	assert.Equal(t, testPrice, d.Price)
	// No debit happened.
	assert.Equal(t, int64(1), users.balance(42))
}

func TestDispenseEmptyPool(t *testing.T) {
	users := newFakeUsers()
	users.put(&models.User{TelegramID: 42, Balance: 5, ReferralCode: "aaaa0001"})
	svc := NewVideoService(newFakeVideos(), users, testPrice)

	_, err := svc.Dispense(context.Background(), 42)
	require.ErrorIs(t, err, storage.ErrEmptyPool)
	// The balance only moves when a video is actually picked.
	assert.Equal(t, int64(5), users.balance(42))
}

func TestDispenseUnknownUser(t *testing.T) {
	svc := NewVideoService(newFakeVideos(), newFakeUsers(), testPrice)

	_, err := svc.Dispense(context.Background(), 404)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAddReturnsTotal(t *testing.T) {
	videos := newFakeVideos()
	svc := NewVideoService(videos, newFakeUsers(), testPrice)
	ctx := context.Background()

	total, err := svc.Add(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	total, err = svc.Add(ctx, "file-2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
