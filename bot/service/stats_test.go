package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkotov/clipcoin/bot/models"
)

func TestTotals(t *testing.T) {
	today := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	users := newFakeUsers()
	users.put(&models.User{TelegramID: 1, ReferralCode: "aaaa0001", JoinedAt: yesterday})
	users.put(&models.User{TelegramID: 2, ReferralCode: "aaaa0002", JoinedAt: today})
	users.put(&models.User{TelegramID: 3, ReferralCode: "aaaa0003", JoinedAt: today})

	videos := newFakeVideos()
	_, err := videos.Append(context.Background(), "file-1")
	require.NoError(t, err)

	svc := NewStatsService(users, videos)
	svc.now = func() time.Time { return today }

	totals, err := svc.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), totals.Users)
	assert.Equal(t, int64(2), totals.NewToday)
	assert.Equal(t, int64(1), totals.Videos)
}
