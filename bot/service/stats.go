package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vkotov/clipcoin/bot/storage"
	"github.com/vkotov/clipcoin/core/logger"
)

// StatsService aggregates operational totals for the admin panel.
type StatsService struct {
	users  storage.UserStore
	videos storage.VideoStore
	now    func() time.Time
}

// NewStatsService constructs the stats service.
func NewStatsService(users storage.UserStore, videos storage.VideoStore) *StatsService {
	return &StatsService{users: users, videos: videos, now: time.Now}
}

// Totals is a point-in-time snapshot of the bot's population.
type Totals struct {
	Users    int64
	NewToday int64
	Videos   int64
}

// Totals reads the counters sequentially; the snapshot is not transactional.
func (s *StatsService) Totals(ctx context.Context) (*Totals, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	newToday, err := s.users.CountJoinedOn(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("count new users: %w", err)
	}
	videos, err := s.videos.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count videos: %w", err)
	}
	logger.SVCStats.Debug("totals collected",
		slog.String("event", "stats.totals"),
		slog.Int64("users", users),
		slog.Int64("videos", videos),
	)
	return &Totals{Users: users, NewToday: newToday, Videos: videos}, nil
}
