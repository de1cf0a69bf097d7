package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vkotov/clipcoin/bot/models"
	"github.com/vkotov/clipcoin/bot/storage"
	"github.com/vkotov/clipcoin/core/logger"
)

// VideoService dispenses videos against the coin ledger and manages the pool.
type VideoService struct {
	videos storage.VideoStore
	users  storage.UserStore
	price  int64
}

// NewVideoService constructs the video service.
func NewVideoService(videos storage.VideoStore, users storage.UserStore, price int64) *VideoService {
	return &VideoService{videos: videos, users: users, price: price}
}

// Dispense is the outcome of a paid video request. On
// storage.ErrInsufficientFunds the Balance and Price fields are still
// populated so the caller can echo them back.
type Dispense struct {
	Video   *models.Video
	Balance int64
	Price   int64
}

// Dispense picks a random video and debits the price from the account. The
// debit lands durably before the video is returned for delivery: a delivery
// failure after the debit leaves the charge standing.
func (s *VideoService) Dispense(ctx context.Context, telegramID int64) (*Dispense, error) {
	u, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if u.Balance < s.price {
		return &Dispense{Balance: u.Balance, Price: s.price}, storage.ErrInsufficientFunds
	}

	v, err := s.videos.Random(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := s.users.AdjustBalance(ctx, telegramID, -s.price)
	if err != nil {
		if errors.Is(err, storage.ErrInsufficientFunds) {
			return &Dispense{Balance: u.Balance, Price: s.price}, err
		}
		return nil, fmt.Errorf("debit: %w", err)
	}

	logger.SVCVideos.Info("video dispensed",
		slog.String("event", "videos.dispense"),
		slog.Int64("user_id", telegramID),
		slog.Int64("video_id", v.ID),
		slog.Int64("price", s.price),
		slog.Int64("balance", balance),
	)
	return &Dispense{Video: v, Balance: balance, Price: s.price}, nil
}

// Add appends a video to the pool and returns the new pool size.
func (s *VideoService) Add(ctx context.Context, fileID string) (int64, error) {
	v, err := s.videos.Append(ctx, fileID)
	if err != nil {
		return 0, fmt.Errorf("append video: %w", err)
	}
	total, err := s.videos.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	logger.SVCVideos.Info("video added",
		slog.String("event", "videos.add"),
		slog.Int64("video_id", v.ID),
		slog.Int64("count", total),
	)
	return total, nil
}

// Price exposes the configured cost per video.
func (s *VideoService) Price() int64 {
	return s.price
}
