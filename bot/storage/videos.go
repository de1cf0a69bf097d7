package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vkotov/clipcoin/bot/models"
	"github.com/vkotov/clipcoin/core/logger"
	"log/slog"
)

// VideoStore is the contract for the shared video pool.
type VideoStore interface {
	Append(ctx context.Context, fileID string) (*models.Video, error)
	// Random samples one video uniformly at random, or ErrEmptyPool.
	Random(ctx context.Context) (*models.Video, error)
	Count(ctx context.Context) (int64, error)
}

// Videos is the Postgres-backed VideoStore.
type Videos struct {
	db *sqlx.DB
}

// NewVideos constructs the videos repository.
func NewVideos(db *sqlx.DB) *Videos {
	return &Videos{db: db}
}

// Append adds a media reference to the pool.
func (r *Videos) Append(ctx context.Context, fileID string) (*models.Video, error) {
	v := models.Video{FileID: fileID}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO videos (file_id) VALUES ($1) RETURNING id, added_at`,
		fileID,
	).Scan(&v.ID, &v.AddedAt)
	if err != nil {
		return nil, fmt.Errorf("append video: %w", err)
	}
	logger.DB.Debug("video appended",
		slog.String("event", "videos.append"),
		slog.Int64("video_id", v.ID),
	)
	return &v, nil
}

// Random samples one video uniformly at random.
func (r *Videos) Random(ctx context.Context) (*models.Video, error) {
	var v models.Video
	err := r.db.GetContext(ctx, &v,
		`SELECT * FROM videos ORDER BY random() LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmptyPool
	}
	if err != nil {
		return nil, fmt.Errorf("sample video: %w", err)
	}
	return &v, nil
}

// Count returns the pool size.
func (r *Videos) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM videos`); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return n, nil
}
