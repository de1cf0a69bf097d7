package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vkotov/clipcoin/core/logger"
	"log/slog"
)

// AdminSeeder makes sure the configured administrator has an account with the
// admin flag before the first update arrives. Runs at bootstrap, after
// migrations.
type AdminSeeder struct {
	TelegramID int64
}

// Seed inserts the admin account if missing, or promotes an existing one.
func (s AdminSeeder) Seed(ctx context.Context, db *sqlx.DB) error {
	if s.TelegramID == 0 {
		return nil
	}
	code := uuid.NewString()[:8]
	_, err := db.ExecContext(ctx,
		`INSERT INTO users (telegram_id, referral_code, is_admin)
		 VALUES ($1, $2, TRUE)
		 ON CONFLICT (telegram_id) DO UPDATE SET is_admin = TRUE`,
		s.TelegramID, code)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	logger.SEED.Info("admin seeded",
		slog.String("event", "seed.admin"),
		slog.Int64("user_id", s.TelegramID),
	)
	return nil
}
