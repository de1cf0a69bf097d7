package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vkotov/clipcoin/bot/models"
	"github.com/vkotov/clipcoin/core/logger"
	"log/slog"
)

// UserStore is the ledger contract for accounts.
type UserStore interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	// AdjustBalance applies delta atomically and returns the new balance.
	// A debit that would drive the balance negative fails with
	// ErrInsufficientFunds and changes nothing.
	AdjustBalance(ctx context.Context, telegramID, delta int64) (int64, error)
	SetSubscribed(ctx context.Context, telegramID int64, subscribed bool) error
	Count(ctx context.Context) (int64, error)
	CountJoinedOn(ctx context.Context, day time.Time) (int64, error)
	CountInvitees(ctx context.Context, telegramID int64) (int64, error)
}

// Users is the Postgres-backed UserStore.
type Users struct {
	db *sqlx.DB
}

// NewUsers constructs the users repository.
func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db}
}

const pqUniqueViolation = "23505"

// GetByTelegramID fetches a user by their Telegram identity.
func (r *Users) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u,
		`SELECT * FROM users WHERE telegram_id = $1`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	return &u, nil
}

// GetByReferralCode fetches a user by their referral code.
func (r *Users) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u,
		`SELECT * FROM users WHERE referral_code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by referral code: %w", err)
	}
	return &u, nil
}

// Create inserts a new user. A duplicate telegram_id or referral_code fails
// with ErrConflict.
func (r *Users) Create(ctx context.Context, u *models.User) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (telegram_id, username, first_name, balance, referral_code, invited_by, is_admin, is_subscribed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, joined_at`,
		u.TelegramID, u.Username, u.FirstName, u.Balance, u.ReferralCode, u.InvitedBy, u.IsAdmin, u.IsSubscribed,
	).Scan(&u.ID, &u.JoinedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	logger.DB.Debug("user created",
		slog.String("event", "users.create"),
		slog.Int64("user_id", u.TelegramID),
		slog.Int64("invited_by", u.InvitedBy),
	)
	return nil
}

// AdjustBalance applies delta in a single guarded UPDATE. The statement only
// matches when the resulting balance stays non-negative, so concurrent
// mutations on the same identity never read a stale balance.
func (r *Users) AdjustBalance(ctx context.Context, telegramID, delta int64) (int64, error) {
	var balance int64
	err := r.db.QueryRowxContext(ctx,
		`UPDATE users SET balance = balance + $1
		 WHERE telegram_id = $2 AND balance + $1 >= 0
		 RETURNING balance`,
		delta, telegramID,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the user is missing or the debit would overdraw.
		if _, getErr := r.GetByTelegramID(ctx, telegramID); getErr != nil {
			return 0, getErr
		}
		return 0, ErrInsufficientFunds
	}
	if err != nil {
		return 0, fmt.Errorf("adjust balance: %w", err)
	}
	logger.DB.Debug("balance adjusted",
		slog.String("event", "users.balance"),
		slog.Int64("user_id", telegramID),
		slog.Int64("delta", delta),
		slog.Int64("balance", balance),
	)
	return balance, nil
}

// SetSubscribed persists the cached entitlement flag.
func (r *Users) SetSubscribed(ctx context.Context, telegramID int64, subscribed bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_subscribed = $1 WHERE telegram_id = $2`,
		subscribed, telegramID)
	if err != nil {
		return fmt.Errorf("set subscribed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of users.
func (r *Users) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// CountJoinedOn returns how many users joined on the given day.
func (r *Users) CountJoinedOn(ctx context.Context, day time.Time) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM users WHERE joined_at = $1::date`,
		day.Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("count users joined on: %w", err)
	}
	return n, nil
}

// CountInvitees returns how many users name the given identity as inviter.
func (r *Users) CountInvitees(ctx context.Context, telegramID int64) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM users WHERE invited_by = $1`, telegramID)
	if err != nil {
		return 0, fmt.Errorf("count invitees: %w", err)
	}
	return n, nil
}
