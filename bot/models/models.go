// Package models declares the persisted entities of the bot.
package models

import "time"

// User represents one chat identity with its coin balance.
type User struct {
	ID         int64  `db:"id"`
	TelegramID int64  `db:"telegram_id"`
	Username   string `db:"username"`
	FirstName  string `db:"first_name"`
	// Balance is a non-negative integer amount of coins. All mutations go
	// through storage.Users.AdjustBalance.
	Balance int64 `db:"balance"`
	// ReferralCode is minted once at creation and never changes.
	ReferralCode string `db:"referral_code"`
	// InvitedBy holds the inviter's Telegram ID, or 0 for organic signups.
	// Set once at creation, never mutated.
	InvitedBy int64 `db:"invited_by"`
	IsAdmin   bool  `db:"is_admin"`
	// IsSubscribed caches the last known channel-membership state.
	// Sticky-true: once set, the external check is skipped.
	IsSubscribed bool      `db:"is_subscribed"`
	JoinedAt     time.Time `db:"joined_at"`
}

// Video represents one distributable media reference in the shared pool.
// Videos are sampled at random and never removed; consumption is metered by
// debiting the requesting user's balance.
type Video struct {
	ID      int64     `db:"id"`
	FileID  string    `db:"file_id"`
	AddedAt time.Time `db:"added_at"`
}
