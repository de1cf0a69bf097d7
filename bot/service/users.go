// Package service implements the application services on top of the
// storage repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/vkotov/clipcoin/bot/models"
	"github.com/vkotov/clipcoin/bot/storage"
	"github.com/vkotov/clipcoin/core/logger"
)

// UserService handles account registration, referral resolution, and
// admin credits.
type UserService struct {
	users          storage.UserStore
	adminID        int64
	referralReward int64
}

// NewUserService constructs the user service.
func NewUserService(users storage.UserStore, adminID, referralReward int64) *UserService {
	return &UserService{
		users:          users,
		adminID:        adminID,
		referralReward: referralReward,
	}
}

// Registration is the outcome of a first-contact event.
type Registration struct {
	User    *models.User
	Created bool
	// Inviter is set when a referral code resolved and the inviter was
	// credited. The caller owes the inviter a best-effort notification.
	Inviter *models.User
	Reward  int64
}

// Register resolves a first contact. It is idempotent: an existing account is
// returned unchanged and no second referral credit ever happens. For a new
// identity it mints a fresh referral code, resolves the optional referral
// code to an inviter, credits the inviter, and creates the account. A code
// that resolves to nothing, or to the very identity being created, counts as
// no inviter rather than an error.
func (s *UserService) Register(ctx context.Context, telegramID int64, username, firstName, refCode string) (*Registration, error) {
	existing, err := s.users.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return &Registration{User: existing}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("register lookup: %w", err)
	}

	reg := &Registration{Created: true}
	var invitedBy int64

	refCode = strings.TrimSpace(refCode)
	if refCode != "" {
		inviter, refErr := s.users.GetByReferralCode(ctx, refCode)
		switch {
		case errors.Is(refErr, storage.ErrNotFound):
			// Unresolvable code: organic signup.
		case refErr != nil:
			return nil, fmt.Errorf("resolve referral code: %w", refErr)
		case inviter.TelegramID == telegramID:
			// The account being created cannot be its own inviter.
		default:
			invitedBy = inviter.TelegramID
			if _, credErr := s.users.AdjustBalance(ctx, inviter.TelegramID, s.referralReward); credErr != nil {
				return nil, fmt.Errorf("credit inviter: %w", credErr)
			}
			reg.Inviter = inviter
			reg.Reward = s.referralReward
			logger.SVCUsers.Info("referral credited",
				slog.String("event", "users.referral"),
				slog.Int64("user_id", telegramID),
				slog.Int64("invited_by", inviter.TelegramID),
				slog.Int64("amount", s.referralReward),
			)
		}
	}

	u := &models.User{
		TelegramID:   telegramID,
		Username:     username,
		FirstName:    firstName,
		ReferralCode: mintReferralCode(),
		InvitedBy:    invitedBy,
		IsAdmin:      telegramID == s.adminID,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Lost a race with another registration for the same identity.
			existing, getErr := s.users.GetByTelegramID(ctx, telegramID)
			if getErr != nil {
				return nil, fmt.Errorf("register after conflict: %w", getErr)
			}
			return &Registration{User: existing}, nil
		}
		return nil, fmt.Errorf("register create: %w", err)
	}
	reg.User = u

	logger.SVCUsers.Info("user registered",
		slog.String("event", "users.register"),
		slog.Int64("user_id", telegramID),
		slog.Int64("invited_by", invitedBy),
	)
	return reg, nil
}

// GetUserByTelegramID fetches an account by Telegram identity.
func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return s.users.GetByTelegramID(ctx, telegramID)
}

// Profile aggregates the account with its invitee count.
type Profile struct {
	User     *models.User
	Invitees int64
}

// GetProfile returns the account plus referral statistics.
func (s *UserService) GetProfile(ctx context.Context, telegramID int64) (*Profile, error) {
	u, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	invitees, err := s.users.CountInvitees(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: u, Invitees: invitees}, nil
}

// GrantResult is the outcome of an admin credit.
type GrantResult struct {
	Target     *models.User
	NewBalance int64
}

// Grant credits the target's balance by amount. Amount must already be
// validated positive by the caller.
func (s *UserService) Grant(ctx context.Context, targetID, amount int64) (*GrantResult, error) {
	target, err := s.users.GetByTelegramID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	balance, err := s.users.AdjustBalance(ctx, targetID, amount)
	if err != nil {
		return nil, fmt.Errorf("grant credit: %w", err)
	}
	logger.SVCUsers.Info("coins granted",
		slog.String("event", "users.grant"),
		slog.Int64("target_id", targetID),
		slog.Int64("amount", amount),
		slog.Int64("balance", balance),
	)
	return &GrantResult{Target: target, NewBalance: balance}, nil
}

// ReferralReward exposes the configured credit per referral.
func (s *UserService) ReferralReward() int64 {
	return s.referralReward
}

func mintReferralCode() string {
	return uuid.NewString()[:8]
}
