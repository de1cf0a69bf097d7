// Package subscription gates bot usage on membership in a Telegram channel.
package subscription

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/vkotov/clipcoin/bot/storage"
	"github.com/vkotov/clipcoin/core/logger"
	"github.com/vkotov/clipcoin/core/telegram/helpers"
)

// MembershipChecker answers channel membership questions. *tele.Bot
// satisfies it.
type MembershipChecker interface {
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
}

// Gate caches the subscription flag sticky-true: once an account has been
// seen subscribed the external check is never repeated for it. When the
// checker or the external call fails, the gate fails closed.
type Gate struct {
	channel string
	users   storage.UserStore

	mu      sync.RWMutex
	checker MembershipChecker
}

// NewGate constructs a gate for the given channel identifier. An empty
// identifier disables gating entirely.
func NewGate(channel string, users storage.UserStore) *Gate {
	return &Gate{channel: strings.TrimSpace(channel), users: users}
}

// SetChecker wires the live membership source. Called once the bot client
// exists; safe to call concurrently with gate checks.
func (g *Gate) SetChecker(mc MembershipChecker) {
	g.mu.Lock()
	g.checker = mc
	g.mu.Unlock()
}

// Enabled reports whether a channel is configured.
func (g *Gate) Enabled() bool {
	return g.channel != ""
}

// ChannelURL returns the public link for an @-named channel, or empty for
// numeric identifiers that have no public address.
func (g *Gate) ChannelURL() string {
	if name, ok := strings.CutPrefix(g.channel, "@"); ok {
		return "https://t.me/" + name
	}
	return ""
}

// IsEntitled implements the entitlement check for routed events. A cached
// subscribed flag short-circuits; otherwise the channel is consulted and a
// positive result is persisted. A non-nil error means the account store
// failed; external check failures fail closed with ok=false and a nil error.
func (g *Gate) IsEntitled(c tele.Context) (bool, error) {
	if !g.Enabled() {
		return true, nil
	}

	ctx := helpers.BuildContext(c)
	userID := c.Sender().ID

	u, err := g.users.GetByTelegramID(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}
	if u != nil && u.IsSubscribed {
		return true, nil
	}

	ok := g.checkLive(userID)
	if ok && u != nil {
		if err := g.users.SetSubscribed(ctx, userID, true); err != nil {
			logger.GATE.Warn("persist subscription flag failed",
				slog.String("event", "gate.persist.fail"),
				slog.Int64("user_id", userID),
				slog.Any("err", err),
			)
		}
	}
	return ok, nil
}

// Refresh forces a live membership check, bypassing the cached flag, and
// persists a positive result. Used by the recheck callback.
func (g *Gate) Refresh(c tele.Context) (bool, error) {
	if !g.Enabled() {
		return true, nil
	}

	userID := c.Sender().ID
	ok := g.checkLive(userID)
	if ok {
		ctx := helpers.BuildContext(c)
		if err := g.users.SetSubscribed(ctx, userID, true); err != nil &&
			!errors.Is(err, storage.ErrNotFound) {
			return ok, err
		}
	}
	return ok, nil
}

func (g *Gate) checkLive(userID int64) bool {
	g.mu.RLock()
	mc := g.checker
	g.mu.RUnlock()
	if mc == nil {
		logger.GATE.Warn("membership checker not wired, failing closed",
			slog.String("event", "gate.check.unwired"),
			slog.Int64("user_id", userID),
		)
		return false
	}

	member, err := mc.ChatMemberOf(channelRecipient(g.channel), &tele.User{ID: userID})
	if err != nil {
		logger.GATE.Warn("membership check failed, failing closed",
			slog.String("event", "gate.check.fail"),
			slog.String("channel", g.channel),
			slog.Int64("user_id", userID),
			slog.Any("err", err),
		)
		return false
	}

	switch member.Role {
	case tele.Creator, tele.Administrator, tele.Member:
		return true
	default:
		return false
	}
}

// channelRecipient passes the configured channel identifier ("@name" or a
// numeric chat ID) to the API verbatim.
type channelRecipient string

func (r channelRecipient) Recipient() string { return string(r) }
