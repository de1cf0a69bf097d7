package handlers

import (
	tele "gopkg.in/telebot.v4"

	"github.com/vkotov/clipcoin/bot/flows"
	"github.com/vkotov/clipcoin/bot/models"
	"github.com/vkotov/clipcoin/bot/service"
	"github.com/vkotov/clipcoin/bot/subscription"
	"github.com/vkotov/clipcoin/core/telegram/helpers"
)

// Handlers bundles the event handlers with their dependencies.
type Handlers struct {
	users  *service.UserService
	videos *service.VideoService
	stats  *service.StatsService
	gate   *subscription.Gate
	grant  *flows.GrantFlow
	intake *flows.IntakeFlow

	// botName is the bot's username, learned once the client connects.
	// Referral deep links are built from it.
	botName string
	notify  func(c tele.Context, userID int64, text string)
}

func New(
	users *service.UserService,
	videos *service.VideoService,
	stats *service.StatsService,
	gate *subscription.Gate,
	grant *flows.GrantFlow,
	intake *flows.IntakeFlow,
) *Handlers {
	return &Handlers{
		users:  users,
		videos: videos,
		stats:  stats,
		gate:   gate,
		grant:  grant,
		intake: intake,
		notify: helpers.NotifyUser,
	}
}

// SetBotUsername records the connected bot's username for deep links.
func (h *Handlers) SetBotUsername(name string) {
	h.botName = name
}

// GrantFlow exposes the grant conversation entry point.
func (h *Handlers) GrantFlow() *flows.GrantFlow { return h.grant }

// IntakeFlow exposes the video intake conversation entry point.
func (h *Handlers) IntakeFlow() *flows.IntakeFlow { return h.intake }

// IsAdmin resolves the admin flag from the account at match time, so a
// freshly revoked admin loses the panel without a restart.
func (h *Handlers) IsAdmin(c tele.Context) bool {
	ctx := helpers.BuildContext(c)
	u, err := helpers.CurrentUser[*models.User](ctx, h.users, c.Sender().ID)
	return err == nil && u.IsAdmin
}

// GenericFailure is the catch-all reply for storage failures.
func (h *Handlers) GenericFailure(c tele.Context) error {
	return helpers.SendText(c, "⚠️ Something went wrong. Please try again.")
}

// AccessDenied replies to non-admins hitting admin commands.
func (h *Handlers) AccessDenied(c tele.Context) error {
	return helpers.SendText(c, "❌ Access denied.")
}
