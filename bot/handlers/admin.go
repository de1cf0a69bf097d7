package handlers

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/vkotov/clipcoin/core/telegram/helpers"
)

// AdminPanel shows the admin keyboard.
func (h *Handlers) AdminPanel(c tele.Context) error {
	return helpers.SendText(c, "⚙️ Admin panel", &tele.SendOptions{ReplyMarkup: AdminMenu()})
}

// AdminStats replies with the population snapshot.
func (h *Handlers) AdminStats(c tele.Context) error {
	ctx := helpers.BuildContext(c)

	t, err := h.stats.Totals(ctx)
	if err != nil {
		return h.GenericFailure(c)
	}

	return helpers.SendText(c, fmt.Sprintf(
		"📊 Bot statistics\n\n"+
			"👤 Users: %d\n"+
			"🆕 New today: %d\n"+
			"🎬 Videos: %d",
		t.Users, t.NewToday, t.Videos))
}

// BackToMain returns from the admin panel to the main menu.
func (h *Handlers) BackToMain(c tele.Context) error {
	return helpers.SendText(c, "🔙 Main menu", &tele.SendOptions{ReplyMarkup: MainMenu(h.IsAdmin(c))})
}
