package handlers

import (
	tele "gopkg.in/telebot.v4"

	"github.com/vkotov/clipcoin/core/telegram/helpers"
	"github.com/vkotov/clipcoin/core/telegram/keyboard"
)

// PromptSubscription is the gate's rejection reply: a link to the channel
// plus a recheck button.
func (h *Handlers) PromptSubscription(c tele.Context) error {
	var rows [][]keyboard.InlineBtn
	if url := h.gate.ChannelURL(); url != "" {
		rows = append(rows, []keyboard.InlineBtn{{Text: "🔥 Subscribe", URL: url}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: "✅ I subscribed", Unique: CallbackCheckSub}})

	return helpers.SendText(c,
		"📢 To use the bot, subscribe to our channel first:",
		&tele.SendOptions{ReplyMarkup: keyboard.InlineButtonsRows(rows...)})
}

// CheckSub handles the recheck button: a forced live membership check. The
// callback is already acknowledged by the router.
func (h *Handlers) CheckSub(c tele.Context) error {
	ok, err := h.gate.Refresh(c)
	if err != nil {
		return h.GenericFailure(c)
	}
	if !ok {
		return helpers.SendText(c, "❌ Subscription not found. Subscribe and tap the button again.")
	}

	return helpers.SendText(c, "✅ Subscription confirmed! Use the menu below.",
		&tele.SendOptions{ReplyMarkup: MainMenu(h.IsAdmin(c))})
}
