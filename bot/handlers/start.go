package handlers

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/vkotov/clipcoin/core/telegram/format"
	"github.com/vkotov/clipcoin/core/telegram/helpers"
)

// Start handles first contact. It registers the account (idempotently),
// credits the inviter when a referral payload resolves, and shows the main
// menu with the sender's own referral link.
func (h *Handlers) Start(c tele.Context) error {
	sender := c.Sender()
	payload := ""
	if msg := c.Message(); msg != nil {
		payload = strings.TrimSpace(msg.Payload)
	}

	ctx := helpers.BuildContext(c)
	reg, err := h.users.Register(ctx, sender.ID, sender.Username, sender.FirstName, payload)
	if err != nil {
		return h.GenericFailure(c)
	}

	if reg.Inviter != nil {
		h.notify(c, reg.Inviter.TelegramID, fmt.Sprintf(
			"🎉 New referral: %s!\n💎 +%d coins. New balance: %d",
			sender.FirstName, reg.Reward, reg.Inviter.Balance+reg.Reward))
	}

	u := reg.User
	name := mdEscape(u.FirstName)
	link := mdEscape(h.referralLink(u.ReferralCode))

	text := fmt.Sprintf(
		"👋 Hi, *%s*!\n\n"+
			"💎 Balance: %d coins\n"+
			"🔗 Your referral link:\n%s\n\n"+
			"🎬 Video: %d coins\n"+
			"👥 Referral bonus: +%d coins",
		name, u.Balance, link, h.videos.Price(), h.users.ReferralReward())

	return helpers.SendMD(c, text, MainMenu(u.IsAdmin))
}

func (h *Handlers) referralLink(code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", h.botName, code)
}

// mdEscape escapes user-controlled text for Markdown replies, falling back
// to the raw text when escaping fails.
func mdEscape(text string) string {
	escaped, err := format.EscapeMarkdown(text, format.MarkdownV1, "")
	if err != nil {
		return text
	}
	return escaped
}
