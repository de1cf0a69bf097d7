package handlers

import (
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/vkotov/clipcoin/bot/storage"
	"github.com/vkotov/clipcoin/core/telegram/helpers"
)

// Profile shows the sender's account card.
func (h *Handlers) Profile(c tele.Context) error {
	ctx := helpers.BuildContext(c)

	p, err := h.users.GetProfile(ctx, c.Sender().ID)
	if errors.Is(err, storage.ErrNotFound) {
		return helpers.SendText(c, "⚠️ Please start with /start first.")
	}
	if err != nil {
		return h.GenericFailure(c)
	}

	u := p.User
	return helpers.SendText(c, fmt.Sprintf(
		"👤 Your profile\n\n"+
			"🆔 ID: %d\n"+
			"👤 Name: %s\n"+
			"💎 Balance: %d coins\n"+
			"👥 Referrals: %d\n"+
			"🔗 Referral code: %s\n"+
			"📅 Joined: %s",
		u.TelegramID, u.FirstName, u.Balance, p.Invitees,
		u.ReferralCode, u.JoinedAt.Format("2006-01-02")))
}

// Referrals shows the sender's referral link and how much it pays.
func (h *Handlers) Referrals(c tele.Context) error {
	ctx := helpers.BuildContext(c)

	p, err := h.users.GetProfile(ctx, c.Sender().ID)
	if errors.Is(err, storage.ErrNotFound) {
		return helpers.SendText(c, "⚠️ Please start with /start first.")
	}
	if err != nil {
		return h.GenericFailure(c)
	}

	return helpers.SendText(c, fmt.Sprintf(
		"👥 Your referrals: %d\n"+
			"💎 Each invited friend pays you +%d coins.\n\n"+
			"🔗 Your link:\n%s",
		p.Invitees, h.users.ReferralReward(),
		h.referralLink(p.User.ReferralCode)))
}
