package handlers

import (
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/vkotov/clipcoin/bot/storage"
	"github.com/vkotov/clipcoin/core/telegram/helpers"
)

// GetVideo dispenses a random video against the sender's balance. The debit
// happens before delivery; a delivery failure leaves the charge standing.
func (h *Handlers) GetVideo(c tele.Context) error {
	ctx := helpers.BuildContext(c)

	d, err := h.videos.Dispense(ctx, c.Sender().ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return helpers.SendText(c, "⚠️ Please start with /start first.")
	case errors.Is(err, storage.ErrInsufficientFunds):
		return helpers.SendText(c, fmt.Sprintf(
			"❌ Not enough coins!\n💎 Price: %d, your balance: %d\n\n"+
				"👥 Invite a friend with your referral link and get +%d coins!",
			d.Price, d.Balance, h.users.ReferralReward()))
	case errors.Is(err, storage.ErrEmptyPool):
		return helpers.SendText(c, "😢 No videos available yet. Check back later!")
	case err != nil:
		return h.GenericFailure(c)
	}

	if err := helpers.SendVideo(c, d.Video.FileID, "🎥 Your video!"); err != nil {
		return fmt.Errorf("deliver video: %w", err)
	}

	return helpers.SendText(c, fmt.Sprintf(
		"✅ Done!\n💎 Remaining balance: %d coins", d.Balance))
}
