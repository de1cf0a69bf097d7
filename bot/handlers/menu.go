// Package handlers maps Telegram events to the application services.
package handlers

import (
	tele "gopkg.in/telebot.v4"

	"github.com/vkotov/clipcoin/core/telegram/keyboard"
)

// Reply-keyboard button labels. The labels double as routing keys: an
// incoming text message matching a label dispatches to the bound handler.
const (
	BtnGetVideo   = "🎬 Get video"
	BtnBalance    = "💰 Balance"
	BtnReferrals  = "👥 Referrals"
	BtnMyInfo     = "ℹ️ My info"
	BtnAdminPanel = "⚙️ Admin panel"

	BtnStats      = "📊 Stats"
	BtnGrantCoins = "💎 Grant coins"
	BtnAddVideo   = "🎬 Add video"
	BtnMainMenu   = "🔙 Main menu"
)

// CallbackCheckSub is the unique of the subscription recheck button.
const CallbackCheckSub = "check_sub"

// MainMenu builds the persistent reply keyboard. Admins get an extra row.
func MainMenu(isAdmin bool) *tele.ReplyMarkup {
	rows := [][]string{
		{BtnGetVideo},
		{BtnBalance, BtnMyInfo},
		{BtnReferrals},
	}
	if isAdmin {
		rows = append(rows, []string{BtnAdminPanel})
	}
	return keyboard.ReplyButtons(rows...)
}

// AdminMenu builds the admin panel reply keyboard.
func AdminMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{BtnStats},
		[]string{BtnGrantCoins, BtnAddVideo},
		[]string{BtnMainMenu},
	)
}
