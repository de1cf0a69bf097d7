// Package flows implements the multi-step admin conversations on top of the
// in-memory FSM.
package flows

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/vkotov/clipcoin/bot/service"
	"github.com/vkotov/clipcoin/bot/storage"
	"github.com/vkotov/clipcoin/core/telegram/helpers"
	"github.com/vkotov/clipcoin/core/telegram/state"
)

const (
	StateGrantUser   state.State = "grant_user"
	StateGrantAmount state.State = "grant_amount"
)

const tempGrantTarget = "grant_target"

// GrantFlow walks an admin through crediting coins to an account: first the
// target's Telegram ID, then the amount.
type GrantFlow struct {
	fsm    state.Manager
	users  *service.UserService
	notify func(c tele.Context, userID int64, text string)
}

func NewGrantFlow(fsm state.Manager, users *service.UserService) *GrantFlow {
	return &GrantFlow{fsm: fsm, users: users, notify: helpers.NotifyUser}
}

// Register installs the step handlers into the process-wide FSM table.
func (f *GrantFlow) Register() {
	state.RegisterHandler(StateGrantUser, f.stepUser)
	state.RegisterHandler(StateGrantAmount, f.stepAmount)
}

// Start opens the conversation.
func (f *GrantFlow) Start(c tele.Context) error {
	f.fsm.SetState(c.Sender().ID, StateGrantUser)
	return helpers.SendText(c, "👤 Enter the user's Telegram ID:")
}

func (f *GrantFlow) stepUser(c tele.Context) error {
	senderID := c.Sender().ID

	targetID, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil {
		// Stay on this step.
		return helpers.SendText(c, "❌ That does not look like an ID. Enter a number:")
	}

	ctx := helpers.BuildContext(c)
	target, err := f.users.GetUserByTelegramID(ctx, targetID)
	if errors.Is(err, storage.ErrNotFound) {
		f.fsm.Clear(senderID)
		return helpers.SendText(c, "❌ User not found.")
	}
	if err != nil {
		return helpers.SendText(c, "⚠️ Something went wrong. Try again:")
	}

	f.fsm.SetTemp(senderID, tempGrantTarget, targetID)
	f.fsm.SetState(senderID, StateGrantAmount)
	return helpers.SendText(c, fmt.Sprintf("👤 User: %s\n💎 Enter the amount of coins:", target.FirstName))
}

func (f *GrantFlow) stepAmount(c tele.Context) error {
	senderID := c.Sender().ID

	amount, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil || amount <= 0 {
		return helpers.SendText(c, "❌ Enter a positive whole number:")
	}

	targetID, ok := f.fsm.GetTempInt64(senderID, tempGrantTarget)
	if !ok {
		f.fsm.Clear(senderID)
		return helpers.SendText(c, "⚠️ The conversation was lost. Start over.")
	}

	ctx := helpers.BuildContext(c)
	res, err := f.users.Grant(ctx, targetID, amount)
	if errors.Is(err, storage.ErrNotFound) {
		f.fsm.Clear(senderID)
		return helpers.SendText(c, "❌ User not found.")
	}
	if err != nil {
		return helpers.SendText(c, "⚠️ Something went wrong. Try again:")
	}

	f.fsm.Clear(senderID)

	f.notify(c, targetID, fmt.Sprintf(
		"🎉 An administrator granted you %d coins!\n💎 New balance: %d", amount, res.NewBalance))

	return helpers.SendText(c, fmt.Sprintf(
		"✅ Granted %d coins to %s!\n💎 New balance: %d", amount, res.Target.FirstName, res.NewBalance))
}
