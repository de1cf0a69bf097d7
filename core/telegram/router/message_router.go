package router

import (
	"time"

	tg "github.com/vkotov/clipcoin/core/telegram"
	"github.com/vkotov/clipcoin/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM defines the minimal interface for the conversation state manager.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls routing of text and video updates.
type TextOptions struct {
	// Gate is consulted after the open-conversation check and before any
	// entry point or command matching. Nil disables gating.
	Gate middleware.Entitlement
	// OnGateReject is invoked for users that fail the gate (subscription
	// prompt). OnGateError handles storage failures during the check.
	OnGateReject tele.HandlerFunc
	OnGateError  tele.HandlerFunc
	// IsAdmin guards admin-only buttons at match time. When nil, admin-only
	// buttons never match.
	IsAdmin middleware.AdminResolver

	UnknownText  tele.HandlerFunc
	UnknownVideo tele.HandlerFunc
}

// TextRoutes builds handlers for text and video routing. Priority is
// explicit and ordered: open conversation step, then the subscription gate,
// then reply-button entry points in declaration order, then slash-command
// aliases, then the fallback.
func TextRoutes(fsmMgr FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	checkGate := func(c tele.Context) (bool, error) {
		if opts.Gate == nil {
			return true, nil
		}
		return opts.Gate.IsEntitled(c)
	}

	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if fsmMgr != nil && fsmMgr.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "fsm", start, "", "", func() error {
				return fsmMgr.ManagerHandler(c)
			})
		}

		ok, err := checkGate(c)
		if err != nil {
			return handleWithSummary(c, "gate", start, "fail", "", func() error {
				if opts.OnGateError != nil {
					return opts.OnGateError(c)
				}
				return nil
			})
		}
		if !ok {
			return handleWithSummary(c, "gate", start, "skip", "", func() error {
				if opts.OnGateReject != nil {
					return opts.OnGateReject(c)
				}
				return nil
			})
		}

		if reg != nil {
			if cmd, found := reg.LookupButton(text); found && cmd.Handler != nil {
				if cmd.AdminOnly && (opts.IsAdmin == nil || !opts.IsAdmin(c)) {
					// Admin-only entry points never match for other senders.
					logHandlerSummary(c, "button."+normalizeHandlerName(text), start, "skip", "ok", nil)
					return nil
				}
				name := "button." + normalizeHandlerName(text)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if key, cmd, found := reg.LookupCommand(text); found && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	videoHandler := func(c tele.Context) error {
		start := time.Now()
		if fsmMgr != nil && fsmMgr.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "fsm_video", start, "", "", func() error {
				return fsmMgr.ManagerHandler(c)
			})
		}
		if opts.UnknownVideo != nil {
			return handleWithSummary(c, "unexpected_video", start, "", "", func() error {
				return opts.UnknownVideo(c)
			})
		}
		logHandlerSummary(c, "unexpected_video", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  handler,
		},
		{
			Endpoint: tele.OnVideo,
			Handler:  videoHandler,
		},
	}
}
