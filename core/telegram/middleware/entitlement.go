package middleware

import (
	"github.com/vkotov/clipcoin/core/logger"
	tghelpers "github.com/vkotov/clipcoin/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Entitlement answers whether a user is currently allowed to use gated
// features. Implementations fail closed: an external check error yields
// (false, nil) and is logged by the implementation itself. A non-nil error
// indicates a storage failure that is not locally recoverable.
type Entitlement interface {
	IsEntitled(c tele.Context) (bool, error)
}

// EntitlementOptions configures the subscription gate middleware.
type EntitlementOptions struct {
	Gate Entitlement
	// OnReject is invoked for users that are not entitled; typically it
	// sends the subscription prompt.
	OnReject tele.HandlerFunc
	// OnError is invoked when the entitlement check fails with a storage
	// error; typically a generic failure reply.
	OnError tele.HandlerFunc
}

// RequireEntitled gates downstream handlers behind the subscription check.
// It is composed once per routing decision, not per handler.
func RequireEntitled(opts EntitlementOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.Gate == nil {
				return next(c)
			}
			ok, err := opts.Gate.IsEntitled(c)
			if err != nil {
				ctx := tghelpers.BuildContext(c)
				logger.Error(ctx, "tg", "gate.check",
					slog.String("status", "fail"),
					slog.Int64("user_id", c.Sender().ID),
					slog.String("err", err.Error()),
				)
				if opts.OnError != nil {
					return opts.OnError(c)
				}
				return nil
			}
			if !ok {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
