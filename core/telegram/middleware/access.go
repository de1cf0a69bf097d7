package middleware

import tele "gopkg.in/telebot.v4"

// AdminResolver reports whether the sender of the update is an administrator.
// Implementations typically consult the account's stored admin flag.
type AdminResolver func(c tele.Context) bool

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	IsAdmin  AdminResolver
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware ensures that only administrators can invoke downstream
// handlers. The check runs at match time, so admin-only entry points are
// invisible to everyone else.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.IsAdmin != nil && !opts.IsAdmin(c) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
