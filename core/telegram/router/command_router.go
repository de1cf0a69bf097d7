package router

import (
	"github.com/vkotov/clipcoin/core/logger"
	tg "github.com/vkotov/clipcoin/core/telegram"
	"github.com/vkotov/clipcoin/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how slash commands are wrapped and exposed.
type CommandRouteOptions struct {
	// Gate applies the subscription check to every command except those
	// registered with SkipGate (the initial-contact command).
	Gate         middleware.Entitlement
	OnGateReject tele.HandlerFunc
	OnGateError  tele.HandlerFunc

	IsAdmin       middleware.AdminResolver
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOpts := middleware.AdminOptions{
		IsAdmin:  opts.IsAdmin,
		OnReject: opts.OnAdminReject,
	}
	gateOpts := middleware.EntitlementOptions{
		Gate:     opts.Gate,
		OnReject: opts.OnGateReject,
		OnError:  opts.OnGateError,
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		h := def.Handler
		if def.AdminOnly {
			h = middleware.AdminOnlyMiddleware(adminOpts)(h)
		}
		if !def.SkipGate {
			h = middleware.RequireEntitled(gateOpts)(h)
		}
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler:  h,
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("buttons", len(reg.ButtonLabels())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)

	return routes
}
