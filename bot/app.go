// Package bot wires the application together: storage, services, the
// subscription gate, conversations, and the Telegram routing table.
package bot

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vkotov/clipcoin/bot/config"
	"github.com/vkotov/clipcoin/bot/flows"
	"github.com/vkotov/clipcoin/bot/handlers"
	"github.com/vkotov/clipcoin/bot/service"
	"github.com/vkotov/clipcoin/bot/storage"
	"github.com/vkotov/clipcoin/bot/subscription"
	"github.com/vkotov/clipcoin/core/bootstrap"
	coretelegram "github.com/vkotov/clipcoin/core/telegram"
	"github.com/vkotov/clipcoin/core/telegram/commands"
	"github.com/vkotov/clipcoin/core/telegram/router"
	"github.com/vkotov/clipcoin/core/telegram/sender"
	"github.com/vkotov/clipcoin/core/telegram/state"
)

// App holds the composed application.
type App struct {
	cfg *config.Config
	db  *sqlx.DB

	fsm      state.Manager
	gate     *subscription.Gate
	handlers *handlers.Handlers
}

// New bootstraps infrastructure (logger, database, migrations, admin seed)
// and composes the application layers.
func New(cfg *config.Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   &cfg.Core,
		Database: cfg.Database,
		Seeders: []bootstrap.Seeder{
			&storage.AdminSeeder{TelegramID: cfg.Core.Telegram.AdminID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	userRepo := storage.NewUsers(res.DB)
	videoRepo := storage.NewVideos(res.DB)

	usersSvc := service.NewUserService(userRepo, cfg.Core.Telegram.AdminID, cfg.App.Economy.ReferralReward)
	videosSvc := service.NewVideoService(videoRepo, userRepo, cfg.App.Economy.VideoPrice)
	statsSvc := service.NewStatsService(userRepo, videoRepo)

	gate := subscription.NewGate(cfg.App.ChannelID, userRepo)
	fsm := state.NewMemoryManager()

	grant := flows.NewGrantFlow(fsm, usersSvc)
	intake := flows.NewIntakeFlow(fsm, videosSvc)
	grant.Register()
	intake.Register()

	h := handlers.New(usersSvc, videosSvc, statsSvc, gate, grant, intake)

	return &App{
		cfg:      cfg,
		db:       res.DB,
		fsm:      fsm,
		gate:     gate,
		handlers: h,
	}, nil
}

// TelegramRunOptions builds the routing table and runtime options.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	h := a.handlers
	reg := coretelegram.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Start the bot",
		SkipGate:    true,
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     h.AdminPanel,
		Description: "Admin panel",
		AdminOnly:   true,
		Hidden:      true,
	})

	reg.RegisterButton(handlers.BtnGetVideo, commands.Command{Handler: h.GetVideo})
	reg.RegisterButton(handlers.BtnBalance, commands.Command{Handler: h.Profile})
	reg.RegisterButton(handlers.BtnMyInfo, commands.Command{Handler: h.Profile})
	reg.RegisterButton(handlers.BtnReferrals, commands.Command{Handler: h.Referrals})
	reg.RegisterButton(handlers.BtnAdminPanel, commands.Command{Handler: h.AdminPanel, AdminOnly: true})
	reg.RegisterButton(handlers.BtnStats, commands.Command{Handler: h.AdminStats, AdminOnly: true})
	reg.RegisterButton(handlers.BtnGrantCoins, commands.Command{Handler: h.GrantFlow().Start, AdminOnly: true})
	reg.RegisterButton(handlers.BtnAddVideo, commands.Command{Handler: h.IntakeFlow().Start, AdminOnly: true})
	reg.RegisterButton(handlers.BtnMainMenu, commands.Command{Handler: h.BackToMain})

	if err := reg.RegisterCallback(handlers.CallbackCheckSub, h.CheckSub); err != nil {
		return coretelegram.RunOptions{}, err
	}

	routes := router.TextRoutes(a.fsm, reg, router.TextOptions{
		Gate:         a.gate,
		OnGateReject: h.PromptSubscription,
		OnGateError:  h.GenericFailure,
		IsAdmin:      h.IsAdmin,
	})
	routes = append(routes, router.CommandRoutes(reg, router.CommandRouteOptions{
		Gate:          a.gate,
		OnGateReject:  h.PromptSubscription,
		OnGateError:   h.GenericFailure,
		IsAdmin:       h.IsAdmin,
		OnAdminReject: h.AccessDenied,
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:   &a.cfg.Core,
		Registry: reg,
		DispatcherOptions: sender.Options{
			QueueSize: a.cfg.App.Sender.QueueSize,
			Workers:   a.cfg.App.Sender.Workers,
		},
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Core, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.gate.SetChecker(rt.Bot)
			if rt.Bot != nil && rt.Bot.Me != nil {
				a.handlers.SetBotUsername(rt.Bot.Me.Username)
			}
			return nil
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			return a.db.Close()
		},
	}, nil
}
