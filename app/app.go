// Package app wires the vocabulary bot together.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/lexibot/app/bot"
	appconfig "github.com/m3rciful/lexibot/app/config"
	"github.com/m3rciful/lexibot/app/conversation"
	"github.com/m3rciful/lexibot/app/words"
	"github.com/m3rciful/lexibot/core/bootstrap"
	corecmd "github.com/m3rciful/lexibot/core/cmd"
	"github.com/m3rciful/lexibot/core/keyed"
	tg "github.com/m3rciful/lexibot/core/telegram"
	tghelpers "github.com/m3rciful/lexibot/core/telegram/helpers"
	"github.com/m3rciful/lexibot/core/telegram/router"
	"github.com/m3rciful/lexibot/core/telegram/ui"
	"github.com/m3rciful/lexibot/migrations"

	tele "gopkg.in/telebot.v4"
)

const textRateLimited = "Too many requests, slow down a little."

// App owns the long-lived components of the bot.
type App struct {
	cfg *appconfig.Config
	db  *sqlx.DB
	bot *bot.Bot
	seq *keyed.Sequencer[int64]
}

// LoadConfig adapts appconfig.Load to the runner.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	return appconfig.Load(path)
}

// Bootstrap initialises logging, the database and migrations, then builds the app.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*appconfig.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: migrations.FS(),
	})
	if err != nil {
		return nil, err
	}
	return New(cfg, res.DB), nil
}

// New builds the app over an open database.
func New(cfg *appconfig.Config, db *sqlx.DB) *App {
	store := words.NewStore(db)
	engine := conversation.New(store, conversation.Options{
		TranslationLimit:    cfg.Dictionary.TranslationDisplayLimit,
		PartOfSpeechColumns: cfg.Dictionary.PartOfSpeechColumns,
	})
	return &App{
		cfg: cfg,
		db:  db,
		bot: bot.New(engine, store),
		seq: keyed.NewSequencer[int64](),
	}
}

// TelegramRunOptions assembles the registry, routes and middleware chain.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()
	reg := tg.NewRegistry()
	if err := a.bot.Register(reg); err != nil {
		return tg.RunOptions{}, fmt.Errorf("app: register handlers: %w", err)
	}

	textOpts, cbOpts := ui.RouteOptions(a.bot)
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: core.Telegram.AdminID})
	routes = append(routes, router.TextRoutes(a.bot, reg, textOpts)...)
	routes = append(routes, router.CallbackRoute(reg, cbOpts))

	return tg.RunOptions{
		Config:            core,
		Registry:          reg,
		DispatcherOptions: tg.DispatcherOptionsFrom(core.Sender),
		Sequencer:         a.seq,
		Middlewares:       tg.DefaultMiddlewares(core, onRateLimited, a.seq),
		Routes:            routes,
	}, nil
}

// Close releases the database once the bot stopped.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func onRateLimited(c tele.Context) error {
	return tghelpers.Notify(c, textRateLimited)
}
