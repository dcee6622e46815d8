package capwatch

import (
	"context"
	"fmt"

	"capwatch/core"
	"capwatch/dexscreener"
	"capwatch/logger"
	"capwatch/notification"
	"capwatch/storage"
	"capwatch/watcher"
)

// DefaultLog is the default logger instance
var DefaultLog logger.Logger

const defaultDatabase = "capwatch.db"

// Bot wires storage, the price data client, the Telegram surface and the
// polling watcher together
type Bot struct {
	settings *core.Settings

	storage  core.WatchStorage
	feeder   core.Feeder
	notifier core.Notifier
	telegram core.NotifierWithStart

	watcher *watcher.Controller
}

// NewBot creates a new bot instance with the provided settings and
// dependencies
func NewBot(settings *core.Settings, options ...Option) (*Bot, error) {
	bot := &Bot{settings: settings}

	// Apply custom options
	for _, option := range options {
		option(bot)
	}

	if err := initializeStorage(bot); err != nil {
		return nil, err
	}

	if bot.feeder == nil {
		bot.feeder = dexscreener.NewClient(dexscreener.Config{
			BaseURL:     settings.Dex.BaseURL,
			Timeout:     settings.Dex.Timeout,
			Retries:     settings.Dex.Retries,
			Concurrency: settings.Dex.Concurrency,
		}, DefaultLog)
	}

	bot.watcher = watcher.NewController(bot.storage, bot.feeder, DefaultLog, settings.Watcher)

	if err := initializeNotifications(bot); err != nil {
		return nil, err
	}

	return bot, nil
}

// initializeStorage sets up the bot's watch storage
func initializeStorage(bot *Bot) error {
	if bot.storage != nil {
		return nil
	}

	cfg := bot.settings.Database
	path := cfg.Path
	if path == "" {
		path = defaultDatabase
	}

	var err error
	switch cfg.Driver {
	case "sqlite":
		bot.storage, err = storage.NewFromSQLite(path, storage.DefaultConfig())
	case "", "buntdb":
		bot.storage, err = storage.NewFromFile(path)
	default:
		return fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}
	return err
}

// initializeNotifications sets up the Telegram notifier when a token is
// configured and no custom notifier was injected
func initializeNotifications(bot *Bot) error {
	if bot.notifier == nil && bot.settings.Telegram.Token != "" {
		telegram, err := notification.NewTelegram(bot.storage, bot.settings, DefaultLog)
		if err != nil {
			return err
		}
		bot.telegram = telegram
		bot.notifier = telegram
	}

	if bot.notifier != nil {
		bot.watcher.SetNotifier(bot.notifier)
	}
	return nil
}

// Controller returns the watcher controller
func (b *Bot) Controller() *watcher.Controller {
	return b.watcher
}

// Storage returns the watch storage
func (b *Bot) Storage() core.WatchStorage {
	return b.storage
}

// Run starts the Telegram receive loop and the polling watcher, blocking
// until the context is canceled
func (b *Bot) Run(ctx context.Context) error {
	if b.telegram != nil {
		b.telegram.Start()
	}

	b.watcher.Start(ctx)
	defer b.watcher.Stop()

	<-ctx.Done()
	return nil
}
