package capwatch

import (
	"capwatch/core"
)

// Option is a functional option for configuring a Bot instance
type Option func(*Bot)

// WithStorage sets the watch storage for the bot, by default it uses a local
// buntdb file called capwatch.db
func WithStorage(storage core.WatchStorage) Option {
	return func(bot *Bot) {
		bot.storage = storage
	}
}

// WithFeeder sets the price data source for the bot, by default the
// DexScreener client built from the settings
func WithFeeder(feeder core.Feeder) Option {
	return func(bot *Bot) {
		bot.feeder = feeder
	}
}

// WithNotifier registers a custom alert dispatcher, replacing the built-in
// Telegram notifier
func WithNotifier(notifier core.Notifier) Option {
	return func(bot *Bot) {
		bot.notifier = notifier
	}
}
