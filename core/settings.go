package core

import "time"

// Settings represents the main configuration for the application
type Settings struct {
	Telegram TelegramSettings
	Dex      DexSettings
	Watcher  WatcherSettings
	Database DatabaseSettings
}

// TelegramSettings holds configuration for the Telegram bot
type TelegramSettings struct {
	Token string
}

// DexSettings holds configuration for the price data client
type DexSettings struct {
	BaseURL     string        // price API base endpoint
	Timeout     time.Duration // per-request bound
	Retries     int           // extra attempts on transient failures
	Concurrency int           // parallel fetches per cycle
}

// WatcherSettings holds configuration for the polling loop
type WatcherSettings struct {
	Interval     time.Duration
	InitialDelay time.Duration
}

// DatabaseSettings selects and locates the watch storage backend
type DatabaseSettings struct {
	Driver string // "buntdb" or "sqlite"
	Path   string
}
