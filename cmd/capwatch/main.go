package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"capwatch"
	"capwatch/core"
	"capwatch/dexscreener"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xhit/go-str2duration/v2"
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:     "capwatch",
		Short:   "Market cap threshold alerts for Telegram",
		Version: "1.0.0",
	}

	rootCmd.AddCommand(buildRunCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot and the polling watcher",
		RunE:  runBot,
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		capwatch.DefaultLog.Debug(".env file not found, relying on system environment")
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	bot, err := capwatch.NewBot(settings)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return bot.Run(ctx)
}

func loadSettings() (*core.Settings, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	interval, err := durationEnv("CAPWATCH_POLL_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	initialDelay, err := durationEnv("CAPWATCH_POLL_INITIAL_DELAY", 5*time.Second)
	if err != nil {
		return nil, err
	}

	timeout, err := durationEnv("CAPWATCH_DEX_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}

	retries, err := intEnv("CAPWATCH_DEX_RETRIES", dexscreener.DefaultConfig().Retries)
	if err != nil {
		return nil, err
	}

	concurrency, err := intEnv("CAPWATCH_DEX_CONCURRENCY", 0)
	if err != nil {
		return nil, err
	}

	return &core.Settings{
		Telegram: core.TelegramSettings{Token: token},
		Dex: core.DexSettings{
			BaseURL:     os.Getenv("CAPWATCH_DEX_BASE_URL"),
			Timeout:     timeout,
			Retries:     retries,
			Concurrency: concurrency,
		},
		Watcher: core.WatcherSettings{
			Interval:     interval,
			InitialDelay: initialDelay,
		},
		Database: core.DatabaseSettings{
			Driver: os.Getenv("CAPWATCH_DB_DRIVER"),
			Path:   os.Getenv("CAPWATCH_DB"),
		},
	}, nil
}

// durationEnv reads a duration environment variable, accepting forms like
// "30s", "1m30s" or "2h"
func durationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := str2duration.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func intEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
