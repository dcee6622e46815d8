// Package notification provides the Telegram alert dispatcher and the user
// command surface for managing watches.
package notification

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"capwatch/core"
	"capwatch/logger"

	tb "gopkg.in/tucnak/telebot.v2"
)

const pollingTimeout = 10 * time.Second

const helpText = "🆘 *Help*\n" +
	"• `/addtoken <contract>` – start tracking a contract address\n" +
	"• `/mytokens` – list your tracked contracts\n" +
	"• `/setthreshold <low> <mid> <high> [contract]` – update alert thresholds"

// Telegram implements the core.NotifierWithStart interface
type Telegram struct {
	storage  core.WatchStorage
	settings *core.Settings
	client   *tb.Bot
	log      logger.Logger
}

// NewTelegram creates and initializes a new Telegram service
func NewTelegram(storage core.WatchStorage, settings *core.Settings, log logger.Logger) (*Telegram, error) {
	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Telegram.Token,
		Poller:    &tb.LongPoller{Timeout: pollingTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Telegram{
		storage:  storage,
		settings: settings,
		client:   client,
		log:      log,
	}

	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}
	registerHandlers(client, bot)

	return bot, nil
}

// setupCommands configures available bot commands
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/start", Description: "Register and show usage"},
		{Text: "/help", Description: "Display help instructions"},
		{Text: "/addtoken", Description: "Track a contract address"},
		{Text: "/mytokens", Description: "List tracked contracts"},
		{Text: "/setthreshold", Description: "Update alert thresholds"},
	})
}

// registerHandlers registers all command handlers
func registerHandlers(client *tb.Bot, bot *Telegram) {
	client.Handle("/start", bot.StartHandle)
	client.Handle("/help", bot.HelpHandle)
	client.Handle("/addtoken", bot.AddTokenHandle)
	client.Handle("/mytokens", bot.MyTokensHandle)
	client.Handle("/setthreshold", bot.SetThresholdHandle)
}

// Start begins the Telegram receive loop
func (t *Telegram) Start() {
	go t.client.Start()
	t.log.Info("Telegram bot started")
}

// Notification methods
// -------------------

// Notify sends a Markdown message to the given chat
func (t *Telegram) Notify(chatID int64, text string) error {
	_, err := t.client.Send(&tb.Chat{ID: chatID}, text, tb.NoPreview)
	return err
}

// OnError logs dispatch-side errors
func (t *Telegram) OnError(err error) {
	t.log.WithError(err).Error("telegram error")
}

// Command handlers
// ---------------

// StartHandle greets a new user
func (t *Telegram) StartHandle(m *tb.Message) {
	t.sendMessage(m.Chat, "👋 Welcome! I alert you when a tracked token's market cap crosses your thresholds.\n\n"+helpText)
}

// HelpHandle displays available commands
func (t *Telegram) HelpHandle(m *tb.Message) {
	t.sendMessage(m.Chat, helpText)
}

// AddTokenHandle starts tracking a contract for the requesting user
func (t *Telegram) AddTokenHandle(m *tb.Message) {
	contract := strings.TrimSpace(m.Payload)
	if contract == "" {
		t.sendMessage(m.Chat, "⚠️ Usage: `/addtoken <contract_address>`")
		return
	}

	if !core.ValidContract(contract) {
		t.sendMessage(m.Chat, "❌ Invalid address.\n• EVM: `0x` + 40 hex\n• base58: 32–44 characters")
		return
	}

	watch := core.NewWatch(m.Chat.ID, senderUsername(m), contract)
	err := t.storage.CreateWatch(context.Background(), watch)
	switch {
	case err == nil:
		t.sendMessage(m.Chat, fmt.Sprintf("✅ Now tracking:\n`%s`", contract))
	case err == core.ErrWatchExists:
		t.sendMessage(m.Chat, fmt.Sprintf("ℹ️ This address is already on your list:\n`%s`", contract))
	default:
		t.log.WithError(err).Error("failed to create watch")
		t.sendMessage(m.Chat, "❌ Something went wrong, please try again.")
	}
}

// MyTokensHandle lists the user's tracked contracts with their thresholds
func (t *Telegram) MyTokensHandle(m *tb.Message) {
	watches, err := t.storage.Watches(context.Background(), core.WithChatID(m.Chat.ID))
	if err != nil {
		t.log.WithError(err).Error("failed to list watches")
		t.sendMessage(m.Chat, "❌ Something went wrong, please try again.")
		return
	}

	if len(watches) == 0 {
		t.sendMessage(m.Chat, "🗒️ You are not tracking anything yet. Add a contract with `/addtoken <contract>`.")
		return
	}

	lines := make([]string, 0, len(watches))
	for _, watch := range watches {
		lines = append(lines, fmt.Sprintf("• `%s` — thresholds: %.0f/%.0f/%.0f",
			watch.Contract, watch.ThresholdLow, watch.ThresholdMid, watch.ThresholdHigh))
	}

	t.sendMessage(m.Chat, "📄 *Your watchlist:*\n"+strings.Join(lines, "\n"))
}

// SetThresholdHandle updates the threshold triple for one or all of the
// user's watches
func (t *Telegram) SetThresholdHandle(m *tb.Message) {
	args := strings.Fields(m.Payload)
	if len(args) < 3 {
		t.sendMessage(m.Chat, "⚠️ Usage: `/setthreshold <low> <mid> <high> [contract]`")
		return
	}

	low, errLow := strconv.ParseFloat(args[0], 64)
	mid, errMid := strconv.ParseFloat(args[1], 64)
	high, errHigh := strconv.ParseFloat(args[2], 64)
	if errLow != nil || errMid != nil || errHigh != nil {
		t.sendMessage(m.Chat, "❌ low/mid/high must be numeric, e.g. `/setthreshold 500 1000 1500`")
		return
	}

	if !core.ValidThresholds(low, mid, high) {
		t.sendMessage(m.Chat, "❌ Rule: 0 < low ≤ mid ≤ high.")
		return
	}

	contract := ""
	if len(args) >= 4 {
		contract = args[3]
		if !core.ValidContract(contract) {
			t.sendMessage(m.Chat, "❌ Invalid address. EVM: `0x..` | base58: 32–44 characters.")
			return
		}
	}

	updated, err := t.storage.UpdateThresholds(context.Background(), m.Chat.ID, contract, low, mid, high)
	if err != nil {
		t.log.WithError(err).Error("failed to update thresholds")
		t.sendMessage(m.Chat, "❌ Something went wrong, please try again.")
		return
	}

	switch {
	case updated == 0 && contract != "":
		t.sendMessage(m.Chat, "❌ This contract is not on your list. Add it first with `/addtoken`.")
	case updated == 0:
		t.sendMessage(m.Chat, "🗒️ Add at least one contract first: `/addtoken <contract>`.")
	case contract != "":
		t.sendMessage(m.Chat, fmt.Sprintf("✅ Thresholds updated for `%s`: %.0f/%.0f/%.0f", contract, low, mid, high))
	default:
		t.sendMessage(m.Chat, fmt.Sprintf("✅ Thresholds updated for *all* your watches: %.0f/%.0f/%.0f", low, mid, high))
	}
}

// sendMessage sends a reply, logging delivery failures
func (t *Telegram) sendMessage(to *tb.Chat, text string) {
	if _, err := t.client.Send(to, text, tb.NoPreview); err != nil {
		t.log.WithError(err).Error("failed to send message")
	}
}

func senderUsername(m *tb.Message) string {
	if m.Sender == nil {
		return ""
	}
	return m.Sender.Username
}
