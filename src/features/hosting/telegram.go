package hosting

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/contre95/dropzone/src/features/config"
	"github.com/contre95/dropzone/src/features/metrics"
	"github.com/contre95/dropzone/src/features/watching"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramCommandHandler interface that each feature implements
type TelegramCommandHandler interface {
	HandleCommand(bot *tgbotapi.BotAPI, chatID int64, command string, args string) error
	GetCommands() map[string]string // Returns command -> description mapping
}

// TelegramBot answers commands from the allowed users and sends outcome notifications
type TelegramBot struct {
	bot      *tgbotapi.BotAPI
	config   *config.Manager
	handlers map[string]TelegramCommandHandler
	commands map[string]string // command -> feature
}

// NewTelegramBot creates a new Telegram bot instance
func NewTelegramBot(cfg *config.Manager, watchingService *watching.Service, metricsService *metrics.Service) (*TelegramBot, error) {
	return newTelegramBot(cfg, tgbotapi.APIEndpoint, watchingService, metricsService)
}

func newTelegramBot(cfg *config.Manager, endpoint string, watchingService *watching.Service, metricsService *metrics.Service) (*TelegramBot, error) {
	telegramConfig := cfg.Get().Telegram

	if !telegramConfig.Enabled {
		return nil, fmt.Errorf("telegram bot is disabled in configuration")
	}

	if telegramConfig.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(telegramConfig.Token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Telegram bot initialized", "username", bot.Self.UserName)

	telegramBot := &TelegramBot{
		bot:      bot,
		config:   cfg,
		handlers: make(map[string]TelegramCommandHandler),
		commands: make(map[string]string),
	}

	// Register feature handlers
	telegramBot.RegisterHandler("config", config.NewTelegramHandler(cfg))
	telegramBot.RegisterHandler("watching", watching.NewTelegramHandler(watchingService))
	telegramBot.RegisterHandler("metrics", metrics.NewTelegramHandler(metricsService))

	return telegramBot, nil
}

// API returns the underlying bot client, used to send notifications.
func (t *TelegramBot) API() *tgbotapi.BotAPI {
	return t.bot
}

// RegisterHandler registers a feature's command handler
func (t *TelegramBot) RegisterHandler(feature string, handler TelegramCommandHandler) {
	t.handlers[feature] = handler
	for command := range handler.GetCommands() {
		t.commands[command] = feature
	}
	slog.Debug("Registered Telegram handler", "feature", feature)
}

// Run listens for Telegram updates until ctx is cancelled
func (t *TelegramBot) Run(ctx context.Context) error {
	slog.Info("Starting Telegram bot listener")

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := t.bot.GetUpdatesChan(updateConfig)

	for {
		select {
		case update := <-updates:
			if update.Message != nil {
				go t.handleMessage(update)
			}
			if update.CallbackQuery != nil {
				go t.handleCallbackQuery(update)
			}
		case <-ctx.Done():
			slog.Info("Stopping Telegram bot listener")
			t.bot.StopReceivingUpdates()
			return nil
		}
	}
}

// handleMessage processes incoming messages
func (t *TelegramBot) handleMessage(update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID

	if !t.authorized(message.From, chatID) {
		return
	}

	if message.IsCommand() {
		t.handleCommand(chatID, message.Command(), message.CommandArguments())
		return
	}

	t.sendMessage(chatID, "🤖 Send /help to see available commands")
}

// authorized checks the sender against telegram.allowedUsers
func (t *TelegramBot) authorized(from *tgbotapi.User, chatID int64) bool {
	allowedUsers := t.config.Get().Telegram.AllowedUsers
	if len(allowedUsers) == 0 {
		slog.Warn("No allowed users configured", "chat_id", chatID)
		t.sendMessage(chatID, "❌ Access denied: No users configured. Please add users to the config.")
		return false
	}
	if from == nil {
		return false
	}

	username := from.UserName
	if username == "" {
		// Fallback to first name + last name
		username = from.FirstName
		if from.LastName != "" {
			username += " " + from.LastName
		}
	}
	if !slices.Contains(allowedUsers, username) {
		slog.Warn("Unauthorized user", "username", username, "chat_id", chatID)
		t.sendMessage(chatID, "Unknown user, please add your user to the config")
		return false
	}
	return true
}

// handleCommand processes bot commands
func (t *TelegramBot) handleCommand(chatID int64, command, args string) {
	slog.Debug("Processing command", "command", command, "args", args, "chat_id", chatID)

	switch command {
	case "help", "start", "menu":
		t.handleHelp(chatID)
	default:
		if err := t.routeCommand(command, args, chatID); err != nil {
			slog.Error("Failed to handle command", "command", command, "error", err)
			t.sendMessage(chatID, "❌ Failed to process command")
		}
	}
}

// routeCommand routes commands to the appropriate feature handler
func (t *TelegramBot) routeCommand(command, args string, chatID int64) error {
	feature, exists := t.commands[command]
	if !exists {
		t.sendMessage(chatID, "❌ Unknown command. Send /help to see available commands.")
		return nil
	}
	return t.handlers[feature].HandleCommand(t.bot, chatID, command, args)
}

// handleCallbackQuery runs the command behind a menu button
func (t *TelegramBot) handleCallbackQuery(update tgbotapi.Update) {
	callback := update.CallbackQuery
	defer func() {
		// Answer callback to remove loading state
		if _, err := t.bot.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
			slog.Debug("Failed to answer callback", "error", err)
		}
	}()

	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	if !t.authorized(callback.From, chatID) {
		return
	}
	if command, ok := strings.CutPrefix(callback.Data, "cmd_"); ok {
		t.handleCommand(chatID, command, "")
	}
}

// handleHelp lists the commands with a button for each
func (t *TelegramBot) handleHelp(chatID int64) {
	descriptions := make(map[string]string)
	for _, handler := range t.handlers {
		for command, description := range handler.GetCommands() {
			descriptions[command] = description
		}
	}
	commands := make([]string, 0, len(descriptions))
	for command := range descriptions {
		commands = append(commands, command)
	}
	sort.Strings(commands)

	var sb strings.Builder
	sb.WriteString("*🤖 Dropzone*\n\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, command := range commands {
		fmt.Fprintf(&sb, "/%s %s\n", command, t.escapeMarkdown(descriptions[command]))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("/"+command, "cmd_"+command),
		))
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := t.bot.Send(msg); err != nil {
		slog.Error("Failed to send menu", "error", err, "chat_id", chatID)
	}
}

// escapeMarkdown escapes the characters legacy Markdown treats as markup
func (t *TelegramBot) escapeMarkdown(text string) string {
	return strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[").Replace(text)
}

// sendMessage sends a message to the specified chat
func (t *TelegramBot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := t.bot.Send(msg)
	if err != nil {
		slog.Error("Failed to send message", "error", err, "chat_id", chatID)
	}
}
