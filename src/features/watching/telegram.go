package watching

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramHandler handles Telegram commands for the watchers
type TelegramHandler struct {
	service *Service
}

// NewTelegramHandler creates a new Telegram handler for the watchers
func NewTelegramHandler(service *Service) *TelegramHandler {
	return &TelegramHandler{service: service}
}

// HandleCommand processes watcher related Telegram commands
func (h *TelegramHandler) HandleCommand(bot *tgbotapi.BotAPI, chatID int64, command string, args string) error {
	var sb strings.Builder
	sb.WriteString("👀 *Watchers*\n\n")
	for _, s := range h.service.Stats() {
		fmt.Fprintf(&sb, "• *%s* (%s) %s\n  processed: %d, in flight: %d\n",
			s.Name, s.Processor, strings.Join(s.Extensions, " "), s.Processed, s.InFlight)
	}
	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := bot.Send(msg)
	return err
}

// GetCommands returns the available commands for this handler
func (h *TelegramHandler) GetCommands() map[string]string {
	return map[string]string{
		"watchers": "Show the watched folders and how many files they handled",
	}
}
