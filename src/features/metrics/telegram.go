package metrics

import (
	"fmt"
	"strings"

	"github.com/contre95/dropzone/src/features/watching"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramHandler handles Telegram commands for the metrics feature
type TelegramHandler struct {
	service *Service
}

// NewTelegramHandler creates a new Telegram handler for the metrics feature
func NewTelegramHandler(service *Service) *TelegramHandler {
	return &TelegramHandler{service: service}
}

// HandleCommand sends the outcome counts since startup
func (h *TelegramHandler) HandleCommand(bot *tgbotapi.BotAPI, chatID int64, command string, args string) error {
	overview := h.service.Overview()
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 %d files handled since startup\n", overview.Total)
	for _, w := range overview.Watchers {
		fmt.Fprintf(&sb, "\n%s: %d", w.Watcher, w.Total)
		for _, status := range watching.Statuses {
			if n := w.Statuses[status]; n > 0 {
				fmt.Fprintf(&sb, "\n  %s: %d", status, n)
			}
		}
	}
	_, err := bot.Send(tgbotapi.NewMessage(chatID, sb.String()))
	return err
}

// GetCommands returns the available commands for this handler
func (h *TelegramHandler) GetCommands() map[string]string {
	return map[string]string{
		"stats": "Show how many files each watcher handled since startup",
	}
}
