package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/contre95/dropzone/src/features/watching"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MessageSender is the part of the bot API used to send messages.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends outcomes to a chat.
type Telegram struct {
	bot    MessageSender
	chatID int64
}

func NewTelegram(bot MessageSender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, o watching.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, FormatMessage(o))); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// FormatMessage renders an outcome as a short plain text message.
func FormatMessage(o watching.Outcome) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s: %s\n", statusIcon(o.Status), o.Watcher, filepath.Base(o.Path))
	fmt.Fprintf(&sb, "Status: %s", o.Status)
	if o.Summary != "" {
		fmt.Fprintf(&sb, "\n%s", o.Summary)
	}
	if o.OutputPath != "" {
		fmt.Fprintf(&sb, "\n→ %s", o.OutputPath)
	}
	if o.Error != "" {
		fmt.Fprintf(&sb, "\nError: %s", o.Error)
	}
	return sb.String()
}

func statusIcon(s watching.Status) string {
	switch s {
	case watching.StatusProcessed:
		return "✅"
	case watching.StatusFailed:
		return "❌"
	case watching.StatusTimedOut:
		return "⏱"
	case watching.StatusUnstable, watching.StatusDisappeared:
		return "⚠️"
	default:
		return "ℹ️"
	}
}
