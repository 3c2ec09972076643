package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"

	"figuresmith/internal/domain"
)

const maxMessageLen = 4096

// Notifier pushes pipeline milestones to an ops Telegram chat. Purely
// informational: delivery failures are logged and never propagate.
type Notifier struct {
	bot    *bot.Bot
	chatID int64
}

func NewNotifier(token string, chatID int64) (*Notifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create notifier bot: %w", err)
	}
	return &Notifier{bot: b, chatID: chatID}, nil
}

// PipelineComplete announces a session reaching its gallery.
func (n *Notifier) PipelineComplete(s *domain.Session) {
	msg := fmt.Sprintf("🖼 *Pipeline complete*\n\n*Session:* `%s`\n*Versions:* %d\n*Cost:* $%s\n*Task:* %s",
		s.ID, len(s.ImageHistory), s.UsageCost.StringFixed(4), truncateRunes(s.Task, 200))
	n.send(msg)
}

// PipelineError reports a failed pipeline step.
func (n *Notifier) PipelineError(sessionID, step string, err error) {
	msg := fmt.Sprintf("❌ *Pipeline error*\n\n*Session:* `%s`\n*Step:* %s\n*Error:* `%s`\n*Time:* %s",
		sessionID, step, err.Error(), time.Now().Format("2006-01-02 15:04:05"))
	n.send(msg)
}

func (n *Notifier) send(message string) {
	if len([]rune(message)) > maxMessageLen {
		message = string([]rune(message)[:maxMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      message,
		ParseMode: "Markdown",
	})
	if err != nil {
		slog.Error("failed to send telegram notification", "error", err)
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
