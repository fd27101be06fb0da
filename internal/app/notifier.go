// internal/app/notifier.go
package app

import (
	"context"
	"fmt"
	"time"

	domainTelegram "homework_status_bot/internal/domain/telegram"

	"golang.org/x/time/rate"
)

// ErrNotify is returned when a message could not be delivered to the chat.
var ErrNotify = fmt.Errorf("failed to deliver notification")

// Notifier delivers preformatted messages to the configured chat.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// ChatNotifier sends every message to a single chat. Delivery is best-effort:
// there is no retry and no queue.
type ChatNotifier struct {
	client  domainTelegram.Client
	chatID  int64
	limiter *rate.Limiter
}

// Telegram rejects bursts of more than about one message per second to the same chat.
const defaultSendInterval = time.Second

func NewChatNotifier(client domainTelegram.Client, chatID int64) *ChatNotifier {
	return &ChatNotifier{
		client:  client,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Every(defaultSendInterval), 1),
	}
}

func (n *ChatNotifier) Notify(ctx context.Context, text string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w to chat %d: %w", ErrNotify, n.chatID, err)
	}
	if err := n.client.SendMessage(n.chatID, text, nil); err != nil {
		return fmt.Errorf("%w to chat %d: %w", ErrNotify, n.chatID, err)
	}
	return nil
}
