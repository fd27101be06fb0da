// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"
	"time"

	"homework_status_bot/internal/domain/homework"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// StateReader exposes the poll state to bot commands.
type StateReader interface {
	Snapshot() homework.Snapshot
}

const startGreeting = "Привет! Я слежу за статусами проверки домашних работ и пришлю сообщение, когда статус изменится.\n\n/status - текущее состояние."

// commandHandlers answers bot commands in the configured chat only.
type commandHandlers struct {
	chatID int64
	state  StateReader
	logger *logrus.Entry
}

// RegisterBotCommands registers /start and /status. Both answer only in the configured chat.
func RegisterBotCommands(
	b *telebot.Bot,
	chatID int64,
	state StateReader,
	baseLogger *logrus.Entry,
) {
	h := &commandHandlers{
		chatID: chatID,
		state:  state,
		logger: baseLogger.WithField("handler_group", "start_status"),
	}
	b.Handle("/start", h.handleStart)
	b.Handle("/status", h.handleStatus)
}

// allowed reports whether the command came from the configured chat.
func (h *commandHandlers) allowed(c telebot.Context, command string) (*logrus.Entry, bool) {
	chat := c.Chat()
	if chat == nil {
		h.logger.WithField("command", command).Warn("Command without chat ignored")
		return nil, false
	}
	logCtx := h.logger.WithField("command", command).WithField("chat_id", chat.ID)
	if chat.ID != h.chatID {
		logCtx.Warn("Command from unknown chat ignored")
		return nil, false
	}
	return logCtx, true
}

func (h *commandHandlers) handleStart(c telebot.Context) error {
	logCtx, ok := h.allowed(c, "/start")
	if !ok {
		return nil
	}
	logCtx.Info("Processing /start command")
	return c.Send(startGreeting)
}

func (h *commandHandlers) handleStatus(c telebot.Context) error {
	logCtx, ok := h.allowed(c, "/status")
	if !ok {
		return nil
	}
	logCtx.Info("Processing /status command")
	return c.Send(FormatStatusReport(h.state.Snapshot()))
}

// FormatStatusReport renders the poll state for the /status command.
func FormatStatusReport(snap homework.Snapshot) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Проверка обновлений с: %s\n", time.Unix(snap.Watermark, 0).Format("2006-01-02 15:04:05")))
	if snap.Failing {
		sb.WriteString("Последний опрос API завершился ошибкой.\n")
	}

	if len(snap.Submissions) == 0 {
		sb.WriteString("\nИзменений статусов пока не было.")
		return sb.String()
	}

	sb.WriteString("\nРаботы:\n")
	for _, sub := range snap.Submissions {
		verdict, err := homework.Verdict(sub.Status)
		if err != nil {
			verdict = string(sub.Status)
		}
		sb.WriteString(fmt.Sprintf("- \"%s\": %s\n", sub.Name, verdict))
	}
	return strings.TrimRight(sb.String(), "\n")
}
