package telegram

import (
	"strings"
	"testing"
	"time"

	"homework_status_bot/internal/domain/homework"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

func TestFormatStatusReport(t *testing.T) {
	watermark := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local).Unix()

	t.Run("nothing tracked", func(t *testing.T) {
		report := FormatStatusReport(homework.Snapshot{Watermark: watermark})

		assert.Contains(t, report, "2024-05-01 12:00:00")
		assert.Contains(t, report, "Изменений статусов пока не было.")
		assert.NotContains(t, report, "ошибкой")
	})

	t.Run("tracked submissions and failure", func(t *testing.T) {
		state := homework.NewPollState(watermark)
		state.Remember(homework.Submission{Name: "hw2", Status: homework.StatusRejected})
		state.Remember(homework.Submission{Name: "hw1", Status: homework.StatusApproved})
		state.MarkFailureReported()

		report := FormatStatusReport(state.Snapshot())

		assert.Contains(t, report, "Последний опрос API завершился ошибкой.")
		assert.Contains(t, report, `- "hw1": Работа проверена: ревьюеру всё понравилось. Ура!`)
		assert.Contains(t, report, `- "hw2": Работа проверена: у ревьюера есть замечания.`)
		assert.Less(t, strings.Index(report, `"hw1"`), strings.Index(report, `"hw2"`))
	})
}

// stubContext records replies; only Chat and Send are used by the handlers.
type stubContext struct {
	telebot.Context
	chat    *telebot.Chat
	replies []interface{}
}

func (c *stubContext) Chat() *telebot.Chat { return c.chat }

func (c *stubContext) Send(what interface{}, _ ...interface{}) error {
	c.replies = append(c.replies, what)
	return nil
}

func newTestHandlers(chatID int64) (*commandHandlers, *homework.PollState) {
	nullLogger, _ := test.NewNullLogger()
	state := homework.NewPollState(time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local).Unix())
	state.Remember(homework.Submission{Name: "hw1", Status: homework.StatusReviewing})
	return &commandHandlers{chatID: chatID, state: state, logger: logrus.NewEntry(nullLogger)}, state
}

func TestCommandHandlers_ConfiguredChat(t *testing.T) {
	h, _ := newTestHandlers(-100123)

	c := &stubContext{chat: &telebot.Chat{ID: -100123}}
	require.NoError(t, h.handleStatus(c))
	require.Len(t, c.replies, 1)
	assert.Contains(t, c.replies[0], `- "hw1": Работа взята на проверку ревьюером.`)

	c = &stubContext{chat: &telebot.Chat{ID: -100123}}
	require.NoError(t, h.handleStart(c))
	assert.Equal(t, []interface{}{startGreeting}, c.replies)
}

func TestCommandHandlers_ForeignChatIgnored(t *testing.T) {
	h, _ := newTestHandlers(-100123)

	for _, handle := range []telebot.HandlerFunc{h.handleStart, h.handleStatus} {
		c := &stubContext{chat: &telebot.Chat{ID: 777}}
		require.NoError(t, handle(c))
		assert.Empty(t, c.replies)

		noChat := &stubContext{}
		require.NoError(t, handle(noChat))
		assert.Empty(t, noChat.replies)
	}
}
