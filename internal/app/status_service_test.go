package app

import (
	"context"
	"errors"
	"testing"

	"homework_status_bot/internal/domain/homework"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchResult struct {
	body string
	err  error
}

// scriptedSource replays one result per call and records the requested from dates.
type scriptedSource struct {
	results   []fetchResult
	fromDates []int64
}

func (s *scriptedSource) FetchStatuses(_ context.Context, fromDate int64) ([]byte, error) {
	s.fromDates = append(s.fromDates, fromDate)
	r := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return []byte(r.body), nil
}

type recordingNotifier struct {
	messages []string
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.messages = append(n.messages, text)
	return n.err
}

func newTestService(src homework.Source, n Notifier, watermark int64) (*StatusService, *homework.PollState, *test.Hook) {
	nullLogger, hook := test.NewNullLogger()
	nullLogger.SetLevel(logrus.DebugLevel)
	state := homework.NewPollState(watermark)
	return NewStatusService(src, n, state, logrus.NewEntry(nullLogger)), state, hook
}

const (
	reviewingMsg = `Изменился статус проверки работы "hw1". Работа взята на проверку ревьюером.`
	approvedMsg  = `Изменился статус проверки работы "hw1". Работа проверена: ревьюеру всё понравилось. Ура!`
)

func TestRunIteration_NewSubmissionThenUnchanged(t *testing.T) {
	src := &scriptedSource{results: []fetchResult{
		{body: `{"homeworks":[{"homework_name":"hw1","status":"reviewing"}],"current_date":1000}`},
		{body: `{"homeworks":[{"homework_name":"hw1","status":"reviewing"}],"current_date":1600}`},
	}}
	n := &recordingNotifier{}
	svc, state, _ := newTestService(src, n, 500)

	require.NoError(t, svc.RunIteration(context.Background()))
	assert.Equal(t, []string{reviewingMsg}, n.messages)
	assert.Equal(t, int64(1000), state.Watermark())

	require.NoError(t, svc.RunIteration(context.Background()))
	assert.Len(t, n.messages, 1, "unchanged status must not be notified again")
	assert.Equal(t, int64(1600), state.Watermark())

	assert.Equal(t, []int64{500, 1000}, src.fromDates)
}

func TestRunIteration_StatusChangeNotifiesOnce(t *testing.T) {
	src := &scriptedSource{results: []fetchResult{
		{body: `{"homeworks":[{"homework_name":"hw1","status":"reviewing"}],"current_date":1000}`},
		{body: `{"homeworks":[{"homework_name":"hw1","status":"approved"}],"current_date":1600}`},
		{body: `{"homeworks":[{"homework_name":"hw1","status":"approved"}],"current_date":2200}`},
	}}
	n := &recordingNotifier{}
	svc, _, _ := newTestService(src, n, 500)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.RunIteration(context.Background()))
	}
	assert.Equal(t, []string{reviewingMsg, approvedMsg}, n.messages)
}

func TestRunIteration_StatusTrackedPerSubmission(t *testing.T) {
	src := &scriptedSource{results: []fetchResult{
		{body: `{"homeworks":[
			{"homework_name":"hw1","status":"reviewing"},
			{"homework_name":"hw2","status":"reviewing"}
		]}`},
	}}
	n := &recordingNotifier{}
	svc, state, _ := newTestService(src, n, 500)

	require.NoError(t, svc.RunIteration(context.Background()))
	assert.Len(t, n.messages, 2)
	assert.Contains(t, n.messages[1], `"hw2"`)
	assert.Equal(t, int64(500), state.Watermark(), "watermark stays when current_date is absent")
}

func TestRunIteration_EmptyHomeworks(t *testing.T) {
	src := &scriptedSource{results: []fetchResult{{body: `{"homeworks":[],"current_date":1000}`}}}
	n := &recordingNotifier{}
	svc, state, hook := newTestService(src, n, 500)

	require.NoError(t, svc.RunIteration(context.Background()))
	assert.Empty(t, n.messages)
	assert.Equal(t, int64(1000), state.Watermark())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}

func TestRunIteration_UndocumentedStatus(t *testing.T) {
	src := &scriptedSource{results: []fetchResult{
		{body: `{"homeworks":[
			{"homework_name":"hw1","status":"lost"},
			{"homework_name":"hw2","status":"approved"}
		]}`},
	}}
	n := &recordingNotifier{}
	svc, state, _ := newTestService(src, n, 500)

	err := svc.RunIteration(context.Background())
	require.ErrorIs(t, err, homework.ErrUndocumentedStatus)

	// hw2 is still processed, then the operator gets one failure message.
	require.Len(t, n.messages, 2)
	assert.Contains(t, n.messages[0], `"hw2"`)
	assert.Contains(t, n.messages[1], "Сбой в работе программы")
	assert.NotContains(t, n.messages[0], `"hw1"`)
	assert.True(t, state.Changed(homework.Submission{Name: "hw1", Status: "lost"}))
}

func TestRunIteration_ShapeErrorNotifiesOperatorOnce(t *testing.T) {
	src := &scriptedSource{results: []fetchResult{{body: `[{"homework_name":"hw1","status":"approved"}]`}}}
	n := &recordingNotifier{}
	svc, _, hook := newTestService(src, n, 500)

	err := svc.RunIteration(context.Background())
	require.ErrorIs(t, err, homework.ErrShape)
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "Сбой в работе программы")

	var errorEntry *logrus.Entry
	for i := range hook.AllEntries() {
		if hook.AllEntries()[i].Level == logrus.ErrorLevel {
			errorEntry = hook.AllEntries()[i]
		}
	}
	require.NotNil(t, errorEntry)
	assert.Equal(t, "shape", errorEntry.Data["error_kind"])
}

func TestRunIteration_FailureStreakReportedOnceAndResets(t *testing.T) {
	unavailable := fetchResult{err: errors.Join(homework.ErrHTTP, errors.New("status 503"))}
	src := &scriptedSource{results: []fetchResult{
		unavailable,
		unavailable,
		unavailable,
		{body: `{"homeworks":[]}`},
		unavailable,
	}}
	n := &recordingNotifier{}
	svc, state, _ := newTestService(src, n, 500)

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, svc.RunIteration(context.Background()), homework.ErrHTTP)
	}
	assert.Len(t, n.messages, 1, "one operator message per failure streak")
	assert.True(t, state.Snapshot().Failing)

	require.NoError(t, svc.RunIteration(context.Background()))
	assert.False(t, state.Snapshot().Failing)

	require.ErrorIs(t, svc.RunIteration(context.Background()), homework.ErrHTTP)
	assert.Len(t, n.messages, 2, "a new streak is reported again")
}

func TestRunIteration_NotifyFailureIsDropped(t *testing.T) {
	src := &scriptedSource{results: []fetchResult{
		{body: `{"homeworks":[{"homework_name":"hw1","status":"reviewing"}]}`},
	}}
	n := &recordingNotifier{err: ErrNotify}
	svc, state, _ := newTestService(src, n, 500)

	require.NoError(t, svc.RunIteration(context.Background()))
	assert.Len(t, n.messages, 1)
	assert.False(t, state.Changed(homework.Submission{Name: "hw1", Status: homework.StatusReviewing}))
	assert.False(t, state.Snapshot().Failing)
}

func TestRunIteration_CanceledContextIsNotReported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &scriptedSource{results: []fetchResult{{err: errors.Join(homework.ErrRequest, context.Canceled)}}}
	n := &recordingNotifier{}
	svc, state, _ := newTestService(src, n, 500)

	require.Error(t, svc.RunIteration(ctx))
	assert.Empty(t, n.messages)
	assert.False(t, state.Snapshot().Failing)
}

type panickingSource struct{}

func (panickingSource) FetchStatuses(context.Context, int64) ([]byte, error) {
	panic("nil map write")
}

func TestRunIteration_PanicIsEscalatedOncePerStreak(t *testing.T) {
	n := &recordingNotifier{}
	svc, state, _ := newTestService(panickingSource{}, n, 500)

	for i := 0; i < 3; i++ {
		err := svc.RunIteration(context.Background())
		require.ErrorIs(t, err, ErrPanic)
		assert.Contains(t, err.Error(), "nil map write")
	}

	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "Сбой в работе программы")
	assert.True(t, state.Snapshot().Failing)
}
