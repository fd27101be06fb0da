// internal/app/status_service.go
package app

import (
	"context"
	"errors"
	"fmt"

	"homework_status_bot/internal/domain/homework"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StatusService runs poll iterations: fetch, validate, detect status changes, notify.
type StatusService struct {
	source   homework.Source
	notifier Notifier
	state    *homework.PollState
	logger   *logrus.Entry
}

func NewStatusService(
	source homework.Source,
	notifier Notifier,
	state *homework.PollState,
	logger *logrus.Entry,
) *StatusService {
	return &StatusService{
		source:   source,
		notifier: notifier,
		state:    state,
		logger:   logger,
	}
}

// RunIteration performs one poll and handles its failure.
// A failed iteration is logged and reported to the chat once per failure streak;
// the first successful iteration ends the streak. The iteration error is returned
// for the caller's information only, it has already been handled.
func (s *StatusService) RunIteration(ctx context.Context) error {
	logCtx := s.logger.WithField("iteration_id", uuid.NewString())

	err := s.safePoll(ctx, logCtx)
	if err == nil {
		if s.state.ResetFailure() {
			logCtx.Info("Poll succeeded, failure streak is over")
		}
		return nil
	}

	if ctx.Err() != nil {
		logCtx.WithError(err).Debug("Poll interrupted by shutdown")
		return err
	}

	logCtx.WithError(err).WithField("error_kind", homework.KindOf(err)).Error("Poll iteration failed")

	if !s.state.MarkFailureReported() {
		logCtx.Debug("Failure already reported in this streak, not notifying again")
		return err
	}
	if notifyErr := s.notifier.Notify(ctx, homework.FailureMessage(err)); notifyErr != nil {
		logCtx.WithError(notifyErr).Error("Could not send failure notification")
	} else {
		logCtx.Info("Failure notification sent")
	}
	return err
}

// ErrPanic marks an iteration aborted by a panic.
var ErrPanic = fmt.Errorf("poll iteration panicked")

// safePoll turns a panic into an iteration error so it is escalated like any failure.
func (s *StatusService) safePoll(ctx context.Context, logCtx *logrus.Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return s.poll(ctx, logCtx)
}

func (s *StatusService) poll(ctx context.Context, logCtx *logrus.Entry) error {
	fromDate := s.state.Watermark()
	body, err := s.source.FetchStatuses(ctx, fromDate)
	if err != nil {
		return err
	}

	resp, err := homework.DecodeResponse(body)
	if err != nil {
		return err
	}

	if resp.HasCurrentDate {
		s.state.Advance(resp.CurrentDate)
		logCtx.WithFields(logrus.Fields{"from": fromDate, "to": resp.CurrentDate}).Debug("Watermark advanced")
	}

	if len(resp.Homeworks) == 0 {
		logCtx.Debug("No homework status changes")
		return nil
	}

	// Every entry is processed; one bad entry does not hide the others.
	var errs []error
	for _, item := range resp.Homeworks {
		if err := s.processSubmission(ctx, item, logCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *StatusService) processSubmission(ctx context.Context, item any, logCtx *logrus.Entry) error {
	sub, verdict, err := homework.ParseSubmission(item)
	if err != nil {
		return err
	}

	logCtx = logCtx.WithFields(logrus.Fields{"homework": sub.Name, "status": sub.Status})
	if !s.state.Changed(sub) {
		logCtx.Debug("Homework status unchanged")
		return nil
	}

	message := homework.StatusChangedMessage(sub.Name, verdict)
	if err := s.notifier.Notify(ctx, message); err != nil {
		logCtx.WithError(err).Error("Status notification dropped")
	} else {
		logCtx.Info("Status notification sent")
	}
	s.state.Remember(sub)
	return nil
}
