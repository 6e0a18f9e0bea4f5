package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/pkg/observability"
	"github.com/xilidan/meetings/pkg/validate"
	"github.com/xilidan/meetings/services/meeting/entity"
)

// FinishMeeting closes the meeting and summarizes its transcript.
//
// The status flip is never undone: when a later step fails the meeting stays
// finished, the response carries the outcome reached and the error tells
// which step failed (ErrNoTranscript, ErrSummarization or ErrStore).
// SummarizeMeeting retries the summary steps.
func (u *usecase) FinishMeeting(ctx context.Context, req *entity.FinishMeetingRequest) (resp *entity.FinishMeetingResponse, err error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	ctx, span := u.tracer.Start(ctx, observability.SpanFinish, req.MeetingID)
	defer func() { observability.End(span, err) }()

	log := logger.With(ctx, slog.String("meeting_id", req.MeetingID))
	log.Info("FinishMeeting called")

	statusCtx, statusSpan := u.tracer.Start(ctx, observability.SpanFinishStatus, req.MeetingID)
	m, err := u.Storage.FinishMeeting(statusCtx, req.MeetingID, u.now().UTC())
	observability.End(statusSpan, err)
	if err != nil {
		log.Error("failed to finish meeting", slog.String("error", err.Error()))
		return nil, err
	}
	log.Info("meeting finished", slog.Time("finish_at", *m.FinishAt))

	return u.summarize(ctx, m)
}

// SummarizeMeeting re-runs the summary steps for an already finished meeting.
func (u *usecase) SummarizeMeeting(ctx context.Context, req *entity.FinishMeetingRequest) (resp *entity.FinishMeetingResponse, err error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	ctx, span := u.tracer.Start(ctx, observability.SpanFinish, req.MeetingID)
	defer func() { observability.End(span, err) }()

	m, err := u.Storage.GetMeeting(ctx, req.MeetingID)
	if err != nil {
		return nil, err
	}
	if !m.IsFinished() {
		return nil, apperr.Validation("meeting %s is still active", m.ID)
	}

	return u.summarize(ctx, m)
}

func (u *usecase) summarize(ctx context.Context, m *entity.Meeting) (*entity.FinishMeetingResponse, error) {
	log := logger.With(ctx, slog.String("meeting_id", m.ID))
	resp := &entity.FinishMeetingResponse{Meeting: m}

	loadCtx, loadSpan := u.tracer.Start(ctx, observability.SpanLoadTranscript, m.ID)
	transcript, err := u.Storage.GetTranscript(loadCtx, m.ID)
	observability.End(loadSpan, err)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return u.finishWith(ctx, resp, entity.OutcomeNoTranscript, fmt.Errorf("%w: meeting %s has no messages", apperr.ErrNoTranscript, m.ID))
	case err != nil:
		return u.finishWith(ctx, resp, entity.OutcomeStoreFailed, err)
	}
	resp.Transcript = transcript

	if len(transcript.Messages) == 0 {
		return u.finishWith(ctx, resp, entity.OutcomeNoTranscript, fmt.Errorf("%w: meeting %s has no messages", apperr.ErrNoTranscript, m.ID))
	}

	summary, err := u.callSummarizer(ctx, m.ID, transcript.Messages)
	if err != nil {
		log.Error("summarization failed", slog.String("error", err.Error()))
		return u.finishWith(ctx, resp, entity.OutcomeSummarizationFailed, err)
	}

	persistCtx, persistSpan := u.tracer.Start(ctx, observability.SpanPersistSummary, m.ID)
	saved, err := u.Storage.SetSummary(persistCtx, m.ID, summary)
	observability.End(persistSpan, err)
	if err != nil {
		log.Error("failed to persist summary", slog.String("error", err.Error()))
		return u.finishWith(ctx, resp, entity.OutcomeStoreFailed, err)
	}

	resp.Transcript = saved
	resp.Summary = summary
	return u.finishWith(ctx, resp, entity.OutcomeSummarized, nil)
}

func (u *usecase) callSummarizer(ctx context.Context, meetingID string, messages []entity.ChatEntry) (string, error) {
	ctx, span := u.tracer.Start(ctx, observability.SpanSummarize, meetingID)
	span.SetAttributes(observability.Messages(len(messages)))

	ctx, cancel := context.WithTimeout(ctx, u.summarizeTimeout())
	defer cancel()

	start := time.Now()
	summary, err := u.summarizer.Summarize(ctx, messages)
	u.metrics.SummarizeSeconds.Observe(time.Since(start).Seconds())

	if err == nil && strings.TrimSpace(summary) == "" {
		err = apperr.Summarization("summarizer returned no content")
	}
	if err != nil && !errors.Is(err, apperr.ErrSummarization) {
		err = fmt.Errorf("%w: %w", apperr.ErrSummarization, err)
	}
	observability.End(span, err)

	return summary, err
}

func (u *usecase) finishWith(ctx context.Context, resp *entity.FinishMeetingResponse, outcome entity.FinishOutcome, err error) (*entity.FinishMeetingResponse, error) {
	resp.Outcome = outcome
	observability.Annotate(ctx, observability.Outcome(string(outcome)))
	u.metrics.FinishOutcomesTotal.WithLabelValues(string(outcome)).Inc()
	logger.FromContext(ctx).Info("finish saga done",
		slog.String("meeting_id", resp.Meeting.ID),
		slog.String("outcome", string(outcome)))
	return resp, err
}
