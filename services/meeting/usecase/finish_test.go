package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	config "github.com/xilidan/meetings/config/meeting"
	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/pkg/gen"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/services/meeting/directory"
	"github.com/xilidan/meetings/services/meeting/entity"
	"github.com/xilidan/meetings/services/meeting/storage/badger"
	"github.com/xilidan/meetings/services/meeting/usecase/mocks"
)

var conversation = []entity.ChatEntry{
	{Name: "Ana", Message: "let's ship friday"},
	{Name: "Bo", Message: "I'll write the release notes"},
}

func (f *fixture) appendAll(t *testing.T, meetingID string, entries []entity.ChatEntry) {
	t.Helper()
	for _, e := range entries {
		_, err := f.uc.AppendMessage(context.Background(), &entity.AppendMessageRequest{MeetingID: meetingID, Entry: e})
		require.NoError(t, err)
	}
}

func TestAppendMessage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "u1", "Ana")
	id := f.start(t, "u1")

	_, err := f.uc.GetTranscript(ctx, &entity.GetMeetingRequest{MeetingID: id})
	req.ErrorIs(err, apperr.ErrNotFound)

	f.appendAll(t, id, conversation)

	resp, err := f.uc.GetTranscript(ctx, &entity.GetMeetingRequest{MeetingID: id})
	req.NoError(err)
	req.Equal(conversation, resp.Transcript.Messages)
	req.Nil(resp.Transcript.Summary)

	_, err = f.uc.AppendMessage(ctx, &entity.AppendMessageRequest{MeetingID: "missing", Entry: conversation[0]})
	req.ErrorIs(err, apperr.ErrNotFound)

	_, err = f.uc.AppendMessage(ctx, &entity.AppendMessageRequest{Entry: conversation[0]})
	req.ErrorIs(err, apperr.ErrValidation)

	_, err = f.uc.AppendMessage(ctx, &entity.AppendMessageRequest{MeetingID: id, Entry: entity.ChatEntry{Name: "Ana"}})
	req.ErrorIs(err, apperr.ErrValidation)
}

func TestFinishMeeting_Summarized(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "u1", "Ana")
	id := f.start(t, "u1")
	f.appendAll(t, id, conversation)

	f.summarizer.EXPECT().
		Summarize(gomock.Any(), conversation).
		Return("Ship on Friday; Bo writes notes.", nil)

	resp, err := f.uc.FinishMeeting(ctx, &entity.FinishMeetingRequest{MeetingID: id})
	req.NoError(err)
	req.Equal(entity.OutcomeSummarized, resp.Outcome)
	req.Equal("Ship on Friday; Bo writes notes.", resp.Summary)
	req.True(resp.Meeting.IsFinished())
	req.Empty(resp.Meeting.Participants)

	tr, err := f.uc.GetTranscript(ctx, &entity.GetMeetingRequest{MeetingID: id})
	req.NoError(err)
	req.Equal("Ship on Friday; Bo writes notes.", *tr.Transcript.Summary)
	req.Equal(conversation, tr.Transcript.Messages)
}

func TestFinishMeeting_SummarizerError(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "u1", "Ana")
	id := f.start(t, "u1")
	f.appendAll(t, id, conversation)

	gomock.InOrder(
		f.summarizer.EXPECT().Summarize(gomock.Any(), conversation).Return("", errors.New("quota exceeded")),
		f.summarizer.EXPECT().Summarize(gomock.Any(), conversation).Return("retry summary", nil),
	)

	resp, err := f.uc.FinishMeeting(ctx, &entity.FinishMeetingRequest{MeetingID: id})
	req.ErrorIs(err, apperr.ErrSummarization)
	req.Equal(entity.OutcomeSummarizationFailed, resp.Outcome)

	got, err := f.uc.GetMeeting(ctx, &entity.GetMeetingRequest{MeetingID: id})
	req.NoError(err)
	req.Equal(entity.StatusFinished, got.Meeting.Status)

	tr, err := f.uc.GetTranscript(ctx, &entity.GetMeetingRequest{MeetingID: id})
	req.NoError(err)
	req.Nil(tr.Transcript.Summary)

	resp, err = f.uc.SummarizeMeeting(ctx, &entity.FinishMeetingRequest{MeetingID: id})
	req.NoError(err)
	req.Equal(entity.OutcomeSummarized, resp.Outcome)
	req.Equal("retry summary", *resp.Transcript.Summary)
}

func TestFinishMeeting_EmptySummary(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.user(t, "u1", "Ana")
	id := f.start(t, "u1")
	f.appendAll(t, id, conversation)

	f.summarizer.EXPECT().Summarize(gomock.Any(), gomock.Any()).Return("   ", nil)

	resp, err := f.uc.FinishMeeting(context.Background(), &entity.FinishMeetingRequest{MeetingID: id})
	req.ErrorIs(err, apperr.ErrSummarization)
	req.Equal(entity.OutcomeSummarizationFailed, resp.Outcome)
}

func TestFinishMeeting_SummarizerTimeout(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	store, err := badger.Open("", gen.Sequence("m"), logger.Discard())
	req.NoError(err)
	defer store.Close()

	summarizer := mocks.NewMockSummarizer(ctrl)
	cfg := &config.Config{Summarizer: config.SummarizerConfig{Timeout: 20 * time.Millisecond}}
	f := &fixture{uc: New(cfg, store, directory.New(store), summarizer), store: store, summarizer: summarizer}
	f.user(t, "u1", "Ana")
	id := f.start(t, "u1")
	f.appendAll(t, id, conversation)

	summarizer.EXPECT().
		Summarize(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ []entity.ChatEntry) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

	resp, err := f.uc.FinishMeeting(context.Background(), &entity.FinishMeetingRequest{MeetingID: id})
	req.ErrorIs(err, apperr.ErrSummarization)
	req.ErrorIs(err, context.DeadlineExceeded)
	req.True(resp.Meeting.IsFinished())
}

func TestFinishMeeting_Refinish(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "u1", "Ana")
	id := f.start(t, "u1")
	f.appendAll(t, id, conversation)

	f.summarizer.EXPECT().Summarize(gomock.Any(), conversation).Return("first", nil)
	f.summarizer.EXPECT().Summarize(gomock.Any(), conversation).Return("second", nil)

	first, err := f.uc.FinishMeeting(ctx, &entity.FinishMeetingRequest{MeetingID: id})
	req.NoError(err)
	second, err := f.uc.FinishMeeting(ctx, &entity.FinishMeetingRequest{MeetingID: id})
	req.NoError(err)

	req.Equal("second", second.Summary)
	req.True(first.Meeting.FinishAt.Equal(*second.Meeting.FinishAt))
}

func TestFinishMeeting_Errors(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "u1", "Ana")

	_, err := f.uc.FinishMeeting(ctx, &entity.FinishMeetingRequest{MeetingID: "missing"})
	req.ErrorIs(err, apperr.ErrNotFound)

	_, err = f.uc.FinishMeeting(ctx, &entity.FinishMeetingRequest{})
	req.ErrorIs(err, apperr.ErrValidation)

	id := f.start(t, "u1")
	_, err = f.uc.SummarizeMeeting(ctx, &entity.FinishMeetingRequest{MeetingID: id})
	req.ErrorIs(err, apperr.ErrValidation)
}
