package usecase

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/pkg/validate"
	"github.com/xilidan/meetings/services/meeting/entity"
)

// AppendMessage adds entry to the meeting's transcript, creating the
// transcript on the first message. Finished meetings still accept messages.
func (u *usecase) AppendMessage(ctx context.Context, req *entity.AppendMessageRequest) (*entity.TranscriptResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	if _, err := u.Storage.GetMeeting(ctx, req.MeetingID); err != nil {
		return nil, err
	}

	transcript, err := u.Storage.AppendMessage(ctx, req.MeetingID, req.Entry, u.now().UTC())
	if err != nil {
		return nil, err
	}
	u.metrics.MessagesAppended.Inc()

	logger.FromContext(ctx).Debug("chat message appended",
		slog.String("meeting_id", req.MeetingID),
		slog.Int("messages", len(transcript.Messages)))
	return &entity.TranscriptResponse{
		Transcript: transcript,
	}, nil
}

func (u *usecase) GetTranscript(ctx context.Context, req *entity.GetMeetingRequest) (*entity.TranscriptResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	transcript, err := u.Storage.GetTranscript(ctx, req.MeetingID)
	if err != nil {
		return nil, err
	}

	return &entity.TranscriptResponse{
		Transcript: transcript,
	}, nil
}

func (u *usecase) ListTranscripts(ctx context.Context) (*entity.ListTranscriptsResponse, error) {
	transcripts, err := u.Storage.ListTranscripts(ctx)
	if err != nil {
		return nil, err
	}

	return &entity.ListTranscriptsResponse{
		Transcripts: transcripts,
	}, nil
}

// ListTranscriptsByUser returns the transcripts of the meetings owned by the
// user. Both collections are scanned in full.
func (u *usecase) ListTranscriptsByUser(ctx context.Context, req *entity.ListByUserRequest) (*entity.ListTranscriptsResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	meetings, err := u.Storage.ListMeetings(ctx)
	if err != nil {
		return nil, err
	}
	owned := lo.SliceToMap(
		lo.Filter(meetings, func(m *entity.Meeting, _ int) bool { return m.UserID == req.UserID }),
		func(m *entity.Meeting) (string, struct{}) { return m.ID, struct{}{} },
	)

	transcripts, err := u.Storage.ListTranscripts(ctx)
	if err != nil {
		return nil, err
	}

	return &entity.ListTranscriptsResponse{
		Transcripts: lo.Filter(transcripts, func(t *entity.Transcript, _ int) bool {
			_, ok := owned[t.MeetingID]
			return ok
		}),
	}, nil
}
