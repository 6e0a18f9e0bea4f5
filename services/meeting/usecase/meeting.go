package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"

	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/pkg/validate"
	"github.com/xilidan/meetings/services/meeting/entity"
)

func (u *usecase) StartMeeting(ctx context.Context, req *entity.StartMeetingRequest) (*entity.StartMeetingResponse, error) {
	log := logger.FromContext(ctx)
	log.Info("StartMeeting called", slog.String("user_id", req.UserID))

	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	owner, err := u.directory.ResolveUser(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Validation("user %s does not exist", req.UserID)
		}
		return nil, err
	}

	now := u.now().UTC()
	m, err := u.Storage.CreateMeeting(ctx, entity.NewMeeting("", owner.ID, req.Description, owner.Profile(), now))
	if err != nil {
		log.Error("failed to create meeting", slog.String("error", err.Error()))
		return nil, err
	}

	log.Info("meeting started", slog.String("meeting_id", m.ID))
	return &entity.StartMeetingResponse{
		MeetingID: m.ID,
	}, nil
}

func (u *usecase) GetMeeting(ctx context.Context, req *entity.GetMeetingRequest) (*entity.GetMeetingResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	m, err := u.Storage.GetMeeting(ctx, req.MeetingID)
	if err != nil {
		return nil, err
	}

	return &entity.GetMeetingResponse{
		Meeting: m,
	}, nil
}

func (u *usecase) ListMeetings(ctx context.Context) (*entity.ListMeetingsResponse, error) {
	meetings, err := u.Storage.ListMeetings(ctx)
	if err != nil {
		return nil, err
	}

	return &entity.ListMeetingsResponse{
		Meetings: meetings,
	}, nil
}

// ListMeetingsByUser scans every meeting. Fine at the current scale.
func (u *usecase) ListMeetingsByUser(ctx context.Context, req *entity.ListByUserRequest) (*entity.ListMeetingsResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	meetings, err := u.Storage.ListMeetings(ctx)
	if err != nil {
		return nil, err
	}

	return &entity.ListMeetingsResponse{
		Meetings: lo.Filter(meetings, func(m *entity.Meeting, _ int) bool {
			return m.UserID == req.UserID
		}),
	}, nil
}

func (u *usecase) UpdateMeeting(ctx context.Context, req *entity.UpdateMeetingRequest) (*entity.UpdateMeetingResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	m, err := u.Storage.UpdateMeetingDescription(ctx, req.MeetingID, req.Description)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("meeting updated", slog.String("meeting_id", m.ID))
	return &entity.UpdateMeetingResponse{
		Meeting: m,
	}, nil
}
