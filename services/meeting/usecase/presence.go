package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/pkg/lock"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/pkg/observability"
	"github.com/xilidan/meetings/pkg/validate"
	"github.com/xilidan/meetings/services/meeting/entity"
)

const (
	branchUpdated  = "updated"
	branchInserted = "inserted"
)

func (u *usecase) AddParticipant(ctx context.Context, req *entity.ParticipantRequest) (*entity.ParticipantsResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	profile, err := u.profileOf(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	participants, err := u.Storage.AddParticipant(ctx, req.MeetingID, entity.Participant{
		UserID:  req.UserID,
		Profile: profile,
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("participant added",
		slog.String("meeting_id", req.MeetingID),
		slog.String("user_id", req.UserID),
		slog.Int("participants", len(participants)))
	return &entity.ParticipantsResponse{
		MeetingID:    req.MeetingID,
		Participants: participants,
	}, nil
}

func (u *usecase) RemoveParticipant(ctx context.Context, req *entity.ParticipantRequest) (*entity.ParticipantsResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	participants, err := u.Storage.RemoveParticipant(ctx, req.MeetingID, req.UserID)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("participant removed",
		slog.String("meeting_id", req.MeetingID),
		slog.String("user_id", req.UserID),
		slog.Int("participants", len(participants)))
	return &entity.ParticipantsResponse{
		MeetingID:    req.MeetingID,
		Participants: participants,
	}, nil
}

// Reconcile attaches sessionID to the user's entry, adding the entry first
// when the user is not in the active set. Calls for the same meeting and
// user are serialized, so a user never ends up with two entries.
func (u *usecase) Reconcile(ctx context.Context, req *entity.ReconcileRequest) (resp *entity.ParticipantsResponse, err error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	ctx, span := u.tracer.Start(ctx, observability.SpanReconcile, req.MeetingID)
	span.SetAttributes(observability.UserID(req.UserID))
	defer func() { observability.End(span, err) }()

	log := logger.With(ctx,
		slog.String("meeting_id", req.MeetingID),
		slog.String("user_id", req.UserID),
		slog.String("session_id", req.SessionID))

	unlock, err := u.locker.Lock(ctx, lock.Key("reconcile", req.MeetingID, req.UserID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	participants, found, err := u.Storage.UpdateParticipantSession(ctx, req.MeetingID, req.UserID, req.SessionID)
	if err != nil {
		return nil, err
	}
	if found {
		u.metrics.ReconcileTotal.WithLabelValues(branchUpdated).Inc()
		log.Info("participant session updated")
		return &entity.ParticipantsResponse{MeetingID: req.MeetingID, Participants: participants}, nil
	}

	profile, err := u.profileOf(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	participants, err = u.Storage.AddParticipant(ctx, req.MeetingID, entity.Participant{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Profile:   profile,
	})
	if err != nil {
		return nil, err
	}

	// An explicit add may have inserted the user without a session between
	// the two store calls; the add above is then a no-op.
	if p, ok := entity.FindParticipant(participants, req.UserID); ok && p.SessionID != req.SessionID {
		participants, found, err = u.Storage.UpdateParticipantSession(ctx, req.MeetingID, req.UserID, req.SessionID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, apperr.Conflict("participant %s left meeting %s during reconcile", req.UserID, req.MeetingID)
		}
	}

	u.metrics.ReconcileTotal.WithLabelValues(branchInserted).Inc()
	log.Info("participant joined", slog.Int("participants", len(participants)))
	return &entity.ParticipantsResponse{MeetingID: req.MeetingID, Participants: participants}, nil
}

func (u *usecase) GetParticipants(ctx context.Context, req *entity.GetMeetingRequest) (*entity.ParticipantsResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	m, err := u.Storage.GetMeeting(ctx, req.MeetingID)
	if err != nil {
		return nil, err
	}

	return &entity.ParticipantsResponse{
		MeetingID:    m.ID,
		Participants: m.Participants,
	}, nil
}

// GetParticipantProfiles resolves the active participants against the
// directory at read time. Users deleted since they joined are skipped.
func (u *usecase) GetParticipantProfiles(ctx context.Context, req *entity.GetMeetingRequest) (*entity.ParticipantProfilesResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	m, err := u.Storage.GetMeeting(ctx, req.MeetingID)
	if err != nil {
		return nil, err
	}

	users := make([]*entity.User, 0, len(m.Participants))
	for _, p := range m.Participants {
		user, err := u.directory.ResolveUser(ctx, p.UserID)
		if errors.Is(err, apperr.ErrNotFound) {
			logger.FromContext(ctx).Debug("skipping stale participant", slog.String("user_id", p.UserID))
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return &entity.ParticipantProfilesResponse{
		MeetingID: m.ID,
		Users:     users,
	}, nil
}
