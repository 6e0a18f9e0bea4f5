package entity

import "time"

type Status string

const (
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

type (
	// Meeting is a session with a lifecycle and the set of participants
	// currently connected to it. A finished meeting has no participants and a
	// finish time.
	Meeting struct {
		ID           string        `json:"id"`
		UserID       string        `json:"userId"`
		Description  *string       `json:"description,omitempty"`
		Status       Status        `json:"status"`
		Participants []Participant `json:"activeUsers"`
		CreatedAt    time.Time     `json:"createdAt"`
		StartAt      time.Time     `json:"startAt"`
		FinishAt     *time.Time    `json:"finishAt,omitempty"`
	}

	// Participant is one entry of the active set. At most one entry exists per
	// user id. SessionID stays empty until the user's client attaches a
	// transport session.
	Participant struct {
		UserID    string   `json:"userId"`
		SessionID string   `json:"socketId,omitempty"`
		Profile   *Profile `json:"profile,omitempty"`
	}

	// Profile is the snapshot of user fields taken at join time.
	Profile struct {
		Name     string  `json:"name"`
		Age      int     `json:"age,omitempty"`
		PhotoURL *string `json:"photoURL,omitempty"`
	}
)

func (m *Meeting) IsFinished() bool {
	return m.Status == StatusFinished
}

// Participant returns the active entry of userID, if any.
func (m *Meeting) Participant(userID string) (Participant, bool) {
	return FindParticipant(m.Participants, userID)
}

func FindParticipant(participants []Participant, userID string) (Participant, bool) {
	for _, p := range participants {
		if p.UserID == userID {
			return p, true
		}
	}
	return Participant{}, false
}

// NewMeeting builds an active meeting with the creator as its only participant.
func NewMeeting(id, userID string, description *string, creator *Profile, now time.Time) *Meeting {
	return &Meeting{
		ID:           id,
		UserID:       userID,
		Description:  description,
		Status:       StatusActive,
		Participants: []Participant{{UserID: userID, Profile: creator}},
		CreatedAt:    now,
		StartAt:      now,
	}
}

type (
	StartMeetingRequest struct {
		UserID      string  `validate:"required"`
		Description *string `validate:"omitempty,max=2000"`
	}

	StartMeetingResponse struct {
		MeetingID string
	}

	GetMeetingRequest struct {
		MeetingID string `validate:"required"`
	}

	GetMeetingResponse struct {
		Meeting *Meeting
	}

	ListMeetingsResponse struct {
		Meetings []*Meeting
	}

	ListByUserRequest struct {
		UserID string `validate:"required"`
	}

	// UpdateMeetingRequest carries the mutable meeting fields. Nil means
	// "leave unchanged".
	UpdateMeetingRequest struct {
		MeetingID   string  `validate:"required"`
		Description *string `validate:"omitempty,max=2000"`
	}

	UpdateMeetingResponse struct {
		Meeting *Meeting
	}
)

type (
	ParticipantRequest struct {
		MeetingID string `validate:"required"`
		UserID    string `validate:"required"`
	}

	ReconcileRequest struct {
		MeetingID string `validate:"required"`
		UserID    string `validate:"required"`
		SessionID string `validate:"required"`
	}

	ParticipantsResponse struct {
		MeetingID    string
		Participants []Participant
	}

	ParticipantProfilesResponse struct {
		MeetingID string
		Users     []*User
	}
)
