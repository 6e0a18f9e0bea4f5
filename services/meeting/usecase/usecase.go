//go:generate go run go.uber.org/mock/mockgen -source=usecase.go -destination=mocks/mocks.go -package=mocks -exclude_interfaces=Usecase
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	config "github.com/xilidan/meetings/config/meeting"
	"github.com/xilidan/meetings/pkg/apperr"
	"github.com/xilidan/meetings/pkg/lock"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/pkg/observability"
	"github.com/xilidan/meetings/services/meeting/entity"
	"github.com/xilidan/meetings/services/meeting/storage"
)

const defaultSummarizeTimeout = 30 * time.Second

// Summarizer turns an ordered chat transcript into prose.
type Summarizer interface {
	Summarize(ctx context.Context, messages []entity.ChatEntry) (string, error)
}

// Directory resolves users by id or email.
type Directory interface {
	ResolveUser(ctx context.Context, id string) (*entity.User, error)
	ResolveUserByEmail(ctx context.Context, email string) (*entity.User, error)
}

type usecase struct {
	cfg        *config.Config
	Storage    storage.Storage
	directory  Directory
	summarizer Summarizer
	locker     lock.Locker
	metrics    *observability.Metrics
	tracer     *observability.Tracer
	now        func() time.Time
}

type Usecase interface {
	StartMeeting(ctx context.Context, req *entity.StartMeetingRequest) (*entity.StartMeetingResponse, error)
	GetMeeting(ctx context.Context, req *entity.GetMeetingRequest) (*entity.GetMeetingResponse, error)
	ListMeetings(ctx context.Context) (*entity.ListMeetingsResponse, error)
	ListMeetingsByUser(ctx context.Context, req *entity.ListByUserRequest) (*entity.ListMeetingsResponse, error)
	UpdateMeeting(ctx context.Context, req *entity.UpdateMeetingRequest) (*entity.UpdateMeetingResponse, error)

	AddParticipant(ctx context.Context, req *entity.ParticipantRequest) (*entity.ParticipantsResponse, error)
	RemoveParticipant(ctx context.Context, req *entity.ParticipantRequest) (*entity.ParticipantsResponse, error)
	Reconcile(ctx context.Context, req *entity.ReconcileRequest) (*entity.ParticipantsResponse, error)
	GetParticipants(ctx context.Context, req *entity.GetMeetingRequest) (*entity.ParticipantsResponse, error)
	GetParticipantProfiles(ctx context.Context, req *entity.GetMeetingRequest) (*entity.ParticipantProfilesResponse, error)

	AppendMessage(ctx context.Context, req *entity.AppendMessageRequest) (*entity.TranscriptResponse, error)
	GetTranscript(ctx context.Context, req *entity.GetMeetingRequest) (*entity.TranscriptResponse, error)
	ListTranscripts(ctx context.Context) (*entity.ListTranscriptsResponse, error)
	ListTranscriptsByUser(ctx context.Context, req *entity.ListByUserRequest) (*entity.ListTranscriptsResponse, error)

	FinishMeeting(ctx context.Context, req *entity.FinishMeetingRequest) (*entity.FinishMeetingResponse, error)
	SummarizeMeeting(ctx context.Context, req *entity.FinishMeetingRequest) (*entity.FinishMeetingResponse, error)

	RegisterUser(ctx context.Context, req *entity.RegisterUserRequest) (*entity.RegisterUserResponse, error)
	GetUser(ctx context.Context, req *entity.GetUserRequest) (*entity.GetUserResponse, error)
	ListUsers(ctx context.Context) (*entity.ListUsersResponse, error)
	UpdateUser(ctx context.Context, req *entity.UpdateUserRequest) (*entity.UpdateUserResponse, error)
	DeleteUser(ctx context.Context, req *entity.DeleteUserRequest) error
}

type Option func(*usecase)

func WithClock(now func() time.Time) Option {
	return func(u *usecase) { u.now = now }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(u *usecase) { u.metrics = m }
}

func WithLocker(l lock.Locker) Option {
	return func(u *usecase) { u.locker = l }
}

func WithTracer(t *observability.Tracer) Option {
	return func(u *usecase) { u.tracer = t }
}

func New(cfg *config.Config, storage storage.Storage, directory Directory, summarizer Summarizer, opts ...Option) Usecase {
	u := &usecase{
		cfg:        cfg,
		Storage:    storage,
		directory:  directory,
		summarizer: summarizer,
		locker:     lock.NewLocal(),
		tracer:     observability.NewTracer(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.metrics == nil {
		u.metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	return u
}

func (u *usecase) summarizeTimeout() time.Duration {
	if u.cfg == nil || u.cfg.Summarizer.Timeout <= 0 {
		return defaultSummarizeTimeout
	}
	return u.cfg.Summarizer.Timeout
}

// profileOf returns the user's current profile snapshot, or nil when the
// user is unknown to the directory.
func (u *usecase) profileOf(ctx context.Context, userID string) (*entity.Profile, error) {
	user, err := u.directory.ResolveUser(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		logger.FromContext(ctx).Warn("participant not found in directory", slog.String("user_id", userID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user.Profile(), nil
}
