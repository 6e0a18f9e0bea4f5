package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
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

var t0 = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	uc         Usecase
	store      *badger.Store
	summarizer *mocks.MockSummarizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	store, err := badger.Open("", gen.Sequence("m"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	summarizer := mocks.NewMockSummarizer(ctrl)
	cfg := &config.Config{Summarizer: config.SummarizerConfig{Timeout: time.Second}}

	return &fixture{
		uc:         New(cfg, store, directory.New(store), summarizer, WithClock(func() time.Time { return t0 })),
		store:      store,
		summarizer: summarizer,
	}
}

func (f *fixture) user(t *testing.T, id, name string) {
	t.Helper()
	_, err := f.store.CreateUser(context.Background(), &entity.User{
		ID:        id,
		Name:      name,
		Email:     id + "@example.com",
		Age:       30,
		CreatedAt: t0,
		UpdatedAt: t0,
	})
	require.NoError(t, err)
}

func (f *fixture) start(t *testing.T, owner string) string {
	t.Helper()
	resp, err := f.uc.StartMeeting(context.Background(), &entity.StartMeetingRequest{UserID: owner})
	require.NoError(t, err)
	return resp.MeetingID
}

func userIDs(ps []entity.Participant) []string {
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.UserID)
	}
	return ids
}

func TestPresenceScenario(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "u1", "Ana")
	f.user(t, "u2", "Bo")

	id := f.start(t, "u1")
	got, err := f.uc.GetMeeting(ctx, &entity.GetMeetingRequest{MeetingID: id})
	req.NoError(err)
	req.Equal(entity.StatusActive, got.Meeting.Status)
	req.Len(got.Meeting.Participants, 1)
	req.Equal("u1", got.Meeting.Participants[0].UserID)
	req.Empty(got.Meeting.Participants[0].SessionID)
	req.Equal("Ana", got.Meeting.Participants[0].Profile.Name)
	req.True(t0.Equal(got.Meeting.StartAt))

	resp, err := f.uc.Reconcile(ctx, &entity.ReconcileRequest{MeetingID: id, UserID: "u1", SessionID: "s1"})
	req.NoError(err)
	req.Len(resp.Participants, 1)
	req.Equal("s1", resp.Participants[0].SessionID)

	resp, err = f.uc.Reconcile(ctx, &entity.ReconcileRequest{MeetingID: id, UserID: "u1", SessionID: "s2"})
	req.NoError(err)
	req.Len(resp.Participants, 1)
	req.Equal("s2", resp.Participants[0].SessionID)
	req.Equal("Ana", resp.Participants[0].Profile.Name)

	resp, err = f.uc.AddParticipant(ctx, &entity.ParticipantRequest{MeetingID: id, UserID: "u2"})
	req.NoError(err)
	req.Equal([]string{"u1", "u2"}, userIDs(resp.Participants))

	resp, err = f.uc.RemoveParticipant(ctx, &entity.ParticipantRequest{MeetingID: id, UserID: "u1"})
	req.NoError(err)
	req.Equal([]string{"u2"}, userIDs(resp.Participants))
	req.Equal("Bo", resp.Participants[0].Profile.Name)

	finish, err := f.uc.FinishMeeting(ctx, &entity.FinishMeetingRequest{MeetingID: id})
	req.ErrorIs(err, apperr.ErrNoTranscript)
	req.Equal(entity.OutcomeNoTranscript, finish.Outcome)
	req.True(finish.Meeting.IsFinished())
	req.Empty(finish.Meeting.Participants)

	got, err = f.uc.GetMeeting(ctx, &entity.GetMeetingRequest{MeetingID: id})
	req.NoError(err)
	req.Equal(entity.StatusFinished, got.Meeting.Status)
	req.Empty(got.Meeting.Participants)
	req.True(t0.Equal(*got.Meeting.FinishAt))
}

func TestReconcile_InsertThenUpdate(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "u1", "Ana")
	f.user(t, "u2", "Bo")
	id := f.start(t, "u1")

	resp, err := f.uc.Reconcile(ctx, &entity.ReconcileRequest{MeetingID: id, UserID: "u2", SessionID: "s1"})
	req.NoError(err)
	req.Equal([]string{"u1", "u2"}, userIDs(resp.Participants))
	req.Equal("s1", resp.Participants[1].SessionID)
	req.Equal("Bo", resp.Participants[1].Profile.Name)

	resp, err = f.uc.Reconcile(ctx, &entity.ReconcileRequest{MeetingID: id, UserID: "u2", SessionID: "s9"})
	req.NoError(err)
	req.Equal([]string{"u1", "u2"}, userIDs(resp.Participants))
	req.Equal("s9", resp.Participants[1].SessionID)
}

func TestReconcile_UnknownUserJoinsWithoutProfile(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.user(t, "u1", "Ana")
	id := f.start(t, "u1")

	resp, err := f.uc.Reconcile(context.Background(), &entity.ReconcileRequest{MeetingID: id, UserID: "ghost", SessionID: "s1"})
	req.NoError(err)
	req.Len(resp.Participants, 2)
	req.Nil(resp.Participants[1].Profile)
}

func TestReconcile_ConcurrentSameUser(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "u1", "Ana")
	f.user(t, "u2", "Bo")
	id := f.start(t, "u1")

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.uc.Reconcile(ctx, &entity.ReconcileRequest{MeetingID: id, UserID: "u2", SessionID: fmt.Sprintf("s%d", i)})
			req.NoError(err)
		}(i)
	}
	wg.Wait()

	got, err := f.uc.GetParticipants(ctx, &entity.GetMeetingRequest{MeetingID: id})
	req.NoError(err)
	req.Equal([]string{"u1", "u2"}, userIDs(got.Participants))
	req.NotEmpty(got.Participants[1].SessionID)
}

func TestReconcile_Errors(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "u1", "Ana")

	_, err := f.uc.Reconcile(ctx, &entity.ReconcileRequest{MeetingID: "missing", UserID: "u1", SessionID: "s1"})
	req.ErrorIs(err, apperr.ErrNotFound)

	_, err = f.uc.Reconcile(ctx, &entity.ReconcileRequest{MeetingID: "m-1", UserID: "u1"})
	req.ErrorIs(err, apperr.ErrValidation)

	id := f.start(t, "u1")
	_, err = f.uc.FinishMeeting(ctx, &entity.FinishMeetingRequest{MeetingID: id})
	req.ErrorIs(err, apperr.ErrNoTranscript)

	_, err = f.uc.Reconcile(ctx, &entity.ReconcileRequest{MeetingID: id, UserID: "u1", SessionID: "s1"})
	req.ErrorIs(err, apperr.ErrValidation)
}

func TestParticipants_SetSemantics(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "u1", "Ana")
	f.user(t, "u2", "Bo")
	id := f.start(t, "u1")

	resp, err := f.uc.AddParticipant(ctx, &entity.ParticipantRequest{MeetingID: id, UserID: "u1"})
	req.NoError(err)
	req.Len(resp.Participants, 1)

	resp, err = f.uc.RemoveParticipant(ctx, &entity.ParticipantRequest{MeetingID: id, UserID: "u2"})
	req.NoError(err)
	req.Len(resp.Participants, 1)

	_, err = f.uc.AddParticipant(ctx, &entity.ParticipantRequest{MeetingID: "missing", UserID: "u2"})
	req.ErrorIs(err, apperr.ErrNotFound)
}

func TestParticipantProfiles_SkipDeletedUsers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "u1", "Ana")
	f.user(t, "u2", "Bo")
	id := f.start(t, "u1")

	_, err := f.uc.AddParticipant(ctx, &entity.ParticipantRequest{MeetingID: id, UserID: "u2"})
	req.NoError(err)
	req.NoError(f.uc.DeleteUser(ctx, &entity.DeleteUserRequest{ID: "u2"}))

	resp, err := f.uc.GetParticipantProfiles(ctx, &entity.GetMeetingRequest{MeetingID: id})
	req.NoError(err)
	req.Len(resp.Users, 1)
	req.Equal("Ana", resp.Users[0].Name)
}

func TestStartMeeting_Validation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.uc.StartMeeting(ctx, &entity.StartMeetingRequest{})
	req.ErrorIs(err, apperr.ErrValidation)

	_, err = f.uc.StartMeeting(ctx, &entity.StartMeetingRequest{UserID: "nobody"})
	req.ErrorIs(err, apperr.ErrValidation)
}

func TestStartMeeting_DirectoryFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	store, err := badger.Open("", gen.Sequence("m"), logger.Discard())
	req.NoError(err)
	defer store.Close()

	dir := mocks.NewMockDirectory(ctrl)
	dir.EXPECT().
		ResolveUser(gomock.Any(), "u1").
		Return(nil, apperr.Store("get user", errors.New("connection reset")))

	uc := New(&config.Config{}, store, dir, mocks.NewMockSummarizer(ctrl))
	_, err = uc.StartMeeting(context.Background(), &entity.StartMeetingRequest{UserID: "u1"})
	req.ErrorIs(err, apperr.ErrStore)
}

func TestUpdateMeeting(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "u1", "Ana")
	id := f.start(t, "u1")

	desc := "weekly sync"
	resp, err := f.uc.UpdateMeeting(ctx, &entity.UpdateMeetingRequest{MeetingID: id, Description: &desc})
	req.NoError(err)
	req.Equal("weekly sync", *resp.Meeting.Description)

	_, err = f.uc.UpdateMeeting(ctx, &entity.UpdateMeetingRequest{MeetingID: "missing", Description: &desc})
	req.ErrorIs(err, apperr.ErrNotFound)
}

func TestListByUser(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "u1", "Ana")
	f.user(t, "u2", "Bo")

	first := f.start(t, "u1")
	f.start(t, "u2")
	third := f.start(t, "u1")

	_, err := f.uc.AppendMessage(ctx, &entity.AppendMessageRequest{MeetingID: first, Entry: entity.ChatEntry{Name: "Ana", Message: "hi"}})
	req.NoError(err)

	meetings, err := f.uc.ListMeetingsByUser(ctx, &entity.ListByUserRequest{UserID: "u1"})
	req.NoError(err)
	req.Len(meetings.Meetings, 2)
	req.ElementsMatch([]string{first, third}, []string{meetings.Meetings[0].ID, meetings.Meetings[1].ID})

	all, err := f.uc.ListMeetings(ctx)
	req.NoError(err)
	req.Len(all.Meetings, 3)

	transcripts, err := f.uc.ListTranscriptsByUser(ctx, &entity.ListByUserRequest{UserID: "u1"})
	req.NoError(err)
	req.Len(transcripts.Transcripts, 1)
	req.Equal(first, transcripts.Transcripts[0].MeetingID)

	transcripts, err = f.uc.ListTranscriptsByUser(ctx, &entity.ListByUserRequest{UserID: "u2"})
	req.NoError(err)
	req.Empty(transcripts.Transcripts)
}
