package service

import (
	"context"
	"errors"
	"testing"
	"time"

	analysisdomain "saysense/backend/internal/analysis/domain"
	"saysense/backend/internal/apperr"
	"saysense/backend/internal/cloud"
	feedbackdomain "saysense/backend/internal/feedback/domain"
	"saysense/backend/internal/realtime"
	"saysense/backend/internal/session/domain"
	"saysense/backend/internal/session/repository"
	transcriptdomain "saysense/backend/internal/transcript/domain"
)

type mockSessionRepo struct {
	sessions     map[string]*domain.Session
	participants []domain.Participant
	deleted      []string
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: map[string]*domain.Session{}}
}

func (m *mockSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *mockSessionRepo) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Session, error) {
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID || s.DeletedAt != nil {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockSessionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	var out []domain.Session
	for _, s := range m.sessions {
		if s.UserID == userID && s.DeletedAt == nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSessionRepo) FilterByUser(ctx context.Context, userID string, f repository.Filter) ([]domain.Session, error) {
	all, _ := m.ListByUser(ctx, userID)
	var out []domain.Session
	for _, s := range all {
		if f.Status != nil && s.Status != *f.Status {
			continue
		}
		if f.StartDate != nil && s.CreatedAt.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && s.CreatedAt.After(*f.EndDate) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *mockSessionRepo) Update(ctx context.Context, s *domain.Session) error {
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *mockSessionRepo) SoftDelete(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID || s.DeletedAt != nil {
		return false, nil
	}
	s.DeletedAt = &at
	m.deleted = append(m.deleted, id)
	return true, nil
}

func (m *mockSessionRepo) CreateParticipant(ctx context.Context, p *domain.Participant) error {
	m.participants = append(m.participants, *p)
	return nil
}

func (m *mockSessionRepo) ListParticipants(ctx context.Context, sessionID string) ([]domain.Participant, error) {
	var out []domain.Participant
	for _, p := range m.participants {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockSegmentStore struct {
	created []transcriptdomain.Segment
}

func (m *mockSegmentStore) Create(ctx context.Context, seg *transcriptdomain.Segment) error {
	m.created = append(m.created, *seg)
	return nil
}

func (m *mockSegmentStore) ListBySession(ctx context.Context, sessionID string) ([]transcriptdomain.Segment, error) {
	var out []transcriptdomain.Segment
	for _, seg := range m.created {
		if seg.SessionID == sessionID {
			out = append(out, seg)
		}
	}
	return out, nil
}

type mockMetricStore struct{}

func (mockMetricStore) ListBySession(ctx context.Context, sessionID string) ([]analysisdomain.Metric, error) {
	return nil, nil
}

type mockSuggestionStore struct{}

func (mockSuggestionStore) ListBySession(ctx context.Context, sessionID string) ([]feedbackdomain.Suggestion, error) {
	return nil, nil
}

type mockBroadcaster struct {
	rooms    []string
	messages []realtime.Message
}

func (m *mockBroadcaster) Broadcast(sessionID string, msg realtime.Message) {
	m.rooms = append(m.rooms, sessionID)
	m.messages = append(m.messages, msg)
}

type mockTranscriber struct {
	jobs []string
	uris []string
	err  error
}

func (m *mockTranscriber) StartJob(ctx context.Context, jobName, languageCode, mediaURI string) (string, error) {
	m.jobs = append(m.jobs, jobName)
	m.uris = append(m.uris, mediaURI)
	return jobName, m.err
}

type mockPresigner struct {
	upload *cloud.PresignedUpload
	err    error
}

func (m *mockPresigner) PresignUpload(ctx context.Context, fileName, contentType string) (*cloud.PresignedUpload, error) {
	return m.upload, m.err
}

type fixture struct {
	repo        *mockSessionRepo
	segments    *mockSegmentStore
	broadcaster *mockBroadcaster
	transcriber *mockTranscriber
	presigner   *mockPresigner
	svc         *SessionService
}

func newFixture() *fixture {
	f := &fixture{
		repo:        newMockSessionRepo(),
		segments:    &mockSegmentStore{},
		broadcaster: &mockBroadcaster{},
		transcriber: &mockTranscriber{},
		presigner:   &mockPresigner{upload: &cloud.PresignedUpload{URL: "https://s3/put", Key: "uploads/1-x"}},
	}
	f.svc = NewSessionService(f.repo, f.segments, mockMetricStore{}, mockSuggestionStore{},
		f.broadcaster, f.transcriber, f.presigner, nil)
	return f
}

func TestCreate_SeedsSideEffects(t *testing.T) {
	f := newFixture()
	session, err := f.svc.Create(context.Background(), "u-1", CreateInput{
		Title:       "Quarterly review",
		SessionType: domain.TypeUpload,
		SourceType:  domain.SourceFile,
		SourceURL:   "s3://bucket/uploads/1-talk.webm",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if session.Status != domain.StatusProcessing {
		t.Errorf("status = %q, want processing", session.Status)
	}
	if session.Language != "en" {
		t.Errorf("language = %q, want default en", session.Language)
	}

	if len(f.repo.participants) != 1 || f.repo.participants[0].Name != "Self" {
		t.Errorf("expected one Self participant, got %+v", f.repo.participants)
	}
	if len(f.segments.created) != 1 || f.segments.created[0].Transcript != "Processing..." {
		t.Errorf("expected placeholder segment, got %+v", f.segments.created)
	}
	if len(f.transcriber.jobs) != 1 || f.transcriber.jobs[0] != "transcribe-"+session.ID {
		t.Errorf("expected transcription job transcribe-%s, got %v", session.ID, f.transcriber.jobs)
	}
}

func TestCreate_NoSourceURLSkipsTranscription(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), "u-1", CreateInput{
		Title:       "Live rehearsal",
		SessionType: domain.TypeLive,
		SourceType:  domain.SourceMicrophone,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(f.transcriber.jobs) != 0 {
		t.Errorf("expected no transcription jobs, got %v", f.transcriber.jobs)
	}
}

func TestCreate_TranscriberFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture()
	f.transcriber.err = errors.New("aws down")
	_, err := f.svc.Create(context.Background(), "u-1", CreateInput{
		Title:       "Talk",
		SessionType: domain.TypeUpload,
		SourceType:  domain.SourceFile,
		SourceURL:   "s3://bucket/x",
	})
	if err != nil {
		t.Fatalf("Create should ignore transcriber failure, got %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	cases := []CreateInput{
		{Title: "", SessionType: domain.TypeLive, SourceType: domain.SourceMicrophone},
		{Title: "x", SessionType: "weird", SourceType: domain.SourceMicrophone},
		{Title: "x", SessionType: domain.TypeLive, SourceType: "tape"},
	}
	for i, in := range cases {
		if _, err := f.svc.Create(context.Background(), "u-1", in); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("case %d: err = %v, want validation", i, err)
		}
	}
}

func TestGet_ForeignSessionIsNotFound(t *testing.T) {
	f := newFixture()
	session, _ := f.svc.Create(context.Background(), "owner", CreateInput{
		Title: "x", SessionType: domain.TypeLive, SourceType: domain.SourceMicrophone,
	})
	if _, err := f.svc.Get(context.Background(), "intruder", session.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("foreign get err = %v, want not found", err)
	}
	if _, err := f.svc.Get(context.Background(), "owner", "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing get err = %v, want not found", err)
	}
}

func TestUpdate_StatusTransitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session, _ := f.svc.Create(ctx, "u-1", CreateInput{
		Title: "x", SessionType: domain.TypeLive, SourceType: domain.SourceMicrophone,
	})

	completed := domain.StatusCompleted
	updated, err := f.svc.Update(ctx, "u-1", session.ID, UpdateInput{Status: &completed})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != domain.StatusCompleted || updated.CompletedAt == nil {
		t.Errorf("completed transition: status=%q completedAt=%v", updated.Status, updated.CompletedAt)
	}

	failed := domain.StatusFailed
	updated, err = f.svc.Update(ctx, "u-1", session.ID, UpdateInput{Status: &failed})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != domain.StatusFailed || updated.CompletedAt != nil {
		t.Errorf("failed transition: status=%q completedAt=%v", updated.Status, updated.CompletedAt)
	}

	processing := domain.StatusProcessing
	if _, err = f.svc.Update(ctx, "u-1", session.ID, UpdateInput{Status: &processing}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("processing transition err = %v, want validation", err)
	}
}

func TestUpdate_BroadcastsToRoom(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session, _ := f.svc.Create(ctx, "u-1", CreateInput{
		Title: "x", SessionType: domain.TypeLive, SourceType: domain.SourceMicrophone,
	})

	title := "renamed"
	if _, err := f.svc.Update(ctx, "u-1", session.ID, UpdateInput{Title: &title}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(f.broadcaster.messages) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(f.broadcaster.messages))
	}
	if f.broadcaster.rooms[0] != session.ID {
		t.Errorf("broadcast room = %q, want %q", f.broadcaster.rooms[0], session.ID)
	}
	if f.broadcaster.messages[0].Type != realtime.EventSessionUpdated {
		t.Errorf("broadcast type = %q, want session_updated", f.broadcaster.messages[0].Type)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session, _ := f.svc.Create(ctx, "u-1", CreateInput{
		Title: "x", SessionType: domain.TypeLive, SourceType: domain.SourceMicrophone,
	})

	if err := f.svc.Delete(ctx, "intruder", session.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("foreign delete err = %v, want not found", err)
	}
	if err := f.svc.Delete(ctx, "u-1", session.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// Second delete of the same session is gone already.
	if err := f.svc.Delete(ctx, "u-1", session.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("repeat delete err = %v, want not found", err)
	}
}

func TestFilter_Validation(t *testing.T) {
	f := newFixture()
	bad := domain.Status("archived")
	if _, err := f.svc.Filter(context.Background(), "u-1", repository.Filter{Status: &bad}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad status err = %v, want validation", err)
	}
	start := time.Now()
	end := start.Add(-time.Hour)
	if _, err := f.svc.Filter(context.Background(), "u-1", repository.Filter{StartDate: &start, EndDate: &end}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("inverted range err = %v, want validation", err)
	}
}

func TestGetDetail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	session, _ := f.svc.Create(ctx, "u-1", CreateInput{
		Title: "x", SessionType: domain.TypeLive, SourceType: domain.SourceMicrophone,
	})

	detail, err := f.svc.GetDetail(ctx, "u-1", session.ID)
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if detail.Session.ID != session.ID {
		t.Errorf("detail session = %q, want %q", detail.Session.ID, session.ID)
	}
	if len(detail.Participants) != 1 || len(detail.Segments) != 1 {
		t.Errorf("detail children: participants=%d segments=%d, want 1 and 1",
			len(detail.Participants), len(detail.Segments))
	}
}

func TestPresignUpload(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.PresignUpload(ctx, "", "audio/webm"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty fileName err = %v, want validation", err)
	}

	upload, err := f.svc.PresignUpload(ctx, "talk.webm", "audio/webm")
	if err != nil {
		t.Fatalf("PresignUpload: %v", err)
	}
	if upload.URL == "" || upload.Key == "" {
		t.Errorf("unexpected upload: %+v", upload)
	}

	svc := NewSessionService(f.repo, f.segments, mockMetricStore{}, mockSuggestionStore{}, nil, nil, nil, nil)
	if _, err := svc.PresignUpload(ctx, "talk.webm", "audio/webm"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("disabled presigner err = %v, want validation", err)
	}
}
