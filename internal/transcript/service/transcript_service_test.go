package service

import (
	"context"
	"errors"
	"testing"

	"saysense/backend/internal/apperr"
	"saysense/backend/internal/realtime"
	sessiondomain "saysense/backend/internal/session/domain"
	"saysense/backend/internal/transcript/domain"
	"saysense/backend/internal/transcript/repository"
)

type mockSegmentRepo struct {
	segments map[string]*domain.Segment
	batches  int
}

func newMockSegmentRepo() *mockSegmentRepo {
	return &mockSegmentRepo{segments: map[string]*domain.Segment{}}
}

func (m *mockSegmentRepo) Create(ctx context.Context, seg *domain.Segment) error {
	cp := *seg
	m.segments[seg.ID] = &cp
	return nil
}

func (m *mockSegmentRepo) CreateBatch(ctx context.Context, segs []domain.Segment) error {
	m.batches++
	for _, seg := range segs {
		cp := seg
		m.segments[seg.ID] = &cp
	}
	return nil
}

func (m *mockSegmentRepo) GetByID(ctx context.Context, id string) (*domain.Segment, error) {
	seg, ok := m.segments[id]
	if !ok {
		return nil, nil
	}
	cp := *seg
	return &cp, nil
}

func (m *mockSegmentRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.Segment, error) {
	return m.ListFiltered(ctx, sessionID, repository.Filter{})
}

func (m *mockSegmentRepo) ListFiltered(ctx context.Context, sessionID string, f repository.Filter) ([]domain.Segment, error) {
	var out []domain.Segment
	for _, seg := range m.segments {
		if seg.SessionID != sessionID {
			continue
		}
		if f.StartTime != nil && seg.EndTime < *f.StartTime {
			continue
		}
		if f.EndTime != nil && seg.StartTime > *f.EndTime {
			continue
		}
		if f.Speaker != nil && seg.SpeakerLabel != *f.Speaker {
			continue
		}
		out = append(out, *seg)
	}
	return out, nil
}

func (m *mockSegmentRepo) Delete(ctx context.Context, id string) error {
	delete(m.segments, id)
	return nil
}

type mockGuard struct {
	owners map[string]string // session id -> user id
}

func (m *mockGuard) GetByIDForUser(ctx context.Context, id, userID string) (*sessiondomain.Session, error) {
	if m.owners[id] != userID {
		return nil, nil
	}
	return &sessiondomain.Session{ID: id, UserID: userID}, nil
}

type captureBroadcaster struct {
	messages []realtime.Message
}

func (c *captureBroadcaster) Broadcast(sessionID string, msg realtime.Message) {
	c.messages = append(c.messages, msg)
}

func newService() (*TranscriptService, *mockSegmentRepo, *captureBroadcaster) {
	repo := newMockSegmentRepo()
	bc := &captureBroadcaster{}
	guard := &mockGuard{owners: map[string]string{"s-1": "u-1"}}
	return NewTranscriptService(repo, guard, bc), repo, bc
}

func TestCreate_BroadcastsNewSegment(t *testing.T) {
	svc, _, bc := newService()
	seg, err := svc.Create(context.Background(), "u-1", "s-1", CreateSegmentInput{
		StartTime: 0, EndTime: 2.5, SpeakerLabel: "Self", Transcript: "Hello everyone",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if seg.ID == "" || seg.SessionID != "s-1" {
		t.Errorf("unexpected segment: %+v", seg)
	}
	if len(bc.messages) != 1 || bc.messages[0].Type != realtime.EventTranscriptUpdate {
		t.Errorf("expected one transcript_update broadcast, got %+v", bc.messages)
	}
}

func TestCreate_ForeignSessionIsNotFound(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.Create(context.Background(), "intruder", "s-1", CreateSegmentInput{
		EndTime: 1, Transcript: "hi",
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestCreateBatch_MixedSessionsRejected(t *testing.T) {
	svc, repo, _ := newService()
	_, err := svc.CreateBatch(context.Background(), "u-1", "s-1", []CreateSegmentInput{
		{EndTime: 1, Transcript: "a"},
		{SessionID: "s-2", EndTime: 2, Transcript: "b"},
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if len(repo.segments) != 0 {
		t.Errorf("no segments should be stored, got %d", len(repo.segments))
	}
}

func TestCreateBatch_StoresAllAndBroadcastsOnce(t *testing.T) {
	svc, repo, bc := newService()
	segs, err := svc.CreateBatch(context.Background(), "u-1", "s-1", []CreateSegmentInput{
		{EndTime: 1, Transcript: "a"},
		{StartTime: 1, EndTime: 2, Transcript: "b"},
	})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if len(segs) != 2 || repo.batches != 1 {
		t.Errorf("segs=%d batches=%d, want 2 and 1", len(segs), repo.batches)
	}
	if len(bc.messages) != 1 {
		t.Errorf("expected a single batch broadcast, got %d", len(bc.messages))
	}
}

func TestCreateBatch_EmptyIsValidation(t *testing.T) {
	svc, _, _ := newService()
	if _, err := svc.CreateBatch(context.Background(), "u-1", "s-1", nil); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want validation", err)
	}
}

func TestList_OverlapFilter(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	// Segment spanning [5, 10].
	if _, err := svc.Create(ctx, "u-1", "s-1", CreateSegmentInput{StartTime: 5, EndTime: 10, Transcript: "mid"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Window [8, 20] overlaps the tail of the segment.
	start, end := 8.0, 20.0
	got, err := svc.List(ctx, "u-1", "s-1", repository.Filter{StartTime: &start, EndTime: &end})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("overlap window returned %d segments, want 1", len(got))
	}

	// Window [11, 20] misses it entirely.
	start = 11
	got, err = svc.List(ctx, "u-1", "s-1", repository.Filter{StartTime: &start, EndTime: &end})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("disjoint window returned %d segments, want 0", len(got))
	}
}

func TestGetAndDelete_Conflated(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	seg, err := svc.Create(ctx, "u-1", "s-1", CreateSegmentInput{EndTime: 1, Transcript: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Missing segment and foreign session both read as not found.
	if _, err := svc.Get(ctx, "u-1", "s-1", "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing get err = %v, want not found", err)
	}
	if err := svc.Delete(ctx, "intruder", "s-1", seg.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("foreign delete err = %v, want not found", err)
	}

	if err := svc.Delete(ctx, "u-1", "s-1", seg.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "u-1", "s-1", seg.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted get err = %v, want not found", err)
	}
}
