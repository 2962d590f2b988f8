// Package service implements transcript segment CRUD scoped to the caller's
// sessions, broadcasting new segments to the session room.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"saysense/backend/internal/apperr"
	"saysense/backend/internal/realtime"
	sessiondomain "saysense/backend/internal/session/domain"
	"saysense/backend/internal/transcript/domain"
	"saysense/backend/internal/transcript/repository"
)

// SessionGuard resolves a session scoped to its owner. The session repository
// satisfies this interface.
type SessionGuard interface {
	GetByIDForUser(ctx context.Context, id, userID string) (*sessiondomain.Session, error)
}

// CreateSegmentInput carries the fields a client supplies for one segment.
// SessionID is optional; when set it must match the path session.
type CreateSegmentInput struct {
	SessionID    string
	StartTime    float64
	EndTime      float64
	SpeakerLabel string
	Transcript   string
	Confidence   *float64
	Highlights   []string
}

// TranscriptService owns transcript segments. Every operation resolves the
// parent session for the caller first; missing and foreign sessions are both
// reported as not found.
type TranscriptService struct {
	segments    repository.Repository
	sessions    SessionGuard
	broadcaster realtime.Broadcaster
}

// NewTranscriptService wires the transcript service.
func NewTranscriptService(segments repository.Repository, sessions SessionGuard, broadcaster realtime.Broadcaster) *TranscriptService {
	if broadcaster == nil {
		broadcaster = realtime.NopBroadcaster{}
	}
	return &TranscriptService{segments: segments, sessions: sessions, broadcaster: broadcaster}
}

func (s *TranscriptService) guard(ctx context.Context, userID, sessionID string) error {
	session, err := s.sessions.GetByIDForUser(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if session == nil {
		return apperr.NotFoundf("session %s", sessionID)
	}
	return nil
}

// Create stores one segment and broadcasts it to the session room.
func (s *TranscriptService) Create(ctx context.Context, userID, sessionID string, in CreateSegmentInput) (*domain.Segment, error) {
	if err := s.guard(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	if in.SessionID != "" && in.SessionID != sessionID {
		return nil, apperr.Validationf("segment session id %s does not match path session %s", in.SessionID, sessionID)
	}
	seg := newSegment(sessionID, in)
	if err := seg.Validate(); err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	if err := s.segments.Create(ctx, seg); err != nil {
		return nil, err
	}
	s.broadcaster.Broadcast(sessionID, realtime.TranscriptNew(seg))
	return seg, nil
}

// CreateBatch stores the segments atomically and broadcasts the batch. Any
// item naming a different session rejects the whole batch.
func (s *TranscriptService) CreateBatch(ctx context.Context, userID, sessionID string, ins []CreateSegmentInput) ([]domain.Segment, error) {
	if err := s.guard(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	if len(ins) == 0 {
		return nil, apperr.Validationf("batch must not be empty")
	}
	segs := make([]domain.Segment, 0, len(ins))
	for i, in := range ins {
		if in.SessionID != "" && in.SessionID != sessionID {
			return nil, apperr.Validationf("segment %d targets session %s, not %s", i, in.SessionID, sessionID)
		}
		seg := newSegment(sessionID, in)
		if err := seg.Validate(); err != nil {
			return nil, apperr.Validationf("segment %d: %v", i, err)
		}
		segs = append(segs, *seg)
	}
	if err := s.segments.CreateBatch(ctx, segs); err != nil {
		return nil, err
	}
	s.broadcaster.Broadcast(sessionID, realtime.TranscriptBatch(segs))
	return segs, nil
}

// List returns the session's segments matching f.
func (s *TranscriptService) List(ctx context.Context, userID, sessionID string, f repository.Filter) ([]domain.Segment, error) {
	if err := s.guard(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	if f.StartTime != nil && f.EndTime != nil && *f.EndTime < *f.StartTime {
		return nil, apperr.Validationf("endTime precedes startTime")
	}
	return s.segments.ListFiltered(ctx, sessionID, f)
}

// Get returns one segment of the caller's session, or not found.
func (s *TranscriptService) Get(ctx context.Context, userID, sessionID, id string) (*domain.Segment, error) {
	if err := s.guard(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	seg, err := s.segments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if seg == nil || seg.SessionID != sessionID {
		return nil, apperr.NotFoundf("transcript segment %s", id)
	}
	return seg, nil
}

// Delete removes one segment of the caller's session.
func (s *TranscriptService) Delete(ctx context.Context, userID, sessionID, id string) error {
	if _, err := s.Get(ctx, userID, sessionID, id); err != nil {
		return err
	}
	return s.segments.Delete(ctx, id)
}

func newSegment(sessionID string, in CreateSegmentInput) *domain.Segment {
	return &domain.Segment{
		ID:           uuid.New().String(),
		SessionID:    sessionID,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		SpeakerLabel: in.SpeakerLabel,
		Transcript:   in.Transcript,
		Confidence:   in.Confidence,
		Highlights:   in.Highlights,
		CreatedAt:    time.Now().UTC(),
	}
}
