// Package service implements feedback suggestion CRUD scoped to the caller's
// sessions, with the forbidden/not-found distinction on item paths.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"saysense/backend/internal/apperr"
	"saysense/backend/internal/feedback/domain"
	"saysense/backend/internal/feedback/repository"
	"saysense/backend/internal/realtime"
	sessiondomain "saysense/backend/internal/session/domain"
)

// SessionGuard resolves a session scoped to its owner. The session repository
// satisfies this interface.
type SessionGuard interface {
	GetByIDForUser(ctx context.Context, id, userID string) (*sessiondomain.Session, error)
}

// CreateSuggestionInput carries the fields a client supplies for one
// suggestion. SessionID is optional; when set it must match the path session.
type CreateSuggestionInput struct {
	SessionID string
	Type      domain.SuggestionType
	Severity  domain.Severity
	Message   string
	StartTime *float64
	EndTime   *float64
}

// UpdateInput carries the updatable suggestion fields. Nil pointers leave the
// stored value untouched.
type UpdateInput struct {
	Message    *string
	Severity   *domain.Severity
	IsApplied  *bool
	IsResolved *bool
}

// FeedbackService owns feedback suggestions. Item paths (get, patch, delete)
// distinguish a missing suggestion (not found) from one reached through
// another user's session (forbidden).
type FeedbackService struct {
	suggestions repository.Repository
	sessions    SessionGuard
	broadcaster realtime.Broadcaster
}

// NewFeedbackService wires the feedback service.
func NewFeedbackService(suggestions repository.Repository, sessions SessionGuard, broadcaster realtime.Broadcaster) *FeedbackService {
	if broadcaster == nil {
		broadcaster = realtime.NopBroadcaster{}
	}
	return &FeedbackService{suggestions: suggestions, sessions: sessions, broadcaster: broadcaster}
}

func (s *FeedbackService) guard(ctx context.Context, userID, sessionID string) error {
	session, err := s.sessions.GetByIDForUser(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if session == nil {
		return apperr.NotFoundf("session %s", sessionID)
	}
	return nil
}

// item resolves one suggestion with the asymmetric policy: missing is not
// found, foreign-owned is forbidden, wrong session nesting is not found.
func (s *FeedbackService) item(ctx context.Context, userID, sessionID, id string) (*domain.Suggestion, error) {
	sg, err := s.suggestions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sg == nil {
		return nil, apperr.NotFoundf("suggestion %s", id)
	}
	owner, err := s.sessions.GetByIDForUser(ctx, sg.SessionID, userID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, apperr.Forbiddenf("suggestion %s belongs to another user's session", id)
	}
	if sg.SessionID != sessionID {
		return nil, apperr.NotFoundf("suggestion %s in session %s", id, sessionID)
	}
	return sg, nil
}

// Create stores one suggestion and broadcasts it to the session room.
func (s *FeedbackService) Create(ctx context.Context, userID, sessionID string, in CreateSuggestionInput) (*domain.Suggestion, error) {
	if err := s.guard(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	if in.SessionID != "" && in.SessionID != sessionID {
		return nil, apperr.Validationf("suggestion session id %s does not match path session %s", in.SessionID, sessionID)
	}
	sg := newSuggestion(sessionID, in)
	if err := sg.Validate(); err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	if err := s.suggestions.Create(ctx, sg); err != nil {
		return nil, err
	}
	s.broadcaster.Broadcast(sessionID, realtime.FeedbackSuggestion(sg))
	return sg, nil
}

// CreateBatch stores the suggestions atomically and broadcasts each one.
func (s *FeedbackService) CreateBatch(ctx context.Context, userID, sessionID string, ins []CreateSuggestionInput) ([]domain.Suggestion, error) {
	if err := s.guard(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	if len(ins) == 0 {
		return nil, apperr.Validationf("batch must not be empty")
	}
	sgs := make([]domain.Suggestion, 0, len(ins))
	for i, in := range ins {
		if in.SessionID != "" && in.SessionID != sessionID {
			return nil, apperr.Validationf("suggestion %d targets session %s, not %s", i, in.SessionID, sessionID)
		}
		sg := newSuggestion(sessionID, in)
		if err := sg.Validate(); err != nil {
			return nil, apperr.Validationf("suggestion %d: %v", i, err)
		}
		sgs = append(sgs, *sg)
	}
	if err := s.suggestions.CreateBatch(ctx, sgs); err != nil {
		return nil, err
	}
	for i := range sgs {
		s.broadcaster.Broadcast(sessionID, realtime.FeedbackSuggestion(&sgs[i]))
	}
	return sgs, nil
}

// List returns the session's suggestions matching f.
func (s *FeedbackService) List(ctx context.Context, userID, sessionID string, f repository.Filter) ([]domain.Suggestion, error) {
	if err := s.guard(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	for _, t := range f.Types {
		if !domain.ValidSuggestionType(t) {
			return nil, apperr.Validationf("unknown suggestion type %q", t)
		}
	}
	for _, sev := range f.Severities {
		if !domain.ValidSeverity(sev) {
			return nil, apperr.Validationf("unknown severity %q", sev)
		}
	}
	if f.StartTime != nil && f.EndTime != nil && *f.EndTime < *f.StartTime {
		return nil, apperr.Validationf("endTime precedes startTime")
	}
	return s.suggestions.ListFiltered(ctx, sessionID, f)
}

// Get returns one suggestion under the asymmetric ownership policy.
func (s *FeedbackService) Get(ctx context.Context, userID, sessionID, id string) (*domain.Suggestion, error) {
	return s.item(ctx, userID, sessionID, id)
}

// Update patches one suggestion and broadcasts the new state.
func (s *FeedbackService) Update(ctx context.Context, userID, sessionID, id string, in UpdateInput) (*domain.Suggestion, error) {
	sg, err := s.item(ctx, userID, sessionID, id)
	if err != nil {
		return nil, err
	}
	if in.Message != nil {
		if *in.Message == "" {
			return nil, apperr.Validationf("message must not be empty")
		}
		sg.Message = *in.Message
	}
	if in.Severity != nil {
		if !domain.ValidSeverity(*in.Severity) {
			return nil, apperr.Validationf("unknown severity %q", *in.Severity)
		}
		sg.Severity = *in.Severity
	}
	if in.IsApplied != nil {
		sg.IsApplied = *in.IsApplied
	}
	if in.IsResolved != nil {
		sg.IsResolved = *in.IsResolved
	}
	if err := s.suggestions.Update(ctx, sg); err != nil {
		return nil, err
	}
	s.broadcaster.Broadcast(sessionID, realtime.FeedbackSuggestion(sg))
	return sg, nil
}

// Delete removes one suggestion and broadcasts a deletion marker.
func (s *FeedbackService) Delete(ctx context.Context, userID, sessionID, id string) error {
	if _, err := s.item(ctx, userID, sessionID, id); err != nil {
		return err
	}
	if err := s.suggestions.Delete(ctx, id); err != nil {
		return err
	}
	s.broadcaster.Broadcast(sessionID, realtime.FeedbackSuggestionDeleted(id))
	return nil
}

// Summary returns counts of the session's suggestions by type and severity.
func (s *FeedbackService) Summary(ctx context.Context, userID, sessionID string) (*domain.Summary, error) {
	if err := s.guard(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.suggestions.Summary(ctx, sessionID)
}

func newSuggestion(sessionID string, in CreateSuggestionInput) *domain.Suggestion {
	return &domain.Suggestion{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Type:      in.Type,
		Severity:  in.Severity,
		Message:   in.Message,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		CreatedAt: time.Now().UTC(),
	}
}
