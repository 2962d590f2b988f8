// Package service implements session lifecycle: create with processing
// side effects, list/filter/detail, status updates, soft delete, and
// presigned uploads.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	analysisdomain "saysense/backend/internal/analysis/domain"
	"saysense/backend/internal/apperr"
	"saysense/backend/internal/cloud"
	feedbackdomain "saysense/backend/internal/feedback/domain"
	"saysense/backend/internal/realtime"
	"saysense/backend/internal/session/domain"
	"saysense/backend/internal/session/repository"
	"saysense/backend/internal/telemetry"
	transcriptdomain "saysense/backend/internal/transcript/domain"
)

// SegmentStore is the slice of the transcript repository the session service
// needs: seeding the placeholder segment and reading segments for detail.
type SegmentStore interface {
	Create(ctx context.Context, seg *transcriptdomain.Segment) error
	ListBySession(ctx context.Context, sessionID string) ([]transcriptdomain.Segment, error)
}

// MetricStore reads a session's metrics for the detail view.
type MetricStore interface {
	ListBySession(ctx context.Context, sessionID string) ([]analysisdomain.Metric, error)
}

// SuggestionStore reads a session's suggestions for the detail view.
type SuggestionStore interface {
	ListBySession(ctx context.Context, sessionID string) ([]feedbackdomain.Suggestion, error)
}

// CreateInput carries the fields a client supplies when creating a session.
type CreateInput struct {
	Title       string
	SessionType domain.SessionType
	SourceType  domain.SourceType
	SourceURL   string
	Language    string
	Tags        []string
}

// UpdateInput carries the updatable session fields. Nil pointers leave the
// stored value untouched.
type UpdateInput struct {
	Title       *string
	Summary     *string
	Tags        []string
	DurationSec *int
	Sentiment   *float64
	Status      *domain.Status
}

// Detail is a session with all of its children loaded.
type Detail struct {
	Session      *domain.Session             `json:"session"`
	Participants []domain.Participant        `json:"participants"`
	Segments     []transcriptdomain.Segment  `json:"transcriptSegments"`
	Metrics      []analysisdomain.Metric     `json:"analysisMetrics"`
	Suggestions  []feedbackdomain.Suggestion `json:"feedbackSuggestions"`
}

// SessionService owns the session lifecycle. Broadcasts and telemetry are
// best-effort; storage errors are the only ones surfaced to callers.
type SessionService struct {
	sessions    repository.Repository
	segments    SegmentStore
	metrics     MetricStore
	suggestions SuggestionStore
	broadcaster realtime.Broadcaster
	transcriber cloud.TranscriptionClient
	presigner   cloud.UploadPresigner
	emitter     telemetry.Emitter
}

// NewSessionService wires the session service. transcriber, presigner, and
// emitter may be nil; the corresponding side effects are then skipped.
func NewSessionService(
	sessions repository.Repository,
	segments SegmentStore,
	metrics MetricStore,
	suggestions SuggestionStore,
	broadcaster realtime.Broadcaster,
	transcriber cloud.TranscriptionClient,
	presigner cloud.UploadPresigner,
	emitter telemetry.Emitter,
) *SessionService {
	if broadcaster == nil {
		broadcaster = realtime.NopBroadcaster{}
	}
	return &SessionService{
		sessions:    sessions,
		segments:    segments,
		metrics:     metrics,
		suggestions: suggestions,
		broadcaster: broadcaster,
		transcriber: transcriber,
		presigner:   presigner,
		emitter:     emitter,
	}
}

// Create stores a new processing session for userID and kicks off its side
// effects: a Self participant, a placeholder transcript segment, and (for
// uploaded sources) a transcription job. Side-effect failures are logged and
// do not fail the create.
func (s *SessionService) Create(ctx context.Context, userID string, in CreateInput) (*domain.Session, error) {
	now := time.Now().UTC()
	session := &domain.Session{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		SessionType: in.SessionType,
		SourceType:  in.SourceType,
		SourceURL:   in.SourceURL,
		Language:    in.Language,
		Status:      domain.StatusProcessing,
		Tags:        in.Tags,
		CreatedAt:   now,
	}
	if err := session.Validate(); err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	participant := &domain.Participant{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		Name:      "Self",
		Role:      "speaker",
		CreatedAt: now,
	}
	if err := s.sessions.CreateParticipant(ctx, participant); err != nil {
		slog.Error("seed participant", "session", session.ID, "error", err)
	}

	placeholder := &transcriptdomain.Segment{
		ID:           uuid.New().String(),
		SessionID:    session.ID,
		SpeakerLabel: "System",
		Transcript:   "Processing...",
		CreatedAt:    now,
	}
	if err := s.segments.Create(ctx, placeholder); err != nil {
		slog.Error("seed placeholder segment", "session", session.ID, "error", err)
	}

	if s.transcriber != nil && session.SourceURL != "" {
		jobName := "transcribe-" + session.ID
		if _, err := s.transcriber.StartJob(ctx, jobName, awsLanguageCode(session.Language), session.SourceURL); err != nil {
			slog.Error("start transcription job", "session", session.ID, "job", jobName, "error", err)
		}
	}

	telemetry.EmitAsync(s.emitter, telemetry.NewEvent(telemetry.EventSessionCreated, userID, session.ID))
	return session, nil
}

// List returns the caller's sessions, newest first.
func (s *SessionService) List(ctx context.Context, userID string) ([]domain.Session, error) {
	return s.sessions.ListByUser(ctx, userID)
}

// Filter returns the caller's sessions restricted by creation date and status.
func (s *SessionService) Filter(ctx context.Context, userID string, f repository.Filter) ([]domain.Session, error) {
	if f.Status != nil && !domain.ValidStatus(*f.Status) {
		return nil, apperr.Validationf("unknown status %q", *f.Status)
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return nil, apperr.Validationf("endDate precedes startDate")
	}
	return s.sessions.FilterByUser(ctx, userID, f)
}

// Get returns the caller's session or apperr.ErrNotFound. Foreign and deleted
// sessions are indistinguishable from missing ones.
func (s *SessionService) Get(ctx context.Context, userID, id string) (*domain.Session, error) {
	session, err := s.sessions.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.NotFoundf("session %s", id)
	}
	return session, nil
}

// GetDetail returns the session with all children loaded.
func (s *SessionService) GetDetail(ctx context.Context, userID, id string) (*Detail, error) {
	session, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	participants, err := s.sessions.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	segments, err := s.segments.ListBySession(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics, err := s.metrics.ListBySession(ctx, id)
	if err != nil {
		return nil, err
	}
	suggestions, err := s.suggestions.ListBySession(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{
		Session:      session,
		Participants: participants,
		Segments:     segments,
		Metrics:      metrics,
		Suggestions:  suggestions,
	}, nil
}

// Update applies in to the caller's session and broadcasts the new state to
// the session room. Setting status back to processing is rejected.
func (s *SessionService) Update(ctx context.Context, userID, id string, in UpdateInput) (*domain.Session, error) {
	session, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, apperr.Validationf("title must not be empty")
		}
		session.Title = t
	}
	if in.Summary != nil {
		session.Summary = *in.Summary
	}
	if in.Tags != nil {
		session.Tags = in.Tags
	}
	if in.DurationSec != nil {
		if *in.DurationSec < 0 {
			return nil, apperr.Validationf("duration must not be negative")
		}
		session.DurationSec = *in.DurationSec
	}
	if in.Sentiment != nil {
		session.Sentiment = in.Sentiment
	}
	if in.Status != nil {
		if err := session.ApplyStatus(*in.Status, time.Now()); err != nil {
			return nil, apperr.Validationf("%v", err)
		}
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	s.broadcaster.Broadcast(session.ID, realtime.SessionUpdated(session))
	return session, nil
}

// Delete soft-deletes the caller's session. Missing or foreign sessions
// return apperr.ErrNotFound.
func (s *SessionService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.sessions.SoftDelete(ctx, id, userID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("session %s", id)
	}
	telemetry.EmitAsync(s.emitter, telemetry.NewEvent(telemetry.EventSessionDeleted, userID, id))
	return nil
}

// PresignUpload returns a presigned upload URL for a client-side recording.
func (s *SessionService) PresignUpload(ctx context.Context, fileName, fileType string) (*cloud.PresignedUpload, error) {
	if s.presigner == nil {
		return nil, apperr.Validationf("uploads are not enabled")
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, apperr.Validationf("fileName is required")
	}
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	return s.presigner.PresignUpload(ctx, fileName, fileType)
}

// awsLanguageCode maps a two-letter language to the AWS Transcribe code.
func awsLanguageCode(lang string) string {
	if strings.Contains(lang, "-") {
		return lang
	}
	switch strings.ToLower(lang) {
	case "es":
		return "es-ES"
	case "fr":
		return "fr-FR"
	case "de":
		return "de-DE"
	case "ja":
		return "ja-JP"
	case "ko":
		return "ko-KR"
	default:
		return "en-US"
	}
}
