// Package service implements analysis metric CRUD, aggregation, and the
// audio-analysis pipeline that turns raw audio into metrics and suggestions.
package service

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"saysense/backend/internal/ai"
	"saysense/backend/internal/analysis/domain"
	"saysense/backend/internal/analysis/repository"
	"saysense/backend/internal/apperr"
	feedbackdomain "saysense/backend/internal/feedback/domain"
	"saysense/backend/internal/realtime"
	sessiondomain "saysense/backend/internal/session/domain"
)

// SessionGuard resolves a session scoped to its owner. The session repository
// satisfies this interface.
type SessionGuard interface {
	GetByIDForUser(ctx context.Context, id, userID string) (*sessiondomain.Session, error)
}

// SuggestionWriter persists suggestions generated by the audio pipeline.
// The feedback repository satisfies this interface.
type SuggestionWriter interface {
	Create(ctx context.Context, s *feedbackdomain.Suggestion) error
}

// CreateMetricInput carries the fields a client supplies for one metric.
// SessionID is optional; when set it must match the path session.
type CreateMetricInput struct {
	SessionID string
	Type      domain.MetricType
	Value     float64
	Timestamp float64
	Label     string
}

// SeriesQuery shapes a single-type metric listing.
type SeriesQuery struct {
	Limit     int
	Ascending bool
}

// AudioAnalysis is the outcome of one audio pipeline run.
type AudioAnalysis struct {
	Transcript  string                      `json:"transcript"`
	Sentiment   *ai.Sentiment               `json:"sentiment"`
	Metrics     []domain.Metric             `json:"metrics"`
	Suggestions []feedbackdomain.Suggestion `json:"suggestions"`
}

// AnalysisService owns analysis metrics. Unlike most paths, metric deletion
// distinguishes a missing metric (not found) from one owned by another user
// (forbidden).
type AnalysisService struct {
	metrics     repository.Repository
	sessions    SessionGuard
	suggestions SuggestionWriter
	analyzer    ai.Service
	broadcaster realtime.Broadcaster
}

// NewAnalysisService wires the analysis service. analyzer may be nil; the
// audio pipeline is then disabled.
func NewAnalysisService(
	metrics repository.Repository,
	sessions SessionGuard,
	suggestions SuggestionWriter,
	analyzer ai.Service,
	broadcaster realtime.Broadcaster,
) *AnalysisService {
	if broadcaster == nil {
		broadcaster = realtime.NopBroadcaster{}
	}
	return &AnalysisService{
		metrics:     metrics,
		sessions:    sessions,
		suggestions: suggestions,
		analyzer:    analyzer,
		broadcaster: broadcaster,
	}
}

func (s *AnalysisService) guard(ctx context.Context, userID, sessionID string) error {
	session, err := s.sessions.GetByIDForUser(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if session == nil {
		return apperr.NotFoundf("session %s", sessionID)
	}
	return nil
}

// Create stores one metric and broadcasts it to the session room.
func (s *AnalysisService) Create(ctx context.Context, userID, sessionID string, in CreateMetricInput) (*domain.Metric, error) {
	if err := s.guard(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	if in.SessionID != "" && in.SessionID != sessionID {
		return nil, apperr.Validationf("metric session id %s does not match path session %s", in.SessionID, sessionID)
	}
	m := newMetric(sessionID, in)
	if err := m.Validate(); err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	if err := s.metrics.Create(ctx, m); err != nil {
		return nil, err
	}
	s.broadcaster.Broadcast(sessionID, realtime.AnalysisUpdate(m))
	return m, nil
}

// CreateBatch stores the metrics atomically and broadcasts each one.
func (s *AnalysisService) CreateBatch(ctx context.Context, userID, sessionID string, ins []CreateMetricInput) ([]domain.Metric, error) {
	if err := s.guard(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	if len(ins) == 0 {
		return nil, apperr.Validationf("batch must not be empty")
	}
	ms := make([]domain.Metric, 0, len(ins))
	for i, in := range ins {
		if in.SessionID != "" && in.SessionID != sessionID {
			return nil, apperr.Validationf("metric %d targets session %s, not %s", i, in.SessionID, sessionID)
		}
		m := newMetric(sessionID, in)
		if err := m.Validate(); err != nil {
			return nil, apperr.Validationf("metric %d: %v", i, err)
		}
		ms = append(ms, *m)
	}
	if err := s.metrics.CreateBatch(ctx, ms); err != nil {
		return nil, err
	}
	for i := range ms {
		s.broadcaster.Broadcast(sessionID, realtime.AnalysisUpdate(&ms[i]))
	}
	return ms, nil
}

// List returns the session's metrics matching f.
func (s *AnalysisService) List(ctx context.Context, userID, sessionID string, f repository.Filter) ([]domain.Metric, error) {
	if err := s.guard(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	for _, t := range f.Types {
		if !domain.ValidMetricType(t) {
			return nil, apperr.Validationf("unknown metric type %q", t)
		}
	}
	if f.StartTime != nil && f.EndTime != nil && *f.EndTime < *f.StartTime {
		return nil, apperr.Validationf("endTime precedes startTime")
	}
	return s.metrics.ListFiltered(ctx, sessionID, f)
}

// Series returns one metric type's values over time.
func (s *AnalysisService) Series(ctx context.Context, userID, sessionID string, t domain.MetricType, q SeriesQuery) ([]domain.Metric, error) {
	if err := s.guard(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	if !domain.ValidMetricType(t) {
		return nil, apperr.Validationf("unknown metric type %q", t)
	}
	if q.Limit < 0 {
		return nil, apperr.Validationf("limit must not be negative")
	}
	return s.metrics.ListByType(ctx, sessionID, t, q.Limit, q.Ascending)
}

// Summary aggregates the session's metrics per type.
func (s *AnalysisService) Summary(ctx context.Context, userID, sessionID string) ([]domain.TypeSummary, error) {
	if err := s.guard(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.metrics.Summary(ctx, sessionID)
}

// Latest returns the newest metric of each type in the session.
func (s *AnalysisService) Latest(ctx context.Context, userID, sessionID string) ([]domain.Metric, error) {
	if err := s.guard(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.metrics.Latest(ctx, sessionID)
}

// Delete removes one metric and broadcasts a snapshot of the deleted value.
// A missing metric is not found; a metric owned through another user's
// session is forbidden.
func (s *AnalysisService) Delete(ctx context.Context, userID, sessionID, id string) error {
	m, err := s.metrics.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return apperr.NotFoundf("metric %s", id)
	}
	owner, err := s.sessions.GetByIDForUser(ctx, m.SessionID, userID)
	if err != nil {
		return err
	}
	if owner == nil {
		return apperr.Forbiddenf("metric %s belongs to another user's session", id)
	}
	if m.SessionID != sessionID {
		return apperr.NotFoundf("metric %s in session %s", id, sessionID)
	}
	if err := s.metrics.Delete(ctx, id); err != nil {
		return err
	}
	s.broadcaster.Broadcast(sessionID, realtime.AnalysisUpdate(m))
	return nil
}

// AnalyzeAudio runs the audio pipeline: decode, transcribe, score, persist,
// and broadcast. audioData is base64-encoded audio.
func (s *AnalysisService) AnalyzeAudio(ctx context.Context, userID, sessionID, audioData, language string) (*AudioAnalysis, error) {
	if s.analyzer == nil {
		return nil, apperr.Validationf("audio analysis is not enabled")
	}
	if err := s.guard(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	audio, err := base64.StdEncoding.DecodeString(audioData)
	if err != nil {
		return nil, apperr.Validationf("audioData is not valid base64")
	}
	if len(audio) == 0 {
		return nil, apperr.Validationf("audioData is empty")
	}

	transcription, err := s.analyzer.TranscribeAudio(ctx, audio, language)
	if err != nil {
		return nil, err
	}
	sentiment, err := s.analyzer.AnalyzeSentiment(ctx, transcription.Text, language)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	at := transcription.DurationSec
	metrics := []domain.Metric{
		{ID: uuid.New().String(), SessionID: sessionID, Type: domain.MetricTone, Value: (sentiment.Score + 1) / 2, Timestamp: at, CreatedAt: now},
		{ID: uuid.New().String(), SessionID: sessionID, Type: domain.MetricSpeed, Value: transcription.WordsPerMinute, Timestamp: at, CreatedAt: now},
		{ID: uuid.New().String(), SessionID: sessionID, Type: domain.MetricClarity, Value: transcription.Confidence, Timestamp: at, CreatedAt: now},
		{ID: uuid.New().String(), SessionID: sessionID, Type: domain.MetricSentiment, Value: sentiment.Score, Timestamp: at, Label: sentiment.Label, CreatedAt: now},
	}
	if err := s.metrics.CreateBatch(ctx, metrics); err != nil {
		return nil, err
	}
	for i := range metrics {
		s.broadcaster.Broadcast(sessionID, realtime.AnalysisUpdate(&metrics[i]))
	}

	points := make([]ai.MetricPoint, 0, len(metrics))
	for _, m := range metrics {
		points = append(points, ai.MetricPoint{Type: string(m.Type), Value: m.Value})
	}
	generated, err := s.analyzer.GenerateFeedback(ctx, transcription.Text, points)
	if err != nil {
		return nil, err
	}
	suggestions := make([]feedbackdomain.Suggestion, 0, len(generated))
	for _, g := range generated {
		sg := feedbackdomain.Suggestion{
			ID:        uuid.New().String(),
			SessionID: sessionID,
			Type:      feedbackdomain.SuggestionType(g.Type),
			Severity:  feedbackdomain.Severity(g.Severity),
			Message:   g.Message,
			CreatedAt: now,
		}
		if err := s.suggestions.Create(ctx, &sg); err != nil {
			return nil, err
		}
		s.broadcaster.Broadcast(sessionID, realtime.FeedbackSuggestion(&sg))
		suggestions = append(suggestions, sg)
	}

	return &AudioAnalysis{
		Transcript:  transcription.Text,
		Sentiment:   sentiment,
		Metrics:     metrics,
		Suggestions: suggestions,
	}, nil
}

func newMetric(sessionID string, in CreateMetricInput) *domain.Metric {
	return &domain.Metric{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Type:      in.Type,
		Value:     in.Value,
		Timestamp: in.Timestamp,
		Label:     in.Label,
		CreatedAt: time.Now().UTC(),
	}
}
