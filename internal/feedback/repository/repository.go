package repository

import (
	"context"

	"saysense/backend/internal/feedback/domain"
)

// Filter narrows a suggestion listing. Nil / empty fields are not applied;
// time bounds compare against the suggestion's anchored start time.
type Filter struct {
	Types      []domain.SuggestionType
	Severities []domain.Severity
	IsResolved *bool
	StartTime  *float64
	EndTime    *float64
}

// Repository defines persistence for feedback suggestions. Ownership is not
// checked here; services resolve the parent session first.
type Repository interface {
	Create(ctx context.Context, s *domain.Suggestion) error
	CreateBatch(ctx context.Context, ss []domain.Suggestion) error
	GetByID(ctx context.Context, id string) (*domain.Suggestion, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.Suggestion, error)
	ListFiltered(ctx context.Context, sessionID string, f Filter) ([]domain.Suggestion, error)
	Update(ctx context.Context, s *domain.Suggestion) error
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context, sessionID string) (*domain.Summary, error)
}
