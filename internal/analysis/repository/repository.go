package repository

import (
	"context"

	"saysense/backend/internal/analysis/domain"
)

// Filter narrows a metric listing. Nil / empty fields are not applied; time
// bounds compare against the metric's in-recording timestamp.
type Filter struct {
	Types     []domain.MetricType
	StartTime *float64
	EndTime   *float64
}

// Repository defines persistence for analysis metrics. Ownership is not
// checked here; services resolve the parent session first.
type Repository interface {
	Create(ctx context.Context, m *domain.Metric) error
	CreateBatch(ctx context.Context, ms []domain.Metric) error
	GetByID(ctx context.Context, id string) (*domain.Metric, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.Metric, error)
	ListFiltered(ctx context.Context, sessionID string, f Filter) ([]domain.Metric, error)
	ListByType(ctx context.Context, sessionID string, t domain.MetricType, limit int, ascending bool) ([]domain.Metric, error)
	Summary(ctx context.Context, sessionID string) ([]domain.TypeSummary, error)
	Latest(ctx context.Context, sessionID string) ([]domain.Metric, error)
	Delete(ctx context.Context, id string) error
}
