package repository

import (
	"context"

	"saysense/backend/internal/transcript/domain"
)

// Filter narrows a segment listing. Time bounds use overlap semantics: a
// segment matches when its range intersects [StartTime, EndTime].
type Filter struct {
	StartTime *float64
	EndTime   *float64
	Speaker   *string
}

// Repository defines persistence for transcript segments. Ownership is not
// checked here; services resolve the parent session first.
type Repository interface {
	Create(ctx context.Context, seg *domain.Segment) error
	CreateBatch(ctx context.Context, segs []domain.Segment) error
	GetByID(ctx context.Context, id string) (*domain.Segment, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.Segment, error)
	ListFiltered(ctx context.Context, sessionID string, f Filter) ([]domain.Segment, error)
	Delete(ctx context.Context, id string) error
}
