package repository

import (
	"context"
	"time"

	"saysense/backend/internal/session/domain"
)

// Filter narrows a session listing. Nil fields are not applied.
type Filter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    *domain.Status
}

// Repository defines persistence for sessions and their participants.
// Lookups scoped by user return nil (not an error) when the session is
// missing, soft-deleted, or owned by someone else.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Session, error)
	FilterByUser(ctx context.Context, userID string, f Filter) ([]domain.Session, error)
	Update(ctx context.Context, s *domain.Session) error
	SoftDelete(ctx context.Context, id, userID string, at time.Time) (bool, error)
	CreateParticipant(ctx context.Context, p *domain.Participant) error
	ListParticipants(ctx context.Context, sessionID string) ([]domain.Participant, error)
}
