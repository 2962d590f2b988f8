package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	dbtypes "saysense/backend/internal/db"
	"saysense/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, user_id, title, session_type, source_type, source_url, language,
	status, duration_sec, completed_at, summary, sentiment, tags, deleted_at, created_at`

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, title, session_type, source_type, source_url, language,
		   status, duration_sec, summary, sentiment, tags, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		s.ID, s.UserID, s.Title, string(s.SessionType), string(s.SourceType),
		nullString(s.SourceURL), s.Language, string(s.Status), s.DurationSec,
		nullString(s.Summary), s.Sentiment, dbtypes.StringSlice(s.Tags), s.CreatedAt)
	return err
}

// GetByIDForUser returns the session only when it exists, is not soft-deleted,
// and belongs to userID. Otherwise nil, nil.
func (r *PostgresRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID)
	return scanSession(row)
}

// ListByUser returns the user's non-deleted sessions, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	return r.list(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`, userID)
}

// FilterByUser returns the user's non-deleted sessions matching f, newest first.
func (r *PostgresRepository) FilterByUser(ctx context.Context, userID string, f Filter) ([]domain.Session, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = $1 AND deleted_at IS NULL`)
	args := []any{userID}
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		sb.WriteString(` AND created_at >= $` + strconv.Itoa(len(args)))
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		sb.WriteString(` AND created_at <= $` + strconv.Itoa(len(args)))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		sb.WriteString(` AND status = $` + strconv.Itoa(len(args)))
	}
	sb.WriteString(` ORDER BY created_at DESC`)
	return r.list(ctx, sb.String(), args...)
}

// Update writes back the mutable session fields.
func (r *PostgresRepository) Update(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET title = $2, status = $3, duration_sec = $4, completed_at = $5,
		   summary = $6, sentiment = $7, tags = $8
		 WHERE id = $1 AND deleted_at IS NULL`,
		s.ID, s.Title, string(s.Status), s.DurationSec, s.CompletedAt,
		nullString(s.Summary), s.Sentiment, dbtypes.StringSlice(s.Tags))
	return err
}

// SoftDelete marks the session deleted when it belongs to userID. Reports
// whether a row was affected.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET deleted_at = $3
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateParticipant persists the participant. The participant must have ID set.
func (r *PostgresRepository) CreateParticipant(ctx context.Context, p *domain.Participant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO participants (id, session_id, name, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.SessionID, p.Name, p.Role, p.CreatedAt)
	return err
}

// ListParticipants returns the session's participants in insertion order.
func (r *PostgresRepository) ListParticipants(ctx context.Context, sessionID string) ([]domain.Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, name, role, created_at FROM participants
		 WHERE session_id = $1 ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Name, &p.Role, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Session
	for rows.Next() {
		s, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row *sql.Row) (*domain.Session, error) {
	s, err := scanSessionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func scanSessionRow(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	var sessionType, sourceType, status string
	var sourceURL, summary sql.NullString
	var sentiment sql.NullFloat64
	var completedAt, deletedAt sql.NullTime
	var tags dbtypes.StringSlice
	err := row.Scan(&s.ID, &s.UserID, &s.Title, &sessionType, &sourceType, &sourceURL,
		&s.Language, &status, &s.DurationSec, &completedAt, &summary, &sentiment,
		&tags, &deletedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.SessionType = domain.SessionType(sessionType)
	s.SourceType = domain.SourceType(sourceType)
	s.Status = domain.Status(status)
	s.SourceURL = sourceURL.String
	s.Summary = summary.String
	if sentiment.Valid {
		v := sentiment.Float64
		s.Sentiment = &v
	}
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		s.DeletedAt = &t
	}
	s.Tags = []string(tags)
	return &s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
