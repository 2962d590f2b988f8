package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"saysense/backend/internal/feedback/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a suggestion repository using the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const suggestionColumns = `id, session_id, type, severity, message, start_time, end_time, is_applied, is_resolved, created_at`

// Create persists one suggestion. The suggestion must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Suggestion) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback_suggestions (id, session_id, type, severity, message, start_time, end_time, is_applied, is_resolved, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.SessionID, string(s.Type), string(s.Severity), s.Message,
		s.StartTime, s.EndTime, s.IsApplied, s.IsResolved, s.CreatedAt)
	return err
}

// CreateBatch persists the suggestions in one transaction.
func (r *PostgresRepository) CreateBatch(ctx context.Context, ss []domain.Suggestion) error {
	if len(ss) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO feedback_suggestions (id, session_id, type, severity, message, start_time, end_time, is_applied, is_resolved, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, s := range ss {
		if _, err := stmt.ExecContext(ctx, s.ID, s.SessionID, string(s.Type), string(s.Severity),
			s.Message, s.StartTime, s.EndTime, s.IsApplied, s.IsResolved, s.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByID returns the suggestion, or nil if it does not exist.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Suggestion, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+suggestionColumns+` FROM feedback_suggestions WHERE id = $1`, id)
	s, err := scanSuggestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// ListBySession returns the session's suggestions, newest first.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Suggestion, error) {
	return r.list(ctx,
		`SELECT `+suggestionColumns+` FROM feedback_suggestions
		 WHERE session_id = $1 ORDER BY created_at DESC`, sessionID)
}

// ListFiltered returns the session's suggestions matching f, newest first.
func (r *PostgresRepository) ListFiltered(ctx context.Context, sessionID string, f Filter) ([]domain.Suggestion, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + suggestionColumns + ` FROM feedback_suggestions WHERE session_id = $1`)
	args := []any{sessionID}
	if len(f.Types) > 0 {
		sb.WriteString(` AND type IN (` + placeholders(&args, f.Types) + `)`)
	}
	if len(f.Severities) > 0 {
		sb.WriteString(` AND severity IN (` + placeholders(&args, f.Severities) + `)`)
	}
	if f.IsResolved != nil {
		args = append(args, *f.IsResolved)
		sb.WriteString(` AND is_resolved = $` + strconv.Itoa(len(args)))
	}
	if f.StartTime != nil {
		args = append(args, *f.StartTime)
		sb.WriteString(` AND start_time >= $` + strconv.Itoa(len(args)))
	}
	if f.EndTime != nil {
		args = append(args, *f.EndTime)
		sb.WriteString(` AND start_time <= $` + strconv.Itoa(len(args)))
	}
	sb.WriteString(` ORDER BY created_at DESC`)
	return r.list(ctx, sb.String(), args...)
}

// Update writes back the mutable suggestion fields.
func (r *PostgresRepository) Update(ctx context.Context, s *domain.Suggestion) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE feedback_suggestions SET message = $2, severity = $3, is_applied = $4, is_resolved = $5
		 WHERE id = $1`,
		s.ID, s.Message, string(s.Severity), s.IsApplied, s.IsResolved)
	return err
}

// Delete removes the suggestion. No-op when it does not exist.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM feedback_suggestions WHERE id = $1`, id)
	return err
}

// Summary counts the session's suggestions by type, severity, and state.
func (r *PostgresRepository) Summary(ctx context.Context, sessionID string) (*domain.Summary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, severity, is_applied, is_resolved, COUNT(*)
		 FROM feedback_suggestions WHERE session_id = $1
		 GROUP BY type, severity, is_applied, is_resolved`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sum := &domain.Summary{
		ByType:     map[domain.SuggestionType]int{},
		BySeverity: map[domain.Severity]int{},
	}
	for rows.Next() {
		var t, sev string
		var applied, resolved bool
		var n int
		if err := rows.Scan(&t, &sev, &applied, &resolved, &n); err != nil {
			return nil, err
		}
		sum.Total += n
		sum.ByType[domain.SuggestionType(t)] += n
		sum.BySeverity[domain.Severity(sev)] += n
		if applied {
			sum.Applied += n
		}
		if resolved {
			sum.Resolved += n
		}
	}
	return sum, rows.Err()
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]domain.Suggestion, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Suggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
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

func scanSuggestion(row rowScanner) (*domain.Suggestion, error) {
	var s domain.Suggestion
	var suggestionType, severity string
	var startTime, endTime sql.NullFloat64
	err := row.Scan(&s.ID, &s.SessionID, &suggestionType, &severity, &s.Message,
		&startTime, &endTime, &s.IsApplied, &s.IsResolved, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Type = domain.SuggestionType(suggestionType)
	s.Severity = domain.Severity(severity)
	if startTime.Valid {
		v := startTime.Float64
		s.StartTime = &v
	}
	if endTime.Valid {
		v := endTime.Float64
		s.EndTime = &v
	}
	return &s, nil
}

// placeholders appends the values to args and returns the matching $n list.
func placeholders[T ~string](args *[]any, values []T) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		*args = append(*args, string(v))
		out = append(out, "$"+strconv.Itoa(len(*args)))
	}
	return strings.Join(out, ", ")
}
