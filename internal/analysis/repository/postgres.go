package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"saysense/backend/internal/analysis/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a metric repository using the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const metricColumns = `id, session_id, metric_type, value, ts, label, created_at`

// Create persists one metric. The metric must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, m *domain.Metric) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO analysis_metrics (id, session_id, metric_type, value, ts, label, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.SessionID, string(m.Type), m.Value, m.Timestamp, nullString(m.Label), m.CreatedAt)
	return err
}

// CreateBatch persists the metrics in one transaction.
func (r *PostgresRepository) CreateBatch(ctx context.Context, ms []domain.Metric) error {
	if len(ms) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO analysis_metrics (id, session_id, metric_type, value, ts, label, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, m := range ms {
		if _, err := stmt.ExecContext(ctx, m.ID, m.SessionID, string(m.Type), m.Value,
			m.Timestamp, nullString(m.Label), m.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByID returns the metric, or nil if it does not exist.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Metric, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+metricColumns+` FROM analysis_metrics WHERE id = $1`, id)
	m, err := scanMetric(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// ListBySession returns the session's metrics ordered by timestamp.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Metric, error) {
	return r.list(ctx,
		`SELECT `+metricColumns+` FROM analysis_metrics
		 WHERE session_id = $1 ORDER BY ts`, sessionID)
}

// ListFiltered returns the session's metrics matching f, ordered by timestamp.
func (r *PostgresRepository) ListFiltered(ctx context.Context, sessionID string, f Filter) ([]domain.Metric, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + metricColumns + ` FROM analysis_metrics WHERE session_id = $1`)
	args := []any{sessionID}
	if len(f.Types) > 0 {
		placeholders := make([]string, 0, len(f.Types))
		for _, t := range f.Types {
			args = append(args, string(t))
			placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
		}
		sb.WriteString(` AND metric_type IN (` + strings.Join(placeholders, ", ") + `)`)
	}
	if f.StartTime != nil {
		args = append(args, *f.StartTime)
		sb.WriteString(` AND ts >= $` + strconv.Itoa(len(args)))
	}
	if f.EndTime != nil {
		args = append(args, *f.EndTime)
		sb.WriteString(` AND ts <= $` + strconv.Itoa(len(args)))
	}
	sb.WriteString(` ORDER BY ts`)
	return r.list(ctx, sb.String(), args...)
}

// ListByType returns one metric type's series, oldest or newest first.
func (r *PostgresRepository) ListByType(ctx context.Context, sessionID string, t domain.MetricType, limit int, ascending bool) ([]domain.Metric, error) {
	order := "DESC"
	if ascending {
		order = "ASC"
	}
	query := `SELECT ` + metricColumns + ` FROM analysis_metrics
		 WHERE session_id = $1 AND metric_type = $2 ORDER BY ts ` + order
	args := []any{sessionID, string(t)}
	if limit > 0 {
		args = append(args, limit)
		query += ` LIMIT $3`
	}
	return r.list(ctx, query, args...)
}

// Summary aggregates the session's metrics per type.
func (r *PostgresRepository) Summary(ctx context.Context, sessionID string) ([]domain.TypeSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT metric_type, AVG(value), MIN(value), MAX(value), COUNT(*)
		 FROM analysis_metrics WHERE session_id = $1
		 GROUP BY metric_type ORDER BY metric_type`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.TypeSummary
	for rows.Next() {
		var s domain.TypeSummary
		var t string
		if err := rows.Scan(&t, &s.Average, &s.Min, &s.Max, &s.Count); err != nil {
			return nil, err
		}
		s.Type = domain.MetricType(t)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Latest returns the newest metric of each type present in the session.
func (r *PostgresRepository) Latest(ctx context.Context, sessionID string) ([]domain.Metric, error) {
	return r.list(ctx,
		`SELECT DISTINCT ON (metric_type) `+metricColumns+`
		 FROM analysis_metrics WHERE session_id = $1
		 ORDER BY metric_type, ts DESC`, sessionID)
}

// Delete removes the metric. No-op when it does not exist.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM analysis_metrics WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]domain.Metric, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Metric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetric(row rowScanner) (*domain.Metric, error) {
	var m domain.Metric
	var metricType string
	var label sql.NullString
	err := row.Scan(&m.ID, &m.SessionID, &metricType, &m.Value, &m.Timestamp, &label, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Type = domain.MetricType(metricType)
	m.Label = label.String
	return &m, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
