package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	dbtypes "saysense/backend/internal/db"
	"saysense/backend/internal/transcript/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a transcript repository using the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const segmentColumns = `id, session_id, start_time, end_time, speaker_label, transcript, confidence, highlights, created_at`

// Create persists one segment. The segment must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, seg *domain.Segment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transcript_segments (id, session_id, start_time, end_time, speaker_label, transcript, confidence, highlights, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		seg.ID, seg.SessionID, seg.StartTime, seg.EndTime, seg.SpeakerLabel,
		seg.Transcript, seg.Confidence, dbtypes.StringSlice(seg.Highlights), seg.CreatedAt)
	return err
}

// CreateBatch persists the segments in one transaction so a batch is all or nothing.
func (r *PostgresRepository) CreateBatch(ctx context.Context, segs []domain.Segment) error {
	if len(segs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transcript_segments (id, session_id, start_time, end_time, speaker_label, transcript, confidence, highlights, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, seg := range segs {
		if _, err := stmt.ExecContext(ctx, seg.ID, seg.SessionID, seg.StartTime, seg.EndTime,
			seg.SpeakerLabel, seg.Transcript, seg.Confidence, dbtypes.StringSlice(seg.Highlights), seg.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByID returns the segment, or nil if it does not exist.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Segment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+segmentColumns+` FROM transcript_segments WHERE id = $1`, id)
	seg, err := scanSegment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return seg, err
}

// ListBySession returns the session's segments ordered by start time.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.Segment, error) {
	return r.list(ctx,
		`SELECT `+segmentColumns+` FROM transcript_segments
		 WHERE session_id = $1 ORDER BY start_time`, sessionID)
}

// ListFiltered returns the session's segments matching f, ordered by start time.
func (r *PostgresRepository) ListFiltered(ctx context.Context, sessionID string, f Filter) ([]domain.Segment, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + segmentColumns + ` FROM transcript_segments WHERE session_id = $1`)
	args := []any{sessionID}
	if f.StartTime != nil {
		args = append(args, *f.StartTime)
		sb.WriteString(` AND end_time >= $` + strconv.Itoa(len(args)))
	}
	if f.EndTime != nil {
		args = append(args, *f.EndTime)
		sb.WriteString(` AND start_time <= $` + strconv.Itoa(len(args)))
	}
	if f.Speaker != nil {
		args = append(args, *f.Speaker)
		sb.WriteString(` AND speaker_label = $` + strconv.Itoa(len(args)))
	}
	sb.WriteString(` ORDER BY start_time`)
	return r.list(ctx, sb.String(), args...)
}

// Delete removes the segment. No-op when it does not exist.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transcript_segments WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]domain.Segment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *seg)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSegment(row rowScanner) (*domain.Segment, error) {
	var seg domain.Segment
	var confidence sql.NullFloat64
	var highlights dbtypes.StringSlice
	err := row.Scan(&seg.ID, &seg.SessionID, &seg.StartTime, &seg.EndTime,
		&seg.SpeakerLabel, &seg.Transcript, &confidence, &highlights, &seg.CreatedAt)
	if err != nil {
		return nil, err
	}
	if confidence.Valid {
		v := confidence.Float64
		seg.Confidence = &v
	}
	seg.Highlights = []string(highlights)
	return &seg, nil
}
