package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"saysense/backend/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, password_hash, is_guest, role, name, preferred_lang, avatar_url, deleted_at, created_at, updated_at`

// GetByID returns the user for id, or nil if not found or soft-deleted.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or nil if not found or soft-deleted.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND deleted_at IS NULL`, email)
	return scanUser(row)
}

// Create persists the user to the database. The user must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, is_guest, role, name, preferred_lang, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Email, nullString(u.PasswordHash), u.IsGuest, string(u.Role),
		u.Name, u.PreferredLang, nullString(u.AvatarURL), u.CreatedAt, u.UpdatedAt)
	return err
}

// Update updates the existing user record. No-op if the user does not exist.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = $2, name = $3, preferred_lang = $4, avatar_url = $5, updated_at = $6
		 WHERE id = $1 AND deleted_at IS NULL`,
		u.ID, u.Email, u.Name, u.PreferredLang, nullString(u.AvatarURL), time.Now().UTC())
	return err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var passwordHash, avatarURL sql.NullString
	var deletedAt sql.NullTime
	var role string
	err := row.Scan(&u.ID, &u.Email, &passwordHash, &u.IsGuest, &role, &u.Name,
		&u.PreferredLang, &avatarURL, &deletedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.PasswordHash = passwordHash.String
	u.AvatarURL = avatarURL.String
	u.Role = domain.Role(role)
	if deletedAt.Valid {
		t := deletedAt.Time
		u.DeletedAt = &t
	}
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
