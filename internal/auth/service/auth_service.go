package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"saysense/backend/internal/apperr"
	"saysense/backend/internal/security"
	"saysense/backend/internal/telemetry"
	userdomain "saysense/backend/internal/user/domain"
)

// guestEmailDomain is the synthetic domain for generated guest accounts.
const guestEmailDomain = "saysense.app"

// AuthResult holds the token pair and user snapshot returned by every auth operation.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         *userdomain.User
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// AuthService implements register, login, guest-account creation, and token refresh.
type AuthService struct {
	users   UserRepo
	hasher  *security.Hasher
	tokens  *security.TokenProvider
	emitter telemetry.Emitter
}

// NewAuthService returns an AuthService with the given dependencies.
// emitter may be nil; usage events are then skipped.
func NewAuthService(users UserRepo, hasher *security.Hasher, tokens *security.TokenProvider, emitter telemetry.Emitter) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, emitter: emitter}
}

// Register creates a user with the given email, password, and name and returns a token pair.
// A duplicate email returns apperr.ErrConflict.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < 8 {
		return nil, apperr.Validationf("password must be at least 8 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validationf("name is required")
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflictf("email %s already registered", email)
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hashed,
		IsGuest:      false,
		Role:         userdomain.RoleUser,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	telemetry.EmitAsync(s.emitter, telemetry.NewEvent(telemetry.EventUserRegistered, user.ID, ""))
	return s.issueTokens(user)
}

// Login authenticates with email and password and returns a token pair.
// Unknown email, wrong password, or a guest account all return apperr.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperr.Unauthorizedf("invalid credentials")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsGuest || user.PasswordHash == "" {
		return nil, apperr.Unauthorizedf("invalid credentials")
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, apperr.Unauthorizedf("invalid credentials")
	}
	telemetry.EmitAsync(s.emitter, telemetry.NewEvent(telemetry.EventUserLoggedIn, user.ID, ""))
	return s.issueTokens(user)
}

// Guest creates a throwaway guest user and returns a token pair for it.
func (s *AuthService) Guest(ctx context.Context) (*AuthResult, error) {
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:        uuid.New().String(),
		Email:     fmt.Sprintf("guest-%s@%s", uuid.New().String(), guestEmailDomain),
		IsGuest:   true,
		Role:      userdomain.RoleUser,
		Name:      "Guest User",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	telemetry.EmitAsync(s.emitter, telemetry.NewEvent(telemetry.EventGuestCreated, user.ID, ""))
	return s.issueTokens(user)
}

// Refresh validates the refresh token and returns a fresh token pair for its user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, apperr.Unauthorizedf("missing refresh token")
	}
	id, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorizedf("invalid or expired refresh token")
	}
	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Unauthorizedf("user not found")
	}
	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *userdomain.User) (*AuthResult, error) {
	id := security.Identity{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    string(user.Role),
		IsGuest: user.IsGuest,
	}
	access, _, err := s.tokens.IssueAccess(id)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.tokens.IssueRefresh(id)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Validationf("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return apperr.Validationf("invalid email format")
	}
	return nil
}
