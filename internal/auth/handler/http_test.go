package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"saysense/backend/internal/auth/service"
	"saysense/backend/internal/security"
	userdomain "saysense/backend/internal/user/domain"
)

type memUserRepo struct {
	byEmail map[string]*userdomain.User
	byID    map[string]*userdomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: map[string]*userdomain.User{}, byID: map[string]*userdomain.User{}}
}

func (m *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	return m.byID[id], nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	return m.byEmail[email], nil
}

func (m *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
	return nil
}

func newTestHandler() *Handler {
	hasher := security.NewHasher(bcrypt.MinCost)
	tokens := security.NewTokenProvider("a", "r", "saysense-api", time.Hour, time.Hour)
	return NewHandler(service.NewAuthService(newMemUserRepo(), hasher, tokens, nil))
}

func TestRegisterThenLogin(t *testing.T) {
	h := newTestHandler()

	body := `{"email":"a@b.co","password":"password123","name":"A"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	var reg authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reg.AccessToken == "" || reg.User.Email != "a@b.co" {
		t.Errorf("unexpected response: %+v", reg)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.co","password":"password123"}`))
	rec = httptest.NewRecorder()
	h.Login(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"nobody@b.co","password":"x"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRegister_DuplicateEmailIsConflict(t *testing.T) {
	h := newTestHandler()
	body := `{"email":"a@b.co","password":"password123","name":"A"}`

	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("second register status = %d, want 409", rec.Code)
	}
}

func TestGuestAndRefresh(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.Guest(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("guest status = %d", rec.Code)
	}
	var guest authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &guest); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !guest.User.IsGuest {
		t.Error("guest response should mark user as guest")
	}

	rec = httptest.NewRecorder()
	body := `{"refreshToken":"` + guest.RefreshToken + `"}`
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRegister_MalformedBody(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
