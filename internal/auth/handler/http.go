// Package handler exposes the auth service over REST: register, login, guest, refresh.
package handler

import (
	"net/http"

	"saysense/backend/internal/auth/service"
	"saysense/backend/internal/server/httpjson"
	userdomain "saysense/backend/internal/user/domain"
)

// Handler serves the /auth endpoints. All of them are public (no bearer token).
type Handler struct {
	auth *service.AuthService
}

// NewHandler returns an auth HTTP handler backed by the given service.
func NewHandler(auth *service.AuthService) *Handler {
	return &Handler{auth: auth}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	IsGuest       bool   `json:"isGuest"`
	PreferredLang string `json:"preferredLang"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
}

type authResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         userResponse `json:"user"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	res, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, toAuthResponse(res))
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, toAuthResponse(res))
}

// Guest handles POST /auth/guest.
func (h *Handler) Guest(w http.ResponseWriter, r *http.Request) {
	res, err := h.auth.Guest(r.Context())
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, toAuthResponse(res))
}

// Refresh handles POST /auth/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	res, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, toAuthResponse(res))
}

func toAuthResponse(res *service.AuthResult) authResponse {
	return authResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         toUserResponse(res.User),
	}
}

func toUserResponse(u *userdomain.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          string(u.Role),
		IsGuest:       u.IsGuest,
		PreferredLang: u.PreferredLang,
		AvatarURL:     u.AvatarURL,
	}
}
