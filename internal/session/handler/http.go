// Package handler exposes the session service over REST.
package handler

import (
	"net/http"
	"time"

	"saysense/backend/internal/apperr"
	"saysense/backend/internal/server/httpjson"
	"saysense/backend/internal/server/middleware"
	"saysense/backend/internal/session/domain"
	"saysense/backend/internal/session/repository"
	"saysense/backend/internal/session/service"
)

// Handler serves the /sessions endpoints. All routes require auth.
type Handler struct {
	sessions *service.SessionService
}

// NewHandler returns a session HTTP handler backed by the given service.
func NewHandler(sessions *service.SessionService) *Handler {
	return &Handler{sessions: sessions}
}

type createSessionRequest struct {
	Title       string   `json:"title"`
	SessionType string   `json:"sessionType"`
	SourceType  string   `json:"sourceType"`
	SourceURL   string   `json:"sourceUrl"`
	Language    string   `json:"language"`
	Tags        []string `json:"tags"`
}

type updateSessionRequest struct {
	Title       *string  `json:"title"`
	Summary     *string  `json:"summary"`
	Tags        []string `json:"tags"`
	DurationSec *int     `json:"durationSec"`
	Sentiment   *float64 `json:"sentiment"`
	Status      *string  `json:"status"`
}

type presignRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// Create handles POST /sessions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	var req createSessionRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	session, err := h.sessions.Create(r.Context(), id.UserID, service.CreateInput{
		Title:       req.Title,
		SessionType: domain.SessionType(req.SessionType),
		SourceType:  domain.SourceType(req.SourceType),
		SourceURL:   req.SourceURL,
		Language:    req.Language,
		Tags:        req.Tags,
	})
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, session)
}

// List handles GET /sessions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	sessions, err := h.sessions.List(r.Context(), id.UserID)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	httpjson.Write(w, http.StatusOK, sessions)
}

// Filter handles GET /sessions/filter?startDate&endDate&status.
func (h *Handler) Filter(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	q := r.URL.Query()

	var f repository.Filter
	if v := q.Get("startDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			httpjson.Error(w, apperr.Validationf("invalid startDate %q", v))
			return
		}
		f.StartDate = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			httpjson.Error(w, apperr.Validationf("invalid endDate %q", v))
			return
		}
		f.EndDate = &t
	}
	if v := q.Get("status"); v != "" {
		status := domain.Status(v)
		f.Status = &status
	}

	sessions, err := h.sessions.Filter(r.Context(), id.UserID, f)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	httpjson.Write(w, http.StatusOK, sessions)
}

// Get handles GET /sessions/{id}, returning the session with its children.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	detail, err := h.sessions.GetDetail(r.Context(), id.UserID, r.PathValue("id"))
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, detail)
}

// Update handles PUT /sessions/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	var req updateSessionRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	in := service.UpdateInput{
		Title:       req.Title,
		Summary:     req.Summary,
		Tags:        req.Tags,
		DurationSec: req.DurationSec,
		Sentiment:   req.Sentiment,
	}
	if req.Status != nil {
		status := domain.Status(*req.Status)
		in.Status = &status
	}
	session, err := h.sessions.Update(r.Context(), id.UserID, r.PathValue("id"), in)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, session)
}

// Delete handles DELETE /sessions/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	if err := h.sessions.Delete(r.Context(), id.UserID, r.PathValue("id")); err != nil {
		httpjson.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PresignUpload handles POST /sessions/presigned-url.
func (h *Handler) PresignUpload(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	upload, err := h.sessions.PresignUpload(r.Context(), req.FileName, req.FileType)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, upload)
}

// parseDate accepts RFC 3339 timestamps and bare dates.
func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
