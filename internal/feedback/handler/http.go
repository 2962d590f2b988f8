// Package handler exposes feedback suggestions over REST, nested under sessions.
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"saysense/backend/internal/apperr"
	"saysense/backend/internal/feedback/domain"
	"saysense/backend/internal/feedback/repository"
	"saysense/backend/internal/feedback/service"
	"saysense/backend/internal/server/httpjson"
	"saysense/backend/internal/server/middleware"
)

// Handler serves the /sessions/{sessionId}/feedback endpoints.
type Handler struct {
	feedback *service.FeedbackService
}

// NewHandler returns a feedback HTTP handler backed by the given service.
func NewHandler(feedback *service.FeedbackService) *Handler {
	return &Handler{feedback: feedback}
}

type suggestionRequest struct {
	SessionID string   `json:"sessionId"`
	Type      string   `json:"type"`
	Severity  string   `json:"severity"`
	Message   string   `json:"message"`
	StartTime *float64 `json:"startTime"`
	EndTime   *float64 `json:"endTime"`
}

func (req suggestionRequest) toInput() service.CreateSuggestionInput {
	return service.CreateSuggestionInput{
		SessionID: req.SessionID,
		Type:      domain.SuggestionType(req.Type),
		Severity:  domain.Severity(req.Severity),
		Message:   req.Message,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
}

type updateSuggestionRequest struct {
	Message    *string `json:"message"`
	Severity   *string `json:"severity"`
	IsApplied  *bool   `json:"isApplied"`
	IsResolved *bool   `json:"isResolved"`
}

// Create handles POST /sessions/{sessionId}/feedback/suggestions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	var req suggestionRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	sg, err := h.feedback.Create(r.Context(), id.UserID, r.PathValue("sessionId"), req.toInput())
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, sg)
}

// CreateBatch handles POST /sessions/{sessionId}/feedback/suggestions/batch.
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	var reqs []suggestionRequest
	if err := httpjson.Decode(r, &reqs); err != nil {
		httpjson.Error(w, err)
		return
	}
	ins := make([]service.CreateSuggestionInput, 0, len(reqs))
	for _, req := range reqs {
		ins = append(ins, req.toInput())
	}
	sgs, err := h.feedback.CreateBatch(r.Context(), id.UserID, r.PathValue("sessionId"), ins)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, sgs)
}

// List handles GET /sessions/{sessionId}/feedback/suggestions with the
// types/severities/isResolved/startTime/endTime query filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	q := r.URL.Query()

	var f repository.Filter
	if v := q.Get("types"); v != "" {
		for _, t := range strings.Split(v, ",") {
			f.Types = append(f.Types, domain.SuggestionType(strings.TrimSpace(t)))
		}
	}
	if v := q.Get("severities"); v != "" {
		for _, s := range strings.Split(v, ",") {
			f.Severities = append(f.Severities, domain.Severity(strings.TrimSpace(s)))
		}
	}
	if v := q.Get("isResolved"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httpjson.Error(w, apperr.Validationf("invalid isResolved %q", v))
			return
		}
		f.IsResolved = &b
	}
	var err error
	if f.StartTime, err = floatParam(q.Get("startTime")); err != nil {
		httpjson.Error(w, apperr.Validationf("invalid startTime %q", q.Get("startTime")))
		return
	}
	if f.EndTime, err = floatParam(q.Get("endTime")); err != nil {
		httpjson.Error(w, apperr.Validationf("invalid endTime %q", q.Get("endTime")))
		return
	}

	sgs, err := h.feedback.List(r.Context(), id.UserID, r.PathValue("sessionId"), f)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	if sgs == nil {
		sgs = []domain.Suggestion{}
	}
	httpjson.Write(w, http.StatusOK, sgs)
}

// Get handles GET /sessions/{sessionId}/feedback/suggestions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	sg, err := h.feedback.Get(r.Context(), id.UserID, r.PathValue("sessionId"), r.PathValue("id"))
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, sg)
}

// Update handles PATCH /sessions/{sessionId}/feedback/suggestions/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	var req updateSuggestionRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	in := service.UpdateInput{
		Message:    req.Message,
		IsApplied:  req.IsApplied,
		IsResolved: req.IsResolved,
	}
	if req.Severity != nil {
		sev := domain.Severity(*req.Severity)
		in.Severity = &sev
	}
	sg, err := h.feedback.Update(r.Context(), id.UserID, r.PathValue("sessionId"), r.PathValue("id"), in)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, sg)
}

// Delete handles DELETE /sessions/{sessionId}/feedback/suggestions/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	if err := h.feedback.Delete(r.Context(), id.UserID, r.PathValue("sessionId"), r.PathValue("id")); err != nil {
		httpjson.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /sessions/{sessionId}/feedback/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	sum, err := h.feedback.Summary(r.Context(), id.UserID, r.PathValue("sessionId"))
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, sum)
}

func floatParam(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
