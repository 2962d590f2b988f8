// Package handler exposes analysis metrics over REST, nested under sessions.
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"saysense/backend/internal/analysis/domain"
	"saysense/backend/internal/analysis/repository"
	"saysense/backend/internal/analysis/service"
	"saysense/backend/internal/apperr"
	"saysense/backend/internal/server/httpjson"
	"saysense/backend/internal/server/middleware"
)

// Handler serves the /sessions/{sessionId}/analysis endpoints.
type Handler struct {
	analysis *service.AnalysisService
}

// NewHandler returns an analysis HTTP handler backed by the given service.
func NewHandler(analysis *service.AnalysisService) *Handler {
	return &Handler{analysis: analysis}
}

type metricRequest struct {
	SessionID string  `json:"sessionId"`
	Type      string  `json:"metricType"`
	Value     float64 `json:"value"`
	Timestamp float64 `json:"timestamp"`
	Label     string  `json:"label"`
}

func (req metricRequest) toInput() service.CreateMetricInput {
	return service.CreateMetricInput{
		SessionID: req.SessionID,
		Type:      domain.MetricType(req.Type),
		Value:     req.Value,
		Timestamp: req.Timestamp,
		Label:     req.Label,
	}
}

type analyzeAudioRequest struct {
	AudioData string `json:"audioData"`
	Language  string `json:"language"`
}

// Create handles POST /sessions/{sessionId}/analysis/metrics.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	var req metricRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	m, err := h.analysis.Create(r.Context(), id.UserID, r.PathValue("sessionId"), req.toInput())
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, m)
}

// CreateBatch handles POST /sessions/{sessionId}/analysis/metrics/batch.
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	var reqs []metricRequest
	if err := httpjson.Decode(r, &reqs); err != nil {
		httpjson.Error(w, err)
		return
	}
	ins := make([]service.CreateMetricInput, 0, len(reqs))
	for _, req := range reqs {
		ins = append(ins, req.toInput())
	}
	ms, err := h.analysis.CreateBatch(r.Context(), id.UserID, r.PathValue("sessionId"), ins)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, ms)
}

// List handles GET /sessions/{sessionId}/analysis/metrics?types&startTime&endTime.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	q := r.URL.Query()

	var f repository.Filter
	if v := q.Get("types"); v != "" {
		for _, t := range strings.Split(v, ",") {
			f.Types = append(f.Types, domain.MetricType(strings.TrimSpace(t)))
		}
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

	ms, err := h.analysis.List(r.Context(), id.UserID, r.PathValue("sessionId"), f)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	if ms == nil {
		ms = []domain.Metric{}
	}
	httpjson.Write(w, http.StatusOK, ms)
}

// Series handles GET /sessions/{sessionId}/analysis/metrics/{type}?limit&order.
func (h *Handler) Series(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	q := r.URL.Query()

	var sq service.SeriesQuery
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpjson.Error(w, apperr.Validationf("invalid limit %q", v))
			return
		}
		sq.Limit = n
	}
	switch q.Get("order") {
	case "", "desc":
	case "asc":
		sq.Ascending = true
	default:
		httpjson.Error(w, apperr.Validationf("order must be asc or desc"))
		return
	}

	ms, err := h.analysis.Series(r.Context(), id.UserID, r.PathValue("sessionId"),
		domain.MetricType(r.PathValue("type")), sq)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	if ms == nil {
		ms = []domain.Metric{}
	}
	httpjson.Write(w, http.StatusOK, ms)
}

// Summary handles GET /sessions/{sessionId}/analysis/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	summaries, err := h.analysis.Summary(r.Context(), id.UserID, r.PathValue("sessionId"))
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	if summaries == nil {
		summaries = []domain.TypeSummary{}
	}
	httpjson.Write(w, http.StatusOK, summaries)
}

// Latest handles GET /sessions/{sessionId}/analysis/latest.
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	ms, err := h.analysis.Latest(r.Context(), id.UserID, r.PathValue("sessionId"))
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	if ms == nil {
		ms = []domain.Metric{}
	}
	httpjson.Write(w, http.StatusOK, ms)
}

// Delete handles DELETE /sessions/{sessionId}/analysis/metrics/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	if err := h.analysis.Delete(r.Context(), id.UserID, r.PathValue("sessionId"), r.PathValue("id")); err != nil {
		httpjson.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AnalyzeAudio handles POST /sessions/{sessionId}/analysis/audio.
func (h *Handler) AnalyzeAudio(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	var req analyzeAudioRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	res, err := h.analysis.AnalyzeAudio(r.Context(), id.UserID, r.PathValue("sessionId"), req.AudioData, req.Language)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
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
