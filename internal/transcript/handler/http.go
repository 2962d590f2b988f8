// Package handler exposes transcript segments over REST, nested under sessions.
package handler

import (
	"net/http"
	"strconv"

	"saysense/backend/internal/apperr"
	"saysense/backend/internal/server/httpjson"
	"saysense/backend/internal/server/middleware"
	"saysense/backend/internal/transcript/domain"
	"saysense/backend/internal/transcript/repository"
	"saysense/backend/internal/transcript/service"
)

// Handler serves the /sessions/{sessionId}/transcripts endpoints.
type Handler struct {
	transcripts *service.TranscriptService
}

// NewHandler returns a transcript HTTP handler backed by the given service.
func NewHandler(transcripts *service.TranscriptService) *Handler {
	return &Handler{transcripts: transcripts}
}

type segmentRequest struct {
	SessionID    string   `json:"sessionId"`
	StartTime    float64  `json:"startTime"`
	EndTime      float64  `json:"endTime"`
	SpeakerLabel string   `json:"speakerLabel"`
	Transcript   string   `json:"transcript"`
	Confidence   *float64 `json:"confidence"`
	Highlights   []string `json:"highlights"`
}

func (req segmentRequest) toInput() service.CreateSegmentInput {
	return service.CreateSegmentInput{
		SessionID:    req.SessionID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		SpeakerLabel: req.SpeakerLabel,
		Transcript:   req.Transcript,
		Confidence:   req.Confidence,
		Highlights:   req.Highlights,
	}
}

// Create handles POST /sessions/{sessionId}/transcripts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	var req segmentRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, err)
		return
	}
	seg, err := h.transcripts.Create(r.Context(), id.UserID, r.PathValue("sessionId"), req.toInput())
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, seg)
}

// CreateBatch handles POST /sessions/{sessionId}/transcripts/batch.
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	var reqs []segmentRequest
	if err := httpjson.Decode(r, &reqs); err != nil {
		httpjson.Error(w, err)
		return
	}
	ins := make([]service.CreateSegmentInput, 0, len(reqs))
	for _, req := range reqs {
		ins = append(ins, req.toInput())
	}
	segs, err := h.transcripts.CreateBatch(r.Context(), id.UserID, r.PathValue("sessionId"), ins)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, segs)
}

// List handles GET /sessions/{sessionId}/transcripts?startTime&endTime&speaker.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	q := r.URL.Query()

	var f repository.Filter
	if v := q.Get("startTime"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httpjson.Error(w, apperr.Validationf("invalid startTime %q", v))
			return
		}
		f.StartTime = &t
	}
	if v := q.Get("endTime"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			httpjson.Error(w, apperr.Validationf("invalid endTime %q", v))
			return
		}
		f.EndTime = &t
	}
	if v := q.Get("speaker"); v != "" {
		f.Speaker = &v
	}

	segs, err := h.transcripts.List(r.Context(), id.UserID, r.PathValue("sessionId"), f)
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	if segs == nil {
		segs = []domain.Segment{}
	}
	httpjson.Write(w, http.StatusOK, segs)
}

// Get handles GET /sessions/{sessionId}/transcripts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	seg, err := h.transcripts.Get(r.Context(), id.UserID, r.PathValue("sessionId"), r.PathValue("id"))
	if err != nil {
		httpjson.Error(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, seg)
}

// Delete handles DELETE /sessions/{sessionId}/transcripts/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	if err := h.transcripts.Delete(r.Context(), id.UserID, r.PathValue("sessionId"), r.PathValue("id")); err != nil {
		httpjson.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
