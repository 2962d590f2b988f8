// Package server assembles the HTTP surface: route table, auth middleware,
// request logging, and the health endpoint.
package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	analysishandler "saysense/backend/internal/analysis/handler"
	authhandler "saysense/backend/internal/auth/handler"
	feedbackhandler "saysense/backend/internal/feedback/handler"
	"saysense/backend/internal/realtime"
	"saysense/backend/internal/security"
	"saysense/backend/internal/server/middleware"
	sessionhandler "saysense/backend/internal/session/handler"
	transcripthandler "saysense/backend/internal/transcript/handler"
)

// Deps carries everything the router mounts.
type Deps struct {
	Auth       *authhandler.Handler
	Sessions   *sessionhandler.Handler
	Transcript *transcripthandler.Handler
	Analysis   *analysishandler.Handler
	Feedback   *feedbackhandler.Handler
	Gateway    *realtime.Gateway
	Tokens     *security.TokenProvider
	DB         *sql.DB
}

// NewRouter builds the full route table. Auth routes are public; everything
// else under /sessions requires a bearer token.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			if err := d.DB.PingContext(r.Context()); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /auth/register", d.Auth.Register)
	mux.HandleFunc("POST /auth/login", d.Auth.Login)
	mux.HandleFunc("POST /auth/guest", d.Auth.Guest)
	mux.HandleFunc("POST /auth/refresh", d.Auth.Refresh)

	authed := http.NewServeMux()

	authed.HandleFunc("POST /sessions", d.Sessions.Create)
	authed.HandleFunc("GET /sessions", d.Sessions.List)
	authed.HandleFunc("GET /sessions/filter", d.Sessions.Filter)
	authed.HandleFunc("POST /sessions/presigned-url", d.Sessions.PresignUpload)
	authed.HandleFunc("GET /sessions/{id}", d.Sessions.Get)
	authed.HandleFunc("PUT /sessions/{id}", d.Sessions.Update)
	authed.HandleFunc("DELETE /sessions/{id}", d.Sessions.Delete)

	authed.HandleFunc("POST /sessions/{sessionId}/transcripts", d.Transcript.Create)
	authed.HandleFunc("POST /sessions/{sessionId}/transcripts/batch", d.Transcript.CreateBatch)
	authed.HandleFunc("GET /sessions/{sessionId}/transcripts", d.Transcript.List)
	authed.HandleFunc("GET /sessions/{sessionId}/transcripts/{id}", d.Transcript.Get)
	authed.HandleFunc("DELETE /sessions/{sessionId}/transcripts/{id}", d.Transcript.Delete)

	authed.HandleFunc("POST /sessions/{sessionId}/analysis/metrics", d.Analysis.Create)
	authed.HandleFunc("POST /sessions/{sessionId}/analysis/metrics/batch", d.Analysis.CreateBatch)
	authed.HandleFunc("GET /sessions/{sessionId}/analysis/metrics", d.Analysis.List)
	authed.HandleFunc("GET /sessions/{sessionId}/analysis/metrics/{type}", d.Analysis.Series)
	authed.HandleFunc("GET /sessions/{sessionId}/analysis/summary", d.Analysis.Summary)
	authed.HandleFunc("GET /sessions/{sessionId}/analysis/latest", d.Analysis.Latest)
	authed.HandleFunc("DELETE /sessions/{sessionId}/analysis/metrics/{id}", d.Analysis.Delete)
	authed.HandleFunc("POST /sessions/{sessionId}/analysis/audio", d.Analysis.AnalyzeAudio)

	authed.HandleFunc("POST /sessions/{sessionId}/feedback/suggestions", d.Feedback.Create)
	authed.HandleFunc("POST /sessions/{sessionId}/feedback/suggestions/batch", d.Feedback.CreateBatch)
	authed.HandleFunc("GET /sessions/{sessionId}/feedback/suggestions", d.Feedback.List)
	authed.HandleFunc("GET /sessions/{sessionId}/feedback/suggestions/{id}", d.Feedback.Get)
	authed.HandleFunc("PATCH /sessions/{sessionId}/feedback/suggestions/{id}", d.Feedback.Update)
	authed.HandleFunc("DELETE /sessions/{sessionId}/feedback/suggestions/{id}", d.Feedback.Delete)
	authed.HandleFunc("GET /sessions/{sessionId}/feedback/summary", d.Feedback.Summary)

	requireAuth := middleware.RequireAuth(d.Tokens)
	mux.Handle("/sessions", requireAuth(authed))
	mux.Handle("/sessions/", requireAuth(authed))

	// The gateway authenticates from the handshake query itself.
	if d.Gateway != nil {
		mux.Handle("GET /ws", d.Gateway)
	}

	return logRequests(mux)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// WebSocket upgrades hijack the connection; wrapping the writer
		// would break the http.Hijacker assertion in gorilla.
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
