package middleware

import (
	"net/http"
	"strings"

	"saysense/backend/internal/apperr"
	"saysense/backend/internal/security"
	"saysense/backend/internal/server/httpjson"
)

// RequireAuth validates the Authorization bearer token and stores the
// resulting identity in the request context. Requests without a valid access
// token get 401 without reaching the handler.
func RequireAuth(tokens *security.TokenProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httpjson.Error(w, apperr.Unauthorizedf("missing bearer token"))
				return
			}
			id, err := tokens.ValidateAccess(token)
			if err != nil {
				httpjson.Error(w, apperr.Unauthorizedf("invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}
