package realtime

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"saysense/backend/internal/apperr"
	"saysense/backend/internal/security"
	"saysense/backend/internal/server/httpjson"
)

// Gateway upgrades HTTP requests to WebSocket connections and hands them to
// the registry. Authentication happens before the upgrade: browsers cannot set
// headers on WebSocket handshakes, so the access token travels in the `token`
// query parameter and is validated exactly like a REST bearer token.
type Gateway struct {
	registry *Registry
	tokens   *security.TokenProvider
	upgrader websocket.Upgrader
}

// NewGateway builds a gateway. allowedOrigin restricts handshake origins;
// empty allows any origin, for local development.
func NewGateway(registry *Registry, tokens *security.TokenProvider, allowedOrigin string) *Gateway {
	return &Gateway{
		registry: registry,
		tokens:   tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// ServeHTTP handles GET /ws.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httpjson.Error(w, apperr.Unauthorizedf("missing token"))
		return
	}
	identity, err := g.tokens.ValidateAccess(token)
	if err != nil {
		httpjson.Error(w, apperr.Unauthorizedf("invalid token"))
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	connID := uuid.NewString()
	c := &client{
		id:       connID,
		conn:     conn,
		registry: g.registry,
		outbound: g.registry.Register(connID, identity.UserID, identity.IsGuest),
	}
	slog.Info("websocket connected", "conn_id", connID, "user_id", identity.UserID)

	go c.writePump()
	go c.readPump()
}
