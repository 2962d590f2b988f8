package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"saysense/backend/internal/security"
)

func newTestGateway(t *testing.T) (*httptest.Server, *Registry, *security.TokenProvider) {
	t.Helper()
	tokens := security.NewTokenProvider("access", "refresh", "saysense-api", time.Hour, time.Hour)
	registry := NewRegistry(nil)
	srv := httptest.NewServer(NewGateway(registry, tokens, ""))
	t.Cleanup(srv.Close)
	return srv, registry, tokens
}

func wsURL(srv *httptest.Server, token string) string {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return msg
}

func TestGateway_RejectsHandshakeWithoutToken(t *testing.T) {
	srv, _, tokens := newTestGateway(t)

	refresh, _, err := tokens.IssueRefresh(security.Identity{UserID: "u-1"})
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name string
		url  string
	}{
		{"no token", wsURL(srv, "")},
		{"garbage token", wsURL(srv, "not-a-jwt")},
		{"refresh token", wsURL(srv, refresh)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(tc.url, nil)
			if err == nil {
				t.Fatal("dial succeeded, want handshake rejection")
			}
			if resp == nil || resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("handshake status = %v, want 401", resp)
			}
		})
	}
}

func TestGateway_JoinAndReceiveBroadcast(t *testing.T) {
	srv, registry, tokens := newTestGateway(t)

	access, _, err := tokens.IssueAccess(security.Identity{UserID: "u-1", Email: "u1@example.com", Role: "user"})
	if err != nil {
		t.Fatal(err)
	}
	conn := dial(t, wsURL(srv, access))

	if err := conn.WriteJSON(clientMessage{Type: EventJoinSession, SessionID: "s-1"}); err != nil {
		t.Fatal(err)
	}
	// Join is asynchronous from the dialer's view; wait for membership.
	deadline := time.Now().Add(2 * time.Second)
	for registry.MemberCount("s-1") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never joined the room")
		}
		time.Sleep(5 * time.Millisecond)
	}

	registry.Broadcast("s-1", AnalysisUpdate(map[string]any{"metricType": "tone", "value": 0.8}))

	msg := readEvent(t, conn)
	if msg.Type != EventAnalysisUpdate {
		t.Errorf("event type = %q, want %q", msg.Type, EventAnalysisUpdate)
	}
	if msg.Timestamp == 0 {
		t.Error("event missing timestamp")
	}
}

func TestGateway_AudioChunkOutsideRoomReturnsError(t *testing.T) {
	srv, _, tokens := newTestGateway(t)

	access, _, err := tokens.IssueAccess(security.Identity{UserID: "u-1"})
	if err != nil {
		t.Fatal(err)
	}
	conn := dial(t, wsURL(srv, access))

	if err := conn.WriteJSON(clientMessage{Type: EventAudioChunk, SessionID: "s-1", Data: "zzzz"}); err != nil {
		t.Fatal(err)
	}
	msg := readEvent(t, conn)
	if msg.Type != EventError {
		t.Fatalf("event type = %q, want %q", msg.Type, EventError)
	}
	payload, ok := msg.Data.(map[string]any)
	if !ok || payload["code"] != CodeNotInSession {
		t.Errorf("error payload = %v, want code %s", msg.Data, CodeNotInSession)
	}

	// The connection stays usable after the error.
	if err := conn.WriteJSON(clientMessage{Type: EventJoinSession, SessionID: "s-1"}); err != nil {
		t.Fatal(err)
	}
}

func TestGateway_MalformedFrameReturnsInvalidMessage(t *testing.T) {
	srv, _, tokens := newTestGateway(t)

	access, _, err := tokens.IssueAccess(security.Identity{UserID: "u-1"})
	if err != nil {
		t.Fatal(err)
	}
	conn := dial(t, wsURL(srv, access))

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	msg := readEvent(t, conn)
	if msg.Type != EventError {
		t.Fatalf("event type = %q, want %q", msg.Type, EventError)
	}
	payload, ok := msg.Data.(map[string]any)
	if !ok || payload["code"] != CodeInvalidMessage {
		t.Errorf("error payload = %v, want code %s", msg.Data, CodeInvalidMessage)
	}
}
