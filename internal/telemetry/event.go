// Package telemetry emits best-effort usage events. Emission never affects
// the request that produced the event.
package telemetry

import "time"

// Event is one usage event. Attrs carries event-specific detail.
type Event struct {
	Type      string            `json:"type"`
	UserID    string            `json:"userId,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
	At        time.Time         `json:"at"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// Event types emitted across the backend.
const (
	EventSessionCreated = "session_created"
	EventSessionDeleted = "session_deleted"
	EventRoomJoined     = "room_joined"
	EventRoomLeft       = "room_left"
	EventUserRegistered = "user_registered"
	EventGuestCreated   = "guest_created"
	EventUserLoggedIn   = "user_logged_in"
)

// NewEvent builds an event stamped with the current time.
func NewEvent(eventType, userID, sessionID string) *Event {
	return &Event{Type: eventType, UserID: userID, SessionID: sessionID, At: time.Now().UTC()}
}
