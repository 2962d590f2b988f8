// Package realtime implements the WebSocket side of the backend: the event
// vocabulary, the session-room registry, and the gorilla/websocket gateway.
package realtime

import "time"

// EventType names a WebSocket event. Server-to-client events are built with
// the constructors below; client-to-server events arrive as clientMessage.
type EventType string

const (
	EventSessionUpdated     EventType = "session_updated"
	EventAnalysisUpdate     EventType = "analysis_update"
	EventTranscriptUpdate   EventType = "transcript_update"
	EventFeedbackUpdate     EventType = "feedback_update"
	EventFeedbackSuggestion EventType = "feedback_suggestion"
	EventAudioChunk         EventType = "audio_chunk"
	EventError              EventType = "error"
)

// Client-to-server event types.
const (
	EventJoinSession  EventType = "join_session"
	EventLeaveSession EventType = "leave_session"
)

// Error codes carried in error events.
const (
	CodeNotInSession   = "NOT_IN_SESSION"
	CodeInvalidMessage = "INVALID_MESSAGE"
)

// Message is the wire shape of every server-to-client event. Timestamp is
// Unix milliseconds, assigned at construction time.
type Message struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp int64     `json:"timestamp"`
}

func newMessage(t EventType, data any) Message {
	return Message{Type: t, Data: data, Timestamp: time.Now().UnixMilli()}
}

// Broadcaster delivers a message to every member of a session room. Domain
// services depend on this interface so they never touch the gateway directly.
type Broadcaster interface {
	Broadcast(sessionID string, msg Message)
}

// NopBroadcaster discards every message. Used where no gateway is wired.
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(string, Message) {}

// presencePayload announces a member joining or leaving a room.
type presencePayload struct {
	UserID  string `json:"userId"`
	IsGuest bool   `json:"isGuest"`
	Action  string `json:"action"`
}

// PresenceJoined builds the session_updated event sent to the other members
// of a room when a connection joins it.
func PresenceJoined(userID string, isGuest bool) Message {
	return newMessage(EventSessionUpdated, presencePayload{UserID: userID, IsGuest: isGuest, Action: "joined"})
}

// PresenceLeft builds the session_updated event sent when a member leaves.
func PresenceLeft(userID string, isGuest bool) Message {
	return newMessage(EventSessionUpdated, presencePayload{UserID: userID, IsGuest: isGuest, Action: "left"})
}

// SessionUpdated builds a session_updated event carrying a session snapshot.
func SessionUpdated(session any) Message {
	return newMessage(EventSessionUpdated, session)
}

// AnalysisUpdate builds an analysis_update event carrying one metric.
func AnalysisUpdate(metric any) Message {
	return newMessage(EventAnalysisUpdate, metric)
}

// transcriptPayload wraps transcript data with the kind of change.
type transcriptPayload struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// TranscriptNew builds a transcript_update event for a single new segment.
func TranscriptNew(segment any) Message {
	return newMessage(EventTranscriptUpdate, transcriptPayload{Type: "new", Data: segment})
}

// TranscriptBatch builds a transcript_update event for a batch of segments.
func TranscriptBatch(segments any) Message {
	return newMessage(EventTranscriptUpdate, transcriptPayload{Type: "batch", Data: segments})
}

// FeedbackSuggestion builds a feedback_suggestion event carrying one suggestion.
func FeedbackSuggestion(suggestion any) Message {
	return newMessage(EventFeedbackSuggestion, suggestion)
}

// deletionPayload marks an entity removed from a session.
type deletionPayload struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// FeedbackSuggestionDeleted builds the deletion marker broadcast after a
// suggestion is removed.
func FeedbackSuggestionDeleted(id string) Message {
	return newMessage(EventFeedbackSuggestion, deletionPayload{ID: id, Deleted: true})
}

// FeedbackUpdate builds a feedback_update event.
func FeedbackUpdate(data any) Message {
	return newMessage(EventFeedbackUpdate, data)
}

// AudioChunk builds an audio_chunk event relayed between room members.
func AudioChunk(data any) Message {
	return newMessage(EventAudioChunk, data)
}

// errorPayload is the body of error events.
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEvent builds an error event with a stable code and a human message.
func ErrorEvent(code, message string) Message {
	return newMessage(EventError, errorPayload{Code: code, Message: message})
}
