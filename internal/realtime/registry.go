package realtime

import (
	"log/slog"
	"sync"

	"saysense/backend/internal/telemetry"
)

// sendBufferSize is the per-connection outbound queue. A consumer that falls
// this far behind starts losing messages rather than blocking the registry.
const sendBufferSize = 256

type connection struct {
	ch      chan Message
	userID  string
	isGuest bool
}

// Registry tracks which connections are in which session room and fans
// messages out to them. All methods are safe for concurrent use and none of
// them block on slow consumers: sends are non-blocking and drop on a full
// queue. Room membership is one room per connection; joining a new room
// leaves the previous one.
type Registry struct {
	mu          sync.Mutex
	roomMembers map[string]map[string]struct{}
	connRoom    map[string]string
	conns       map[string]*connection

	emitter telemetry.Emitter
}

// NewRegistry returns an empty registry. emitter may be nil.
func NewRegistry(emitter telemetry.Emitter) *Registry {
	return &Registry{
		roomMembers: make(map[string]map[string]struct{}),
		connRoom:    make(map[string]string),
		conns:       make(map[string]*connection),
		emitter:     emitter,
	}
}

// Register adds a connection and returns its outbound message channel. The
// caller owns draining the channel; Disconnect closes it.
func (r *Registry) Register(connID, userID string, isGuest bool) <-chan Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &connection{
		ch:      make(chan Message, sendBufferSize),
		userID:  userID,
		isGuest: isGuest,
	}
	r.conns[connID] = c
	return c.ch
}

// Join adds the connection to sessionID's room. Joining the room it is
// already in is a no-op. Joining a different room leaves the previous one
// first. The other members are told about the arrival.
func (r *Registry) Join(connID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[connID]
	if !ok {
		return
	}
	if current, in := r.connRoom[connID]; in {
		if current == sessionID {
			return
		}
		r.leaveLocked(connID, current)
	}
	members, ok := r.roomMembers[sessionID]
	if !ok {
		members = make(map[string]struct{})
		r.roomMembers[sessionID] = members
	}
	members[connID] = struct{}{}
	r.connRoom[connID] = sessionID
	r.broadcastLocked(sessionID, connID, PresenceJoined(c.userID, c.isGuest))
	telemetry.EmitAsync(r.emitter, telemetry.NewEvent(telemetry.EventRoomJoined, c.userID, sessionID))
}

// Leave removes the connection from its room, if any. Unknown connections and
// connections in no room are a no-op.
func (r *Registry) Leave(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessionID, ok := r.connRoom[connID]
	if !ok {
		return
	}
	r.leaveLocked(connID, sessionID)
}

// leaveLocked removes connID from sessionID's room, garbage-collects the room
// when it empties, and tells the remaining members. Caller holds mu.
func (r *Registry) leaveLocked(connID, sessionID string) {
	members, ok := r.roomMembers[sessionID]
	if !ok {
		delete(r.connRoom, connID)
		return
	}
	delete(members, connID)
	delete(r.connRoom, connID)
	if len(members) == 0 {
		delete(r.roomMembers, sessionID)
	}
	if c, ok := r.conns[connID]; ok {
		r.broadcastLocked(sessionID, connID, PresenceLeft(c.userID, c.isGuest))
		telemetry.EmitAsync(r.emitter, telemetry.NewEvent(telemetry.EventRoomLeft, c.userID, sessionID))
	}
}

// Disconnect removes the connection entirely: it leaves its room and its
// outbound channel is closed. Safe to call more than once.
func (r *Registry) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sessionID, ok := r.connRoom[connID]; ok {
		r.leaveLocked(connID, sessionID)
	}
	if c, ok := r.conns[connID]; ok {
		delete(r.conns, connID)
		close(c.ch)
	}
}

// Broadcast delivers msg to every member of sessionID's room. An unknown or
// empty room is a silent no-op.
func (r *Registry) Broadcast(sessionID string, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(sessionID, "", msg)
}

// Relay delivers msg to every member of origin's room except origin itself.
// Reports whether origin was in sessionID's room; the message is not
// delivered otherwise.
func (r *Registry) Relay(connID, sessionID string, msg Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.connRoom[connID] != sessionID {
		return false
	}
	r.broadcastLocked(sessionID, connID, msg)
	return true
}

// Send queues msg for a single connection.
func (r *Registry) Send(connID string, msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[connID]; ok {
		r.sendLocked(connID, c, msg)
	}
}

// MemberCount returns the number of connections in sessionID's room.
func (r *Registry) MemberCount(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.roomMembers[sessionID])
}

// broadcastLocked fans msg out to the room, skipping exclude when non-empty.
// Caller holds mu.
func (r *Registry) broadcastLocked(sessionID, exclude string, msg Message) {
	for connID := range r.roomMembers[sessionID] {
		if connID == exclude {
			continue
		}
		if c, ok := r.conns[connID]; ok {
			r.sendLocked(connID, c, msg)
		}
	}
}

// sendLocked queues msg without blocking; a full queue drops the message.
func (r *Registry) sendLocked(connID string, c *connection, msg Message) {
	select {
	case c.ch <- msg:
	default:
		slog.Warn("dropping message for slow consumer", "conn", connID, "type", msg.Type)
	}
}
