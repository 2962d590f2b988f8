// Package domain holds the session entity, its enums, and status transitions.
package domain

import (
	"errors"
	"time"
)

// SessionType says how the recording was produced.
type SessionType string

const (
	TypeLive   SessionType = "live"
	TypeUpload SessionType = "upload"
)

// SourceType says where the audio came from.
type SourceType string

const (
	SourceMicrophone SourceType = "microphone"
	SourceFile       SourceType = "file"
)

// Status is the processing state of a session.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Session is a recorded or live presentation owned by one user.
type Session struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Title       string      `json:"title"`
	SessionType SessionType `json:"sessionType"`
	SourceType  SourceType  `json:"sourceType"`
	SourceURL   string      `json:"sourceUrl,omitempty"`
	Language    string      `json:"language"`
	Status      Status      `json:"status"`
	DurationSec int         `json:"durationSec"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	Summary     string      `json:"summary,omitempty"`
	Sentiment   *float64    `json:"sentiment,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	DeletedAt   *time.Time  `json:"-"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Validate validates the session for persistence, defaulting language and status.
func (s *Session) Validate() error {
	if s.UserID == "" {
		return errors.New("user id is required")
	}
	if s.Title == "" {
		return errors.New("title is required")
	}
	switch s.SessionType {
	case TypeLive, TypeUpload:
	default:
		return errors.New("unknown session type " + string(s.SessionType))
	}
	switch s.SourceType {
	case SourceMicrophone, SourceFile:
	default:
		return errors.New("unknown source type " + string(s.SourceType))
	}
	if s.Language == "" {
		s.Language = "en"
	}
	if s.Status == "" {
		s.Status = StatusProcessing
	}
	if !ValidStatus(s.Status) {
		return errors.New("unknown status " + string(s.Status))
	}
	if s.DurationSec < 0 {
		return errors.New("duration must not be negative")
	}
	return nil
}

// ApplyStatus transitions the session to next. Moving to completed stamps
// CompletedAt; moving to failed clears it. Transitioning back to processing
// is not allowed.
func (s *Session) ApplyStatus(next Status, now time.Time) error {
	if !ValidStatus(next) {
		return errors.New("unknown status " + string(next))
	}
	if next == StatusProcessing {
		return errors.New("cannot transition back to processing")
	}
	s.Status = next
	switch next {
	case StatusCompleted:
		t := now.UTC()
		s.CompletedAt = &t
	case StatusFailed:
		s.CompletedAt = nil
	}
	return nil
}

// Participant is a named speaker within a session.
type Participant struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
