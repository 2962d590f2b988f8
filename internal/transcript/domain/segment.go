// Package domain holds the transcript segment entity.
package domain

import (
	"errors"
	"time"
)

// Segment is one time-aligned slice of a session transcript.
type Segment struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"sessionId"`
	StartTime    float64   `json:"startTime"`
	EndTime      float64   `json:"endTime"`
	SpeakerLabel string    `json:"speakerLabel"`
	Transcript   string    `json:"transcript"`
	Confidence   *float64  `json:"confidence,omitempty"`
	Highlights   []string  `json:"highlights,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate validates the segment for persistence.
func (s *Segment) Validate() error {
	if s.SessionID == "" {
		return errors.New("session id is required")
	}
	if s.StartTime < 0 {
		return errors.New("start time must not be negative")
	}
	if s.EndTime < s.StartTime {
		return errors.New("end time must not precede start time")
	}
	if s.Transcript == "" {
		return errors.New("transcript text is required")
	}
	if s.SpeakerLabel == "" {
		s.SpeakerLabel = "Speaker"
	}
	return nil
}
