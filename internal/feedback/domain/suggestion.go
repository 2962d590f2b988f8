// Package domain holds the feedback suggestion entity.
package domain

import (
	"errors"
	"time"
)

// SuggestionType classifies a feedback suggestion.
type SuggestionType string

const (
	SuggestionTone       SuggestionType = "tone"
	SuggestionPacing     SuggestionType = "pacing"
	SuggestionClarity    SuggestionType = "clarity"
	SuggestionVocabulary SuggestionType = "vocabulary"
	SuggestionPause      SuggestionType = "pause"
	SuggestionEmphasis   SuggestionType = "emphasis"
)

// ValidSuggestionType reports whether t is a known suggestion type.
func ValidSuggestionType(t SuggestionType) bool {
	switch t {
	case SuggestionTone, SuggestionPacing, SuggestionClarity, SuggestionVocabulary, SuggestionPause, SuggestionEmphasis:
		return true
	}
	return false
}

// Severity grades how urgent a suggestion is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Suggestion is one piece of coaching feedback tied to a session, optionally
// anchored to a time range within the recording.
type Suggestion struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"sessionId"`
	Type       SuggestionType `json:"type"`
	Severity   Severity       `json:"severity"`
	Message    string         `json:"message"`
	StartTime  *float64       `json:"startTime,omitempty"`
	EndTime    *float64       `json:"endTime,omitempty"`
	IsApplied  bool           `json:"isApplied"`
	IsResolved bool           `json:"isResolved"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Validate validates the suggestion for persistence. Severity defaults to medium.
func (s *Suggestion) Validate() error {
	if s.SessionID == "" {
		return errors.New("session id is required")
	}
	if !ValidSuggestionType(s.Type) {
		return errors.New("unknown suggestion type " + string(s.Type))
	}
	if s.Severity == "" {
		s.Severity = SeverityMedium
	}
	if !ValidSeverity(s.Severity) {
		return errors.New("unknown severity " + string(s.Severity))
	}
	if s.Message == "" {
		return errors.New("message is required")
	}
	if s.StartTime != nil && s.EndTime != nil && *s.EndTime < *s.StartTime {
		return errors.New("end time must not precede start time")
	}
	return nil
}

// Summary aggregates a session's suggestions by type and severity.
type Summary struct {
	Total      int                    `json:"total"`
	ByType     map[SuggestionType]int `json:"byType"`
	BySeverity map[Severity]int       `json:"bySeverity"`
	Resolved   int                    `json:"resolved"`
	Applied    int                    `json:"applied"`
}
