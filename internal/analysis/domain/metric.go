// Package domain holds the analysis metric entity and its aggregates.
package domain

import (
	"errors"
	"time"
)

// MetricType classifies an analysis metric.
type MetricType string

const (
	MetricTone      MetricType = "tone"
	MetricClarity   MetricType = "clarity"
	MetricEnergy    MetricType = "energy"
	MetricSentiment MetricType = "sentiment"
	MetricPause     MetricType = "pause"
	MetricSpeed     MetricType = "speed"
)

// ValidMetricType reports whether t is a known metric type.
func ValidMetricType(t MetricType) bool {
	switch t {
	case MetricTone, MetricClarity, MetricEnergy, MetricSentiment, MetricPause, MetricSpeed:
		return true
	}
	return false
}

// Metric is one analysis data point for a session. Timestamp is seconds from
// the start of the recording, not wall-clock time.
type Metric struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	Type      MetricType `json:"metricType"`
	Value     float64    `json:"value"`
	Timestamp float64    `json:"timestamp"`
	Label     string     `json:"label,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Validate validates the metric for persistence.
func (m *Metric) Validate() error {
	if m.SessionID == "" {
		return errors.New("session id is required")
	}
	if !ValidMetricType(m.Type) {
		return errors.New("unknown metric type " + string(m.Type))
	}
	if m.Timestamp < 0 {
		return errors.New("timestamp must not be negative")
	}
	return nil
}

// TypeSummary aggregates all metrics of one type within a session.
type TypeSummary struct {
	Type    MetricType `json:"metricType"`
	Average float64    `json:"average"`
	Min     float64    `json:"min"`
	Max     float64    `json:"max"`
	Count   int        `json:"count"`
}
