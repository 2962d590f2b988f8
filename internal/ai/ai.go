// Package ai defines the speech-analysis interface and a deterministic mock
// used until a real model backend is wired in.
package ai

import "context"

// Transcription is the speech-to-text result for one audio payload.
type Transcription struct {
	Text           string  `json:"text"`
	Confidence     float64 `json:"confidence"`
	WordsPerMinute float64 `json:"wordsPerMinute"`
	DurationSec    float64 `json:"durationSec"`
}

// Sentiment scores a text from -1 (negative) to 1 (positive).
type Sentiment struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// MetricPoint is one scored dimension handed to feedback generation.
type MetricPoint struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// Suggestion is one generated piece of coaching feedback.
type Suggestion struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Service scores recorded speech: transcription, sentiment, and coaching
// feedback derived from metric values.
type Service interface {
	TranscribeAudio(ctx context.Context, audio []byte, language string) (*Transcription, error)
	AnalyzeSentiment(ctx context.Context, text, language string) (*Sentiment, error)
	GenerateFeedback(ctx context.Context, transcript string, metrics []MetricPoint) ([]Suggestion, error)
}
