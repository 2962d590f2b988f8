package ai

import "context"

// Speaking-rate and quality thresholds for generated feedback.
const (
	fastSpeechWPM   = 180
	slowSpeechWPM   = 100
	lowClarityScore = 0.7
	flatToneScore   = 0.4
)

// Mock implements Service with fixed transcription and sentiment values and
// rule-based feedback. It keeps the pipeline testable without a model backend.
type Mock struct{}

// NewMock returns the mock analysis service.
func NewMock() *Mock {
	return &Mock{}
}

func (Mock) TranscribeAudio(ctx context.Context, audio []byte, language string) (*Transcription, error) {
	return &Transcription{
		Text:           "This is a sample transcription of your presentation.",
		Confidence:     0.92,
		WordsPerMinute: 145,
		DurationSec:    60,
	}, nil
}

func (Mock) AnalyzeSentiment(ctx context.Context, text, language string) (*Sentiment, error) {
	return &Sentiment{Score: 0.65, Label: "positive"}, nil
}

// GenerateFeedback applies fixed rules to the metric values: speaking rate
// outside [100, 180] wpm, clarity below 0.7, and tone below 0.4 each produce
// a suggestion. With nothing to flag it returns a single encouragement.
func (Mock) GenerateFeedback(ctx context.Context, transcript string, metrics []MetricPoint) ([]Suggestion, error) {
	var out []Suggestion
	for _, m := range metrics {
		switch m.Type {
		case "speed":
			if m.Value > fastSpeechWPM {
				out = append(out, Suggestion{
					Type:     "pacing",
					Severity: "high",
					Message:  "You are speaking very quickly. Slow down so listeners can follow your key points.",
				})
			} else if m.Value < slowSpeechWPM {
				out = append(out, Suggestion{
					Type:     "pacing",
					Severity: "medium",
					Message:  "Your pace is on the slow side. Picking it up a little will keep the audience engaged.",
				})
			}
		case "clarity":
			if m.Value < lowClarityScore {
				out = append(out, Suggestion{
					Type:     "clarity",
					Severity: "medium",
					Message:  "Some words were hard to make out. Articulate word endings and pause between ideas.",
				})
			}
		case "tone":
			if m.Value < flatToneScore {
				out = append(out, Suggestion{
					Type:     "tone",
					Severity: "medium",
					Message:  "Your delivery sounds flat. Vary your pitch to emphasize the points that matter.",
				})
			}
		}
	}
	if len(out) == 0 {
		out = append(out, Suggestion{
			Type:     "emphasis",
			Severity: "low",
			Message:  "Strong delivery. Keep emphasizing your key points the way you are.",
		})
	}
	return out, nil
}
