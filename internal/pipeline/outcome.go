package pipeline

import (
	"sort"
	"strings"
	"time"
)

// UnknownLanguage labels a transcript whose language could not be detected.
const UnknownLanguage = "unknown"

// Outcome is the result of one completed conversion.
type Outcome struct {
	Text              string
	Duration          time.Duration // 0 when the length could not be probed
	DetectedLanguages []string
	Language          string // code of the pass that produced Text
	Confidence        float64
	ProcessingTime    time.Duration
	WordCount         int
	NoSpeech          bool
}

// LanguageLabel renders the detected languages for display.
func (o Outcome) LanguageLabel() string {
	if len(o.DetectedLanguages) == 0 {
		return UnknownLanguage
	}
	return strings.Join(o.DetectedLanguages, ", ")
}

// Assemble builds an Outcome from the final transcript. Processing time is
// measured from start.
func Assemble(text string, duration time.Duration, detected []string, confidence float64, start time.Time) Outcome {
	langs := make([]string, 0, len(detected))
	for _, d := range detected {
		if d != "" {
			langs = append(langs, d)
		}
	}
	sort.Strings(langs)

	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return Outcome{
		Text:              text,
		Duration:          duration,
		DetectedLanguages: langs,
		Confidence:        confidence,
		ProcessingTime:    time.Since(start),
		WordCount:         len(strings.Fields(text)),
	}
}
