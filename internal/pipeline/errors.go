package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled is returned by Run when the cancel flag was observed
	// between stages.
	ErrCancelled = errors.New("conversion cancelled")

	// ErrRunActive is returned when starting a run while another is active.
	ErrRunActive = errors.New("a conversion is already running")

	// ErrNoActiveRun is returned by Cancel when nothing is running.
	ErrNoActiveRun = errors.New("no conversion running")
)

// Kind classifies a terminal conversion failure.
type Kind int

const (
	KindUnknownTranscription Kind = iota
	KindInvalidRequest
	KindNormalization
	KindMissingAudio
	KindServiceUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid-request"
	case KindNormalization:
		return "normalization"
	case KindMissingAudio:
		return "missing-audio"
	case KindServiceUnavailable:
		return "service-unavailable"
	default:
		return "unknown-transcription"
	}
}

// ConversionError is the single terminal failure of a run. Title and Message
// are meant for display.
type ConversionError struct {
	Kind    Kind
	Title   string
	Message string
	Err     error
}

func (e *ConversionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *ConversionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newConversionError(kind Kind, message string, err error) *ConversionError {
	return &ConversionError{Kind: kind, Title: titleFor(kind), Message: message, Err: err}
}

func titleFor(k Kind) string {
	switch k {
	case KindInvalidRequest:
		return "Invalid request"
	case KindNormalization:
		return "Conversion error"
	case KindMissingAudio:
		return "File not found"
	case KindServiceUnavailable:
		return "Service unavailable"
	default:
		return "Transcription error"
	}
}

// AsConversionError returns err as a *ConversionError, classifying anything
// else as an unknown transcription failure.
func AsConversionError(err error) *ConversionError {
	if err == nil {
		return nil
	}
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce
	}
	return newConversionError(KindUnknownTranscription, "Unexpected error during transcription", err)
}
