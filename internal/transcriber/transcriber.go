package transcriber

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Danondso/audiotext/internal/config"
)

var (
	// ErrNoSpeech means the engine processed the audio but found no
	// intelligible speech in it.
	ErrNoSpeech = errors.New("no speech detected")

	// ErrServiceUnavailable means the recognition service could not be
	// reached or refused the request.
	ErrServiceUnavailable = errors.New("transcription service unavailable")
)

// Result is the text recognised for one waveform. Confidence is 0 when the
// backend does not report one.
type Result struct {
	Text       string
	Confidence float64
}

// Transcriber transcribes WAV audio data to text in the given language.
// languageCode is a BCP-47 code such as "es-ES".
type Transcriber interface {
	Transcribe(ctx context.Context, wavData []byte, languageCode string) (Result, error)
}

// HealthChecker is optionally implemented by transcribers that can report
// backend availability.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ModelLister is optionally implemented by transcribers that can report
// which models are available on the backend.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// ReadWaveform loads a whole WAV file into memory.
func ReadWaveform(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read waveform %s: %w", path, err)
	}
	return data, nil
}

// New creates a Transcriber based on the provider config.
func New(cfg *config.TranscriptionConfig, logger *log.Logger) (Transcriber, error) {
	switch cfg.Provider {
	case "", "google":
		return NewGoogle(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.TimeoutSec, cfg.TLSSkipVerify, logger), nil
	case "openai":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai provider requires a base_url")
		}
		return NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.TimeoutSec, cfg.TLSSkipVerify, logger), nil
	case "command":
		if cfg.Command == "" {
			return nil, fmt.Errorf("command provider requires a non-empty command")
		}
		return NewCommand(cfg.Command, cfg.TimeoutSec, logger), nil
	default:
		return nil, fmt.Errorf("unknown transcription provider: %s", cfg.Provider)
	}
}

// withTimeout bounds ctx by timeoutSec seconds; zero or less leaves it unbounded.
func withTimeout(ctx context.Context, timeoutSec int) (context.Context, context.CancelFunc) {
	if timeoutSec <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
}
