package transcriber

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Danondso/audiotext/internal/config"
)

func TestCommandTranscribe(t *testing.T) {
	transcriber := NewCommand("echo hello from audiotext", 30, nil)
	result, err := transcriber.Transcribe(context.Background(), []byte("fake-wav"), "en-US")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "hello from audiotext" {
		t.Errorf("expected 'hello from audiotext', got %q", result.Text)
	}
}

func TestCommandTranscribeWithInputSubstitution(t *testing.T) {
	// cat reads the temp file back, which proves {input} was substituted
	transcriber := NewCommand("cat {input}", 30, nil)
	result, err := transcriber.Transcribe(context.Background(), []byte("test-wav-content"), "en-US")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "test-wav-content" {
		t.Errorf("expected 'test-wav-content', got %q", result.Text)
	}
}

func TestCommandTranscribeLanguageSubstitution(t *testing.T) {
	result, err := NewCommand("echo lang={language}", 0, nil).Transcribe(context.Background(), []byte("x"), "fr-FR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "lang=fr-FR" {
		t.Errorf("expected 'lang=fr-FR', got %q", result.Text)
	}
}

func TestCommandTranscribeMissingBinary(t *testing.T) {
	transcriber := NewCommand("nonexistent-binary-xyz {input}", 30, nil)
	_, err := transcriber.Transcribe(context.Background(), []byte("data"), "en-US")
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable for nonexistent binary, got %v", err)
	}
}

func TestCommandTranscribeFailingCommand(t *testing.T) {
	_, err := NewCommand("exit 3", 30, nil).Transcribe(context.Background(), []byte("data"), "en-US")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrNoSpeech) {
		t.Errorf("expected unclassified failure, got %v", err)
	}
}

func TestCommandTranscribeEmptyOutput(t *testing.T) {
	_, err := NewCommand("true", 30, nil).Transcribe(context.Background(), []byte("data"), "en-US")
	if !errors.Is(err, ErrNoSpeech) {
		t.Errorf("expected ErrNoSpeech, got %v", err)
	}
}

func TestReadWaveform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(path, []byte("RIFFdata"), 0o600); err != nil {
		t.Fatal(err)
	}
	data, err := ReadWaveform(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "RIFFdata" {
		t.Errorf("unexpected data %q", data)
	}
	if _, err := ReadWaveform(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewTranscriberFactory(t *testing.T) {
	t.Run("google", func(t *testing.T) {
		tr, err := New(&config.TranscriptionConfig{Provider: "google"}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if g, ok := tr.(*Google); !ok || g.baseURL != DefaultGoogleURL {
			t.Errorf("expected Google with default URL, got %#v", tr)
		}
	})

	t.Run("openai", func(t *testing.T) {
		_, err := New(&config.TranscriptionConfig{Provider: "openai", BaseURL: "http://localhost:5092", Model: "default", TimeoutSec: 30}, nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("openai without url", func(t *testing.T) {
		if _, err := New(&config.TranscriptionConfig{Provider: "openai"}, nil); err == nil {
			t.Error("expected error for missing base_url")
		}
	})

	t.Run("command", func(t *testing.T) {
		_, err := New(&config.TranscriptionConfig{Provider: "command", Command: "echo {input}", TimeoutSec: 30}, nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("command empty", func(t *testing.T) {
		if _, err := New(&config.TranscriptionConfig{Provider: "command"}, nil); err == nil {
			t.Error("expected error for empty command")
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := New(&config.TranscriptionConfig{Provider: "unknown"}, nil); err == nil {
			t.Error("expected error for unknown provider")
		}
	})
}
