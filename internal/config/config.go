package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
)

// minMaxDurationSec is the lowest accepted value for MaxDurationSec.
const minMaxDurationSec = 60

// AudioConfig holds format normalization settings.
type AudioConfig struct {
	TargetSampleRate int    `toml:"target_sample_rate"`
	FFmpegPath       string `toml:"ffmpeg_path"`
}

// TranscriptionConfig holds transcription provider settings.
type TranscriptionConfig struct {
	Provider      string  `toml:"provider"`
	BaseURL       string  `toml:"base_url"`
	APIKey        string  `toml:"api_key"`
	Model         string  `toml:"model"`
	TimeoutSec    int     `toml:"timeout_sec"` // 0 waits on the service indefinitely
	Command       string  `toml:"command"`
	TLSSkipVerify bool    `toml:"tls_skip_verify"`
	Confidence    float64 `toml:"confidence"`
}

// Config is the top-level configuration.
type Config struct {
	Theme          string              `toml:"theme"`
	Language       string              `toml:"language"`
	LastPath       string              `toml:"last_path"`
	MaxDurationSec int                 `toml:"max_duration_sec"`
	AutoSave       bool                `toml:"auto_save"`
	WorkDir        string              `toml:"work_dir"`
	Audio          AudioConfig         `toml:"audio"`
	Transcription  TranscriptionConfig `toml:"transcription"`
}

// Default returns a Config populated with all default values.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		Theme:          "synthwave",
		Language:       DefaultLanguage,
		LastPath:       home,
		MaxDurationSec: 300,
		AutoSave:       true,
		WorkDir:        "",
		Audio: AudioConfig{
			TargetSampleRate: 16000,
			FFmpegPath:       "ffmpeg",
		},
		Transcription: TranscriptionConfig{
			Provider:   "google",
			BaseURL:    "",
			Model:      "",
			TimeoutSec: 0,
			Command:    "",
			Confidence: 1.0,
		},
	}
}

// SetLanguage changes the selected recognition language. Codes outside the
// supported enumeration are rejected.
func (c *Config) SetLanguage(code string) error {
	if !IsSupported(code) {
		return fmt.Errorf("unsupported language %q", code)
	}
	c.Language = code
	return nil
}

// SetMaxDuration sets the maximum clip duration, clamped to one minute.
func (c *Config) SetMaxDuration(sec int) {
	if sec < minMaxDurationSec {
		sec = minMaxDurationSec
	}
	c.MaxDurationSec = sec
}

// TempRoot returns the directory under which per-run temporary files live.
func (c *Config) TempRoot() string {
	if c.WorkDir != "" {
		return c.WorkDir
	}
	return os.TempDir()
}

// Validate reports configuration values the application cannot run with.
func (c *Config) Validate() error {
	if !IsSupported(c.Language) {
		return fmt.Errorf("language %q is not supported", c.Language)
	}
	if _, err := language.Parse(c.Language); err != nil {
		return fmt.Errorf("parse language %q: %w", c.Language, err)
	}
	if c.Audio.TargetSampleRate <= 0 {
		return fmt.Errorf("audio.target_sample_rate must be positive, got %d", c.Audio.TargetSampleRate)
	}
	if c.Transcription.Confidence < 0 || c.Transcription.Confidence > 1 {
		return fmt.Errorf("transcription.confidence must be within [0,1], got %v", c.Transcription.Confidence)
	}
	return nil
}

// DefaultPath returns the default config file path (~/.config/audiotext/config.toml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "audiotext", "config.toml")
}

// DefaultDataDir returns the default data directory (~/.local/share/audiotext).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "audiotext")
}

// DefaultHistoryPath returns the history file inside the data directory.
func DefaultHistoryPath() string {
	dir := DefaultDataDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "history.toml")
}

// Save writes the config as TOML to the given path, creating parent
// directories if needed. The write is atomic: data is written to a
// temporary file and renamed into place so a crash mid-write cannot
// corrupt the existing config.
func Save(path string, cfg *Config) error {
	return WriteTOMLAtomic(path, cfg)
}

// WriteTOMLAtomic encodes v as TOML into a temporary file next to path and
// renames it into place.
func WriteTOMLAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".audiotext-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// Load reads the TOML config from path. If the file does not exist,
// it returns the default config without error.
func Load(path string) (*Config, error) {
	cfg := Default()

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	_, err = toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.MaxDurationSec < minMaxDurationSec {
		cfg.MaxDurationSec = minMaxDurationSec
	}

	return cfg, nil
}
