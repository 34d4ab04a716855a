package main

import (
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Danondso/audiotext/internal/audio"
	"github.com/Danondso/audiotext/internal/config"
	"github.com/Danondso/audiotext/internal/history"
	"github.com/Danondso/audiotext/internal/langdetect"
	"github.com/Danondso/audiotext/internal/pipeline"
	"github.com/Danondso/audiotext/internal/transcriber"
	"github.com/Danondso/audiotext/internal/tui"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "audiotext [file]",
	Short: "Convert speech in audio files to text",
	Long: `audiotext converts an audio file (wav, mp3, flac, ogg, m4a) into text using
a remote speech recognition service, detects the language of the result and
re-transcribes once when it differs from the selected language.

Without a subcommand it opens the interactive terminal UI.

Examples:
  audiotext                         # open the UI
  audiotext ~/notes/memo.m4a        # open the UI with a file selected
  audiotext convert memo.mp3 --json # convert without the UI`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runTUI,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/audiotext/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// newLogger returns the debug logger. Without --debug everything is discarded.
func newLogger() *log.Logger {
	if debug {
		return log.New(os.Stderr, "[DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
	return log.New(io.Discard, "", 0)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

func loadConfig(dbg *log.Logger) (*config.Config, error) {
	path := configPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	dbg.Printf("config: loaded %s (language=%s provider=%s)", path, cfg.Language, cfg.Transcription.Provider)
	return cfg, nil
}

func loadHistory(dbg *log.Logger) (*history.Store, error) {
	path := config.DefaultHistoryPath()
	if path == "" {
		return nil, fmt.Errorf("cannot determine history location")
	}
	return history.Load(path, dbg)
}

// newRunner wires the conversion pipeline from the configuration.
func newRunner(cfg *config.Config, dbg *log.Logger) (*pipeline.Runner, transcriber.Transcriber, error) {
	trans, err := transcriber.New(&cfg.Transcription, dbg)
	if err != nil {
		return nil, nil, fmt.Errorf("create transcriber: %w", err)
	}
	warnPlaintext(cfg.Transcription.BaseURL)

	norm := audio.Chain{
		audio.NewBeepNormalizer(cfg.Audio.TargetSampleRate, dbg),
		audio.NewFFmpegNormalizer(cfg.Audio.FFmpegPath, cfg.Audio.TargetSampleRate, dbg),
	}

	p := pipeline.New(pipeline.Options{
		Normalizer:      norm,
		Transcriber:     trans,
		Detector:        langdetect.NewMappableWhatlang(),
		Prober:          audio.ProbeDuration,
		Logger:          dbg,
		Confidence:      cfg.Transcription.Confidence,
		DefaultLanguage: config.DefaultLanguage,
		SampleRate:      cfg.Audio.TargetSampleRate,
	})
	return pipeline.NewRunner(p, dbg), trans, nil
}

// warnPlaintext warns when audio would be sent unencrypted to a remote host.
func warnPlaintext(baseURL string) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme != "http" {
		return
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return
	}
	log.Printf("WARNING: transcription base_url uses plaintext HTTP to non-local host %q, audio data will be sent unencrypted", u.Hostname())
}

func runTUI(cmd *cobra.Command, args []string) error {
	dbg := newLogger()

	cfg, err := loadConfig(dbg)
	if err != nil {
		return err
	}
	store, err := loadHistory(dbg)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	runner, trans, err := newRunner(cfg, dbg)
	if err != nil {
		return err
	}

	initial := ""
	if len(args) == 1 {
		initial = args[0]
	}

	bridge := tui.NewBridge()
	model := tui.NewModel(cfg, configPath(), store, runner, bridge, trans, initial, dbg, debug)
	p := tea.NewProgram(model, tea.WithAltScreen())
	bridge.Attach(p)

	// When debug is enabled, redirect logger output into the TUI debug panel
	if debug {
		dbg.SetOutput(tui.NewLogWriter(p))
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	// A run still in flight is cancelled on quit. Its worker only stops at the
	// next stage boundary, so the wait for its cleanup is bounded.
	if runner.Running() {
		_ = runner.Cancel()
	}
	waitRunner(runner, shutdownGrace, dbg)
	return nil
}

const shutdownGrace = 5 * time.Second

func waitRunner(runner *pipeline.Runner, grace time.Duration, dbg *log.Logger) {
	done := make(chan struct{})
	go func() {
		runner.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		dbg.Printf("pipeline: worker still busy after %s, exiting without cleanup", grace)
	}
}
