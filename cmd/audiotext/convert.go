package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Danondso/audiotext/internal/config"
	"github.com/Danondso/audiotext/internal/pipeline"
)

var (
	convertLanguage string
	convertJSON     bool
	convertNoSave   bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert an audio file without the UI",
	Long: `Converts one audio file and prints the transcript to stdout. Progress and
status lines go to stderr.

The first Ctrl+C cancels the conversion and waits for temporary files to be
removed; a second Ctrl+C exits immediately.

Examples:
  audiotext convert memo.m4a
  audiotext convert talk.mp3 --language en-US --json`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertLanguage, "language", "l", "", "recognition language (default: configured language)")
	convertCmd.Flags().BoolVar(&convertJSON, "json", false, "print the outcome as JSON")
	convertCmd.Flags().BoolVar(&convertNoSave, "no-history", false, "do not record the result in history")
}

// outcomeJSON is the --json representation of a finished conversion.
type outcomeJSON struct {
	Source            string   `json:"source"`
	Text              string   `json:"text"`
	DurationSec       float64  `json:"duration_sec"`
	Language          string   `json:"language"`
	DetectedLanguages []string `json:"detected_languages"`
	Confidence        float64  `json:"confidence"`
	ProcessingSec     float64  `json:"processing_sec"`
	WordCount         int      `json:"word_count"`
	NoSpeech          bool     `json:"no_speech"`
}

func runConvert(cmd *cobra.Command, args []string) error {
	dbg := newLogger()

	cfg, err := loadConfig(dbg)
	if err != nil {
		return err
	}
	lang := cfg.Language
	if convertLanguage != "" {
		if !config.IsSupported(convertLanguage) {
			return fmt.Errorf("unsupported language %q (see 'audiotext languages')", convertLanguage)
		}
		lang = convertLanguage
	}

	runner, _, err := newRunner(cfg, dbg)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	var (
		outcome pipeline.Outcome
		failure *pipeline.ConversionError
	)
	obs := pipeline.ObserverFuncs{
		OnProgress: func(_ string, percent int) {
			fmt.Fprintf(stderr, "[%3d%%]\n", percent)
		},
		OnStatus: func(_ string, message string) {
			fmt.Fprintf(stderr, "  %s\n", message)
		},
		OnCompleted: func(_ string, o pipeline.Outcome) {
			outcome = o
		},
		OnFailed: func(_ string, err *pipeline.ConversionError) {
			failure = err
		},
	}

	req := pipeline.Request{SourcePath: args[0], Language: lang, WorkDir: cfg.TempRoot()}
	h, err := runner.Start(req, obs)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	cancelled := false
	for waiting := true; waiting; {
		select {
		case <-h.Done():
			waiting = false
		case <-sigCh:
			if cancelled {
				fmt.Fprintln(stderr, "interrupted")
				os.Exit(130)
			}
			cancelled = true
			if err := runner.Cancel(); err != nil && !errors.Is(err, pipeline.ErrNoActiveRun) {
				dbg.Printf("pipeline: cancel: %v", err)
			}
			fmt.Fprintln(stderr, "cancelling, waiting for the current stage to finish (Ctrl+C again to exit)")
		}
	}

	if cancelled {
		return pipeline.ErrCancelled
	}
	if failure != nil {
		return failure
	}

	if !convertNoSave && cfg.AutoSave && !outcome.NoSpeech {
		recordHistory(dbg, req.SourcePath, outcome)
	}

	out := cmd.OutOrStdout()
	if !convertJSON {
		fmt.Fprintln(out, outcome.Text)
		return nil
	}
	detected := outcome.DetectedLanguages
	if detected == nil {
		detected = []string{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(outcomeJSON{
		Source:            req.SourcePath,
		Text:              outcome.Text,
		DurationSec:       outcome.Duration.Seconds(),
		Language:          outcome.Language,
		DetectedLanguages: detected,
		Confidence:        outcome.Confidence,
		ProcessingSec:     outcome.ProcessingTime.Seconds(),
		WordCount:         outcome.WordCount,
		NoSpeech:          outcome.NoSpeech,
	})
}
