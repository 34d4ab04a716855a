package transcriber

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"
)

// exitCommandNotFound is the status sh reports when the program is missing.
const exitCommandNotFound = 127

// Command implements Transcriber by shelling out to an external command.
type Command struct {
	command    string
	timeoutSec int
	logger     *log.Logger
}

// NewCommand creates a command-based transcriber.
// The command string should contain {input} which will be replaced with
// the path to a temporary WAV file. {language} is replaced with the
// requested language code.
func NewCommand(command string, timeoutSec int, logger *log.Logger) *Command {
	return &Command{
		command:    command,
		timeoutSec: timeoutSec,
		logger:     logger,
	}
}

// Transcribe writes WAV data to a temp file, runs the configured command,
// and returns stdout as the transcript.
func (c *Command) Transcribe(ctx context.Context, wavData []byte, languageCode string) (Result, error) {
	ctx, cancel := withTimeout(ctx, c.timeoutSec)
	defer cancel()

	tmpFile, err := os.CreateTemp("", "audiotext-*.wav")
	if err != nil {
		return Result{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(wavData); err != nil {
		_ = tmpFile.Close()
		return Result{}, fmt.Errorf("write temp file: %w", err)
	}
	_ = tmpFile.Close()

	cmdStr := strings.NewReplacer("{input}", tmpPath, "{language}", languageCode).Replace(c.command)
	if strings.TrimSpace(cmdStr) == "" {
		return Result{}, fmt.Errorf("empty command after substitution")
	}

	if c.logger != nil {
		c.logger.Printf("transcribe command: %s wav_size=%d", cmdStr, len(wavData))
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, "sh", "-c", cmdStr)
	output, err := cmd.Output()
	latency := time.Since(start)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.Is(err, exec.ErrNotFound) || (errors.As(err, &exitErr) && exitErr.ExitCode() == exitCommandNotFound) {
			return Result{}, fmt.Errorf("run command: %v: %w", err, ErrServiceUnavailable)
		}
		return Result{}, fmt.Errorf("run command: %w", err)
	}

	text := strings.TrimSpace(string(output))
	if c.logger != nil {
		c.logger.Printf("transcribe response: output_size=%d latency=%s", len(output), latency.Round(time.Millisecond))
		c.logger.Printf("transcribe result: %q", text)
	}
	if text == "" {
		return Result{}, ErrNoSpeech
	}
	return Result{Text: text}, nil
}
