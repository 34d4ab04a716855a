package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// CommandRunner runs an external program and returns its captured stderr.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

// FFmpegNormalizer shells out to ffmpeg for containers beep cannot read.
type FFmpegNormalizer struct {
	Path       string
	SampleRate int
	runner     CommandRunner
	logger     *log.Logger
}

// NewFFmpegNormalizer creates a normalizer invoking the ffmpeg binary at path.
func NewFFmpegNormalizer(path string, sampleRate int, logger *log.Logger) *FFmpegNormalizer {
	if path == "" {
		path = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &FFmpegNormalizer{Path: path, SampleRate: sampleRate, runner: execRunner{}, logger: logger}
}

// WithRunner replaces the process runner, used by tests.
func (f *FFmpegNormalizer) WithRunner(r CommandRunner) *FFmpegNormalizer {
	f.runner = r
	return f
}

// Args returns the ffmpeg argument list for one conversion.
func (f *FFmpegNormalizer) Args(inputPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(f.SampleRate),
		"-c:a", "pcm_s16le",
		outputPath,
	}
}

// Normalize converts inputPath to a mono 16-bit WAV at outputPath.
func (f *FFmpegNormalizer) Normalize(ctx context.Context, inputPath, outputPath string) error {
	args := f.Args(inputPath, outputPath)
	if f.logger != nil {
		f.logger.Printf("normalize: %s %s", f.Path, strings.Join(args, " "))
	}

	stderr, err := f.runner.Run(ctx, f.Path, args...)
	if err != nil {
		os.Remove(outputPath)
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("ffmpeg not found at %q: %w", f.Path, err)
		}
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			return fmt.Errorf("ffmpeg: %w", err)
		}
		if i := strings.LastIndex(msg, "\n"); i >= 0 {
			msg = msg[i+1:]
		}
		return fmt.Errorf("ffmpeg: %s: %w", msg, err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("ffmpeg produced no output: %w", err)
	}
	return nil
}
