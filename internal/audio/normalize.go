// Package audio converts input audio files into the 16 kHz mono 16-bit PCM
// WAV waveform the transcription backends consume.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// DefaultSampleRate is the sample rate of normalized waveforms.
const DefaultSampleRate = 16000

// ErrUnsupportedFormat is returned by a Normalizer that cannot read the input
// container. Chain moves on to the next normalizer only for this error.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

var compressedExt = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".mp4":  true,
	".flac": true,
	".ogg":  true,
	".oga":  true,
	".opus": true,
	".webm": true,
}

// NeedsNormalization reports whether path has to be converted before
// transcription. Compressed formats always do; a WAV file does unless it
// already holds 16-bit mono PCM at sampleRate. A file that cannot be opened
// reports false so the caller surfaces the missing file itself.
func NeedsNormalization(path string, sampleRate int) bool {
	if compressedExt[strings.ToLower(filepath.Ext(path))] {
		return true
	}
	info, err := ReadWAVFileHeader(path)
	if err != nil {
		return !errors.Is(err, fs.ErrNotExist)
	}
	return !info.IsWaveform(sampleRate)
}

// Normalizer converts the audio at inputPath into a single WAV file at outputPath.
type Normalizer interface {
	Normalize(ctx context.Context, inputPath, outputPath string) error
}

// Chain tries each normalizer in order.
type Chain []Normalizer

// Normalize runs the first normalizer able to read the input.
func (c Chain) Normalize(ctx context.Context, inputPath, outputPath string) error {
	if len(c) == 0 {
		return fmt.Errorf("no normalizer configured: %w", ErrUnsupportedFormat)
	}
	var lastErr error
	for _, n := range c {
		err := n.Normalize(ctx, inputPath, outputPath)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrUnsupportedFormat) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
