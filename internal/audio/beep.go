package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	beepwav "github.com/gopxl/beep/wav"
)

// BeepNormalizer decodes mp3, flac, ogg vorbis and wav in process.
type BeepNormalizer struct {
	SampleRate int
	logger     *log.Logger
}

// NewBeepNormalizer returns a BeepNormalizer producing waveforms at sampleRate.
func NewBeepNormalizer(sampleRate int, logger *log.Logger) *BeepNormalizer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &BeepNormalizer{SampleRate: sampleRate, logger: logger}
}

// decode opens path with the beep decoder matching its extension.
func decode(f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(f.Name())) {
	case ".mp3":
		return mp3.Decode(f)
	case ".flac":
		return flac.Decode(f)
	case ".ogg", ".oga":
		return vorbis.Decode(f)
	case ".wav":
		return beepwav.Decode(f)
	default:
		return nil, beep.Format{}, ErrUnsupportedFormat
	}
}

// Normalize decodes inputPath, downmixes to mono, resamples and writes a
// 16-bit WAV at outputPath. The output file is removed on failure.
func (b *BeepNormalizer) Normalize(ctx context.Context, inputPath, outputPath string) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", inputPath, err)
	}
	defer f.Close()

	streamer, format, err := decode(f)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			return fmt.Errorf("%s: %w", filepath.Ext(inputPath), ErrUnsupportedFormat)
		}
		// A matching extension can still hold a codec beep lacks, such as
		// Opus in an Ogg container, so let the next normalizer try.
		return fmt.Errorf("decode %s: %v: %w", filepath.Base(inputPath), err, ErrUnsupportedFormat)
	}
	defer streamer.Close()

	samples, err := readMono(ctx, streamer)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("decode %s: %v: %w", filepath.Base(inputPath), err, ErrUnsupportedFormat)
	}
	if len(samples) == 0 {
		return fmt.Errorf("decode %s: no audio frames: %w", filepath.Base(inputPath), ErrUnsupportedFormat)
	}

	if b.logger != nil {
		b.logger.Printf("normalize: decoded %d frames at %d Hz (%d ch) from %s",
			len(samples), int(format.SampleRate), format.NumChannels, filepath.Base(inputPath))
	}

	samples, err = Resample(samples, float64(format.SampleRate), float64(b.SampleRate))
	if err != nil {
		return fmt.Errorf("resample: %w", err)
	}

	if err := WriteWAVFile(outputPath, samples, b.SampleRate); err != nil {
		os.Remove(outputPath)
		return err
	}
	return nil
}

// readMono drains a beep streamer, averaging both channels into int16 mono.
func readMono(ctx context.Context, s beep.Streamer) ([]int16, error) {
	buf := make([][2]float64, 4096)
	var out []int16
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, ok := s.Stream(buf)
		for _, frame := range buf[:n] {
			out = append(out, floatToPCM16((frame[0]+frame[1])/2))
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return out, nil
}
