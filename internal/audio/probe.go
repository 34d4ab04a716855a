package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

// ProbeDuration returns the playing time of the audio file at path.
func ProbeDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if strings.ToLower(filepath.Ext(path)) == ".wav" {
		dec := wav.NewDecoder(f)
		if !dec.IsValidFile() {
			return 0, fmt.Errorf("probe %s: invalid WAV file", filepath.Base(path))
		}
		d, err := dec.Duration()
		if err != nil {
			return 0, fmt.Errorf("probe %s: %w", filepath.Base(path), err)
		}
		return d, nil
	}

	streamer, format, err := decode(f)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", filepath.Base(path), err)
	}
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}
