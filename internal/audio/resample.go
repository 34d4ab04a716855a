package audio

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts PCM int16 samples from inputRate to outputRate using
// polyphase FIR filtering with Kaiser window (via go-audio-resampling).
// Uses QualityLow preset which provides 16-bit precision, suitable for speech.
func Resample(samples []int16, inputRate, outputRate float64) ([]int16, error) {
	if inputRate == outputRate || len(samples) == 0 {
		return samples, nil
	}

	floats := make([]float64, len(samples))
	for i, s := range samples {
		floats[i] = float64(s) / 32768.0
	}

	resampled, err := resampling.ResampleMono(floats, inputRate, outputRate, resampling.QualityLow)
	if err != nil {
		return nil, fmt.Errorf("resample mono: %w", err)
	}

	out := make([]int16, len(resampled))
	for i, f := range resampled {
		out[i] = floatToPCM16(f)
	}
	return out, nil
}

// floatToPCM16 scales a [-1, 1] sample to int16 with clipping.
func floatToPCM16(f float64) int16 {
	v := f * 32768.0
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	return int16(math.Round(v))
}
