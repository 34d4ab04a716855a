package audio

import (
	"bytes"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM audio format tag.
const wavFormatPCM = 1

// WAVInfo is the subset of a WAV header the rest of the program needs.
type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	PCM        bool // integer PCM, as opposed to float or compressed data
}

// IsWaveform reports whether the header describes 16-bit mono PCM at
// sampleRate, the layout sent to the recognition service.
func (i WAVInfo) IsWaveform(sampleRate int) bool {
	return i.PCM && i.BitDepth == 16 && i.Channels == 1 && i.SampleRate == sampleRate
}

// writeSeeker is an in-memory io.WriteSeeker for WAV encoding.
type writeSeeker struct {
	buf []byte
	pos int
}

func (ws *writeSeeker) Write(p []byte) (int, error) {
	end := ws.pos + len(p)
	if end > len(ws.buf) {
		ws.buf = append(ws.buf, make([]byte, end-len(ws.buf))...)
	}
	copy(ws.buf[ws.pos:], p)
	ws.pos = end
	return len(p), nil
}

func (ws *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int
	switch whence {
	case io.SeekStart:
		newPos = int(offset)
	case io.SeekCurrent:
		newPos = ws.pos + int(offset)
	case io.SeekEnd:
		newPos = len(ws.buf) + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if newPos < 0 || newPos > len(ws.buf) {
		return 0, fmt.Errorf("seek position %d out of bounds [0, %d]", newPos, len(ws.buf))
	}
	ws.pos = newPos
	return int64(ws.pos), nil
}

// EncodeWAV encodes mono int16 PCM samples to WAV format in memory.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	intBuf := &goaudio.IntBuffer{
		Data: make([]int, len(samples)),
		Format: &goaudio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		intBuf.Data[i] = int(s)
	}

	ws := &writeSeeker{}
	enc := wav.NewEncoder(ws, sampleRate, 16, 1, wavFormatPCM)
	if err := enc.Write(intBuf); err != nil {
		return nil, fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close wav encoder: %w", err)
	}
	return ws.buf, nil
}

// WriteWAVFile writes mono int16 PCM samples as a 16-bit WAV file at path.
func WriteWAVFile(path string, samples []int16, sampleRate int) error {
	data, err := EncodeWAV(samples, sampleRate)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadWAVHeader reads the format chunk of an in-memory WAV file.
func ReadWAVHeader(data []byte) (WAVInfo, error) {
	if len(data) < 44 {
		return WAVInfo{}, fmt.Errorf("data too short for WAV header")
	}
	return readHeader(bytes.NewReader(data))
}

// ReadWAVFileHeader reads the format chunk of the WAV file at path.
func ReadWAVFileHeader(path string) (WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readHeader(f)
}

func readHeader(r io.ReadSeeker) (WAVInfo, error) {
	dec := wav.NewDecoder(r)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return WAVInfo{}, fmt.Errorf("read wav header: %w", err)
	}
	if !dec.IsValidFile() {
		return WAVInfo{}, fmt.Errorf("not a valid WAV file")
	}
	return WAVInfo{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		PCM:        dec.WavAudioFormat == wavFormatPCM,
	}, nil
}
