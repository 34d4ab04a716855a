// Package pipeline runs one audio file through normalization, transcription
// and language reconciliation, reporting progress as it goes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Danondso/audiotext/internal/audio"
	"github.com/Danondso/audiotext/internal/config"
	"github.com/Danondso/audiotext/internal/langdetect"
	"github.com/Danondso/audiotext/internal/transcriber"
)

// DefaultPlaceholder is the transcript reported when no speech was found.
const DefaultPlaceholder = "No text could be extracted from the audio"

// Progress milestones.
const (
	pctStart       = 0
	pctNormalizing = 10
	pctWaveform    = 30
	pctLoaded      = 40
	pctPass1Sent   = 60
	pctPass1Done   = 80
	pctReconciled  = 90
	pctDone        = 100
)

const tempWaveName = "temp.wav"

// Request describes one conversion. It is not modified by the pipeline.
type Request struct {
	SourcePath string
	Language   string // recognition code, empty for the default
	WorkDir    string // parent of the run's temporary directory, empty for os.TempDir
}

// Options configures a Pipeline.
type Options struct {
	Normalizer  audio.Normalizer
	Transcriber transcriber.Transcriber
	Detector    langdetect.Detector
	Prober      func(path string) (time.Duration, error)
	Logger      *log.Logger

	// Confidence is reported when the service returns none.
	Confidence float64
	// Placeholder replaces the transcript when no speech is found.
	Placeholder string
	// DefaultLanguage is used for requests without a language.
	DefaultLanguage string
	// SampleRate is the waveform rate the transcriber expects.
	SampleRate int
}

// Pipeline converts audio files to text. A Pipeline holds no per-run state
// and may serve several runs concurrently.
type Pipeline struct {
	normalizer      audio.Normalizer
	transcriber     transcriber.Transcriber
	reconciler      *langdetect.Reconciler
	prober          func(path string) (time.Duration, error)
	logger          *log.Logger
	confidence      float64
	placeholder     string
	defaultLanguage string
	sampleRate      int

	mkdirTemp    func(dir, pattern string) (string, error)
	removeAll    func(path string) error
	stat         func(name string) (os.FileInfo, error)
	readWaveform func(path string) ([]byte, error)
}

// New constructs a Pipeline with OS dependencies.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		normalizer:      opts.Normalizer,
		transcriber:     opts.Transcriber,
		reconciler:      langdetect.NewReconciler(opts.Detector, opts.Logger),
		prober:          opts.Prober,
		logger:          opts.Logger,
		confidence:      opts.Confidence,
		placeholder:     opts.Placeholder,
		defaultLanguage: opts.DefaultLanguage,
		sampleRate:      opts.SampleRate,
		mkdirTemp:       os.MkdirTemp,
		removeAll:       os.RemoveAll,
		stat:            os.Stat,
		readWaveform:    transcriber.ReadWaveform,
	}
	if p.prober == nil {
		p.prober = audio.ProbeDuration
	}
	if p.confidence <= 0 || p.confidence > 1 {
		p.confidence = 1.0
	}
	if p.placeholder == "" {
		p.placeholder = DefaultPlaceholder
	}
	if p.defaultLanguage == "" {
		p.defaultLanguage = config.DefaultLanguage
	}
	if p.sampleRate <= 0 {
		p.sampleRate = audio.DefaultSampleRate
	}
	return p
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf("pipeline: "+format, args...)
	}
}

// runState carries what one Run accumulates between stages.
type runState struct {
	emit      func(Event)
	cancelled func() bool
	tempDir   string
}

func (s *runState) progress(pct int) {
	s.emit(Event{Kind: EventProgress, Percent: pct})
}

func (s *runState) status(msg string) {
	s.emit(Event{Kind: EventStatus, Status: msg})
}

// fail resets progress and returns the terminal error.
func (s *runState) fail(kind Kind, message string, err error) error {
	s.progress(pctStart)
	return newConversionError(kind, message, err)
}

// attempt is one transcription pass.
type attempt struct {
	code   string
	result transcriber.Result
	err    error
}

// Run executes the conversion synchronously. cancelled is consulted between
// stages; in-flight normalizer and transcriber calls are not interrupted.
// Progress and status events are passed to emit in order; the terminal
// result is the return value. Temporary files are removed before Run returns.
func (p *Pipeline) Run(ctx context.Context, req Request, cancelled func() bool, emit func(Event)) (out Outcome, err error) {
	if cancelled == nil {
		cancelled = func() bool { return false }
	}
	if emit == nil {
		emit = func(Event) {}
	}
	st := &runState{emit: emit, cancelled: cancelled}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			p.logf("recovered panic: %v", r)
			out = Outcome{}
			err = st.fail(KindUnknownTranscription, "Unexpected error during transcription", fmt.Errorf("panic: %v", r))
		}
	}()
	defer p.cleanup(st)

	st.progress(pctStart)
	st.status("Starting conversion")

	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		lang = p.defaultLanguage
	}
	if strings.TrimSpace(req.SourcePath) == "" {
		return Outcome{}, st.fail(KindMissingAudio, "No audio file selected", nil)
	}
	if !config.IsSupported(lang) {
		return Outcome{}, st.fail(KindInvalidRequest, fmt.Sprintf("Unsupported language %q", lang), nil)
	}
	p.logf("run start source=%s language=%s", req.SourcePath, lang)

	if cancelled() {
		return Outcome{}, ErrCancelled
	}

	waveform := req.SourcePath
	if audio.NeedsNormalization(req.SourcePath, p.sampleRate) {
		st.progress(pctNormalizing)
		st.status(fmt.Sprintf("Converting %s to %d Hz mono WAV", strings.TrimPrefix(strings.ToLower(filepath.Ext(req.SourcePath)), "."), p.sampleRate))

		dir, err := p.mkdirTemp(req.WorkDir, "audiotext-*")
		if err != nil {
			return Outcome{}, st.fail(KindNormalization, "Could not create a temporary directory", err)
		}
		st.tempDir = dir
		waveform = filepath.Join(dir, tempWaveName)

		if p.normalizer == nil {
			return Outcome{}, st.fail(KindNormalization, "No audio converter configured", audio.ErrUnsupportedFormat)
		}
		if err := p.normalizer.Normalize(ctx, req.SourcePath, waveform); err != nil {
			p.logf("normalize failed: %v", err)
			return Outcome{}, st.fail(KindNormalization, "Could not convert the audio file", err)
		}
		if cancelled() {
			return Outcome{}, ErrCancelled
		}
	}

	if _, err := p.stat(waveform); err != nil {
		return Outcome{}, st.fail(KindMissingAudio, fmt.Sprintf("Audio file not found: %s", waveform), err)
	}
	st.progress(pctWaveform)

	duration, err := p.prober(waveform)
	if err != nil {
		p.logf("duration probe failed: %v", err)
		duration = 0
	}

	data, err := p.readWaveform(waveform)
	if err != nil {
		return Outcome{}, st.fail(KindMissingAudio, "Could not read the audio file", err)
	}
	st.progress(pctLoaded)
	st.status("Audio loaded")

	if cancelled() {
		return Outcome{}, ErrCancelled
	}

	st.progress(pctPass1Sent)
	st.status(fmt.Sprintf("Transcribing (%s)", lang))
	first := p.transcribe(ctx, data, lang)
	st.progress(pctPass1Done)

	if first.err != nil {
		if errors.Is(first.err, transcriber.ErrNoSpeech) {
			p.logf("no speech detected in %s", req.SourcePath)
			st.status("No speech detected")
			ns := Assemble("", duration, nil, 0, start)
			ns.Text = p.placeholder
			ns.Language = lang
			ns.NoSpeech = true
			st.progress(pctDone)
			return ns, nil
		}
		if errors.Is(first.err, transcriber.ErrServiceUnavailable) {
			return Outcome{}, st.fail(KindServiceUnavailable, "Could not reach the recognition service", first.err)
		}
		return Outcome{}, st.fail(KindUnknownTranscription, "Transcription failed", first.err)
	}

	if cancelled() {
		return Outcome{}, ErrCancelled
	}

	st.status("Detecting language")
	decision := p.reconciler.Decide(first.result.Text, lang)
	kept := first
	var detected []string
	if decision.Detected != "" {
		detected = []string{decision.Detected}
	}

	if decision.Retry {
		if cancelled() {
			return Outcome{}, ErrCancelled
		}
		st.status(fmt.Sprintf("Detected %s, re-transcribing in %s", decision.Detected, decision.Code))
		second := p.transcribe(ctx, data, decision.Code)
		if second.err != nil {
			p.logf("second pass in %s failed: %v", decision.Code, second.err)
			st.status(fmt.Sprintf("Could not re-transcribe in %s: %v", decision.Code, second.err))
		} else {
			kept = second
		}
	}
	st.progress(pctReconciled)

	if cancelled() {
		return Outcome{}, ErrCancelled
	}

	confidence := kept.result.Confidence
	if confidence <= 0 {
		confidence = p.confidence
	}
	out = Assemble(kept.result.Text, duration, detected, confidence, start)
	out.Language = p.languageOf(kept, decision, lang)

	st.progress(pctDone)
	st.status("Conversion complete")
	p.logf("run done words=%d language=%s elapsed=%s", out.WordCount, out.Language, out.ProcessingTime.Round(time.Millisecond))
	return out, nil
}

func (p *Pipeline) transcribe(ctx context.Context, data []byte, code string) attempt {
	if p.transcriber == nil {
		return attempt{code: code, err: fmt.Errorf("no transcriber configured")}
	}
	res, err := p.transcriber.Transcribe(ctx, data, code)
	if err == nil && strings.TrimSpace(res.Text) == "" {
		err = transcriber.ErrNoSpeech
	}
	return attempt{code: code, result: res, err: err}
}

// languageOf names the language of the kept transcript.
func (p *Pipeline) languageOf(kept attempt, d langdetect.Decision, requested string) string {
	switch {
	case kept.code != requested:
		return kept.code
	case d.Retry:
		// second pass failed, the first pass text stands
		return requested
	case d.Code != "":
		return d.Code
	case d.Detected != "":
		return d.Detected
	default:
		return UnknownLanguage
	}
}

func (p *Pipeline) cleanup(st *runState) {
	if st.tempDir == "" {
		return
	}
	if err := p.removeAll(st.tempDir); err != nil {
		p.logf("cleanup %s: %v", st.tempDir, err)
		return
	}
	p.logf("removed %s", st.tempDir)
}
