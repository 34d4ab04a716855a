// Package langdetect identifies the language of transcribed text and decides
// whether a conversion should be re-run in a different recognition language.
package langdetect

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/Danondso/audiotext/internal/config"
)

// ErrUndetermined is returned when the text carries no usable language signal.
var ErrUndetermined = errors.New("language could not be determined")

// Detector returns the short language tag ("es", "en") of a text.
type Detector interface {
	Detect(text string) (string, error)
}

// serviceCodes maps detected base languages onto recognition language codes.
var serviceCodes = map[string]string{
	"es": "es-ES",
	"en": "en-US",
	"fr": "fr-FR",
	"de": "de-DE",
	"it": "it-IT",
	"pt": "pt-BR",
	"ja": "ja-JP",
	"zh": "zh-CN",
	"ru": "ru-RU",
}

// ServiceCode returns the recognition code for a detected tag. Tags are
// normalised to their base language first, so "PT", "pt-PT" and "zh-Hans"
// all resolve.
func ServiceCode(tag string) (string, bool) {
	base := config.BaseLanguage(tag)
	if base == "" {
		return "", false
	}
	code, ok := serviceCodes[base]
	return code, ok
}

// Whatlang detects languages with the trigram models of whatlanggo. Results
// depend only on the input text.
type Whatlang struct {
	opts whatlanggo.Options
}

// NewMappableWhatlang returns a detector restricted to languages that have a
// recognition code, which keeps close relatives (gl, ca) from hijacking
// Spanish or Portuguese text.
func NewMappableWhatlang() *Whatlang {
	return &Whatlang{opts: whatlanggo.Options{Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Spa: true,
		whatlanggo.Eng: true,
		whatlanggo.Fra: true,
		whatlanggo.Deu: true,
		whatlanggo.Ita: true,
		whatlanggo.Por: true,
		whatlanggo.Jpn: true,
		whatlanggo.Cmn: true,
		whatlanggo.Rus: true,
	}}}
}

// Detect implements Detector.
func (w *Whatlang) Detect(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrUndetermined
	}
	info := whatlanggo.DetectWithOptions(text, w.opts)
	if info.Script == nil || info.Lang < 0 {
		return "", ErrUndetermined
	}
	tag := info.Lang.Iso6391()
	if tag == "" {
		return "", fmt.Errorf("%s has no ISO 639-1 code: %w", info.Lang.String(), ErrUndetermined)
	}
	return tag, nil
}

// Decision is the outcome of reconciling a first-pass transcript with the
// language it was recognised in.
type Decision struct {
	Detected string // short tag, "" when detection failed
	Code     string // recognition code to retry with
	Retry    bool
}

// Reconciler decides whether a transcript should be re-run.
type Reconciler struct {
	detector Detector
	logger   *log.Logger
}

// NewReconciler returns a Reconciler using d.
func NewReconciler(d Detector, logger *log.Logger) *Reconciler {
	return &Reconciler{detector: d, logger: logger}
}

// Decide detects the language of text and compares it with the requested
// recognition code. It never fails: detection errors produce an empty
// Detected and no retry.
func (r *Reconciler) Decide(text, requested string) Decision {
	if r == nil || r.detector == nil {
		return Decision{}
	}
	tag, err := r.detector.Detect(text)
	if err != nil {
		if r.logger != nil {
			r.logger.Printf("detect: %v", err)
		}
		return Decision{}
	}
	d := Decision{Detected: tag}

	code, ok := ServiceCode(tag)
	if !ok {
		if r.logger != nil {
			r.logger.Printf("detect: %q has no recognition code, keeping %s", tag, requested)
		}
		return d
	}
	d.Code = code
	if strings.EqualFold(code, requested) {
		return d
	}
	d.Retry = true
	if r.logger != nil {
		r.logger.Printf("detect: text looks like %s, requested %s, retrying in %s", tag, requested, code)
	}
	return d
}
