package transcriber

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Danondso/audiotext/internal/audio"
)

// DefaultGoogleURL is the Speech-to-Text endpoint used when no base URL is configured.
const DefaultGoogleURL = "https://speech.googleapis.com"

type googleRecognizeRequest struct {
	Config googleRecognizeConfig `json:"config"`
	Audio  googleRecognizeAudio  `json:"audio"`
}

type googleRecognizeConfig struct {
	Encoding          string `json:"encoding"`
	SampleRateHertz   int    `json:"sampleRateHertz"`
	AudioChannelCount int    `json:"audioChannelCount,omitempty"`
	LanguageCode      string `json:"languageCode"`
	Model             string `json:"model,omitempty"`
}

type googleRecognizeAudio struct {
	Content string `json:"content"`
}

type googleRecognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
}

// Google implements Transcriber using the Google Cloud Speech-to-Text v1
// speech:recognize REST method.
type Google struct {
	baseURL    string
	apiKey     string
	model      string
	timeoutSec int
	client     *http.Client
	logger     *log.Logger
}

// NewGoogle creates a Google Speech-to-Text transcriber.
func NewGoogle(baseURL, apiKey, model string, timeoutSec int, tlsSkipVerify bool, logger *log.Logger) *Google {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	return &Google{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		timeoutSec: timeoutSec,
		client:     newHTTPClient(tlsSkipVerify),
		logger:     logger,
	}
}

// Transcribe sends the waveform to speech:recognize and joins every result's
// top alternative.
func (g *Google) Transcribe(ctx context.Context, wavData []byte, languageCode string) (Result, error) {
	info, err := audio.ReadWAVHeader(wavData)
	if err != nil {
		return Result{}, fmt.Errorf("read waveform header: %w", err)
	}

	ctx, cancel := withTimeout(ctx, g.timeoutSec)
	defer cancel()

	payload, err := json.Marshal(googleRecognizeRequest{
		Config: googleRecognizeConfig{
			Encoding:          "LINEAR16",
			SampleRateHertz:   info.SampleRate,
			AudioChannelCount: info.Channels,
			LanguageCode:      languageCode,
			Model:             g.model,
		},
		Audio: googleRecognizeAudio{
			Content: base64.StdEncoding.EncodeToString(wavData),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	endpoint := g.baseURL + "/v1/speech:recognize"
	if g.apiKey != "" {
		endpoint += "?key=" + url.QueryEscape(g.apiKey)
	}
	if g.logger != nil {
		g.logger.Printf("transcribe request: POST %s/v1/speech:recognize language=%s wav_size=%d", g.baseURL, languageCode, len(wavData))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req) //nolint:gosec // URL from user config
	if err != nil {
		return Result{}, fmt.Errorf("send request: %v: %w", err, ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %v: %w", err, ErrServiceUnavailable)
	}
	if g.logger != nil {
		g.logger.Printf("transcribe response: status=%d body_size=%d latency=%s", resp.StatusCode, len(respBody), time.Since(start).Round(time.Millisecond))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("recognize failed (status %d): %s: %w", resp.StatusCode, strings.TrimSpace(string(respBody)), ErrServiceUnavailable)
	}

	var parsed googleRecognizeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}

	var parts []string
	var confSum float64
	var confN int
	for _, r := range parsed.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		if t := strings.TrimSpace(alt.Transcript); t != "" {
			parts = append(parts, t)
		}
		if alt.Confidence > 0 {
			confSum += alt.Confidence
			confN++
		}
	}
	if len(parts) == 0 {
		return Result{}, ErrNoSpeech
	}

	res := Result{Text: strings.Join(parts, " ")}
	if confN > 0 {
		res.Confidence = confSum / float64(confN)
	}
	if g.logger != nil {
		g.logger.Printf("transcribe result: %q confidence=%.2f", res.Text, res.Confidence)
	}
	return res, nil
}
