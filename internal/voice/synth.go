// Package voice turns final recommendations into synthesized voice notes and
// delivers them over the WhatsApp gateway, with a text fallback when
// synthesis is unavailable.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shelfscan_backend/platform/config"
)

// Synthesizer converts text to speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ElevenLabsClient calls the ElevenLabs text-to-speech API. The multilingual
// model handles Hindi and the other supported store languages.
type ElevenLabsClient struct {
	baseURL string
	apiKey  string
	voiceID string
	http    *http.Client
}

// NewElevenLabsClient creates the speech client, or nil when synthesis is not
// configured. Callers treat a nil synthesizer as "text-only delivery".
func NewElevenLabsClient(cfg config.SpeechConfig) *ElevenLabsClient {
	if !cfg.IsSpeechEnabled() {
		return nil
	}
	return &ElevenLabsClient{
		baseURL: strings.TrimRight(cfg.GetSpeechAPIURL(), "/"),
		apiKey:  cfg.GetSpeechAPIKey(),
		voiceID: cfg.GetSpeechVoiceID(),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type synthRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// Synthesize converts text to MP3 audio bytes.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("speech synthesis is not configured")
	}

	payload := synthRequest{
		Text:    text,
		ModelID: "eleven_multilingual_v2",
		VoiceSettings: voiceSettings{
			Stability:       0.6,
			SimilarityBoost: 0.8,
			Style:           0.3,
			UseSpeakerBoost: true,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, c.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("speech api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio body: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech api returned empty audio")
	}
	return audio, nil
}

// EstimateDuration approximates spoken length at roughly 150 words per
// minute, floored at 5 seconds.
func EstimateDuration(text string) int {
	words := len(strings.Fields(text))
	seconds := words * 60 / 150
	if seconds < 5 {
		return 5
	}
	return seconds
}
