// Package elevenlabs streams text-to-speech audio for the media relay.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/purvaestates/voice-call-service/internal/config"
)

const (
	modelID = "eleven_turbo_v2_5"

	// Telephony output: 8kHz mu-law, the format Twilio media streams carry.
	outputFormat = "ulaw_8000"

	streamStability  = 0.5
	streamSimilarity = 0.75
	streamStyle      = 0.3

	chunkSize = 4096
)

// Client streams synthesized speech from the ElevenLabs API.
type Client struct {
	apiKey     string
	voiceID    string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an ElevenLabs client. A client without an API key is
// valid but disabled; callers check Enabled before synthesizing.
func NewClient(cfg config.ElevenLabsConfig) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		voiceID:    cfg.VoiceID,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Enabled reports whether synthesis credentials are configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
}

// Stream synthesizes text as 8kHz mu-law audio and hands raw chunks to
// onChunk as they arrive. A non-nil error from onChunk aborts the stream.
func (c *Client) Stream(ctx context.Context, text string, onChunk func(chunk []byte) error) error {
	if !c.Enabled() {
		return fmt.Errorf("elevenlabs: synthesis is not configured")
	}

	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: modelID,
		VoiceSettings: voiceSettings{
			Stability:       streamStability,
			SimilarityBoost: streamSimilarity,
			Style:           streamStyle,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s/stream?output_format=%s",
		c.baseURL, url.PathEscape(c.voiceID), outputFormat)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build synthesis request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach synthesis provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("elevenlabs: synthesis returned %d: %s", resp.StatusCode, string(detail))
	}

	buf := make([]byte, chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if err := onChunk(chunk); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("failed to read synthesis stream: %w", readErr)
		}
	}
}
