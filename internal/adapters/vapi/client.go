// Package vapi is a minimal REST adapter for the VAPI call-placement API.
package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/purvaestates/voice-call-service/internal/config"
	"github.com/purvaestates/voice-call-service/pkg/logger"
	"go.uber.org/zap"
)

// Fixed voice tuning for the Purva consultant persona (Jessica, warm female voice).
const (
	voiceProvider   = "11labs"
	voiceID         = "cgSgspJ2msm6clMCkdW9"
	voiceStability  = 0.6
	voiceSimilarity = 0.8
	voiceStyle      = 0.3

	modelProvider = "openai"
	modelName     = "gpt-4o-mini"

	silenceTimeoutSeconds = 20
	responseDelaySeconds  = 0.8
	wordsToInterrupt      = 2
)

// APIError carries a non-success provider response verbatim, status code and
// raw body, so callers can pass the rejection through untouched.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vapi: provider returned %d: %s", e.StatusCode, e.Body)
}

// Client talks to the VAPI REST API.
type Client struct {
	apiKey        string
	phoneNumberID string
	assistantID   string
	baseURL       string
	httpClient    *http.Client
}

// NewClient creates a VAPI client from configuration.
func NewClient(cfg config.VAPIConfig) *Client {
	return &Client{
		apiKey:        cfg.APIKey,
		phoneNumberID: cfg.PhoneNumberID,
		assistantID:   cfg.AssistantID,
		baseURL:       cfg.BaseURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CallRequest is the call-placement input assembled by the initiator.
type CallRequest struct {
	PhoneNumber  string
	CustomerName string
	FirstMessage string
	SystemPrompt string
	// Metadata is the correlation payload echoed back in webhook events.
	Metadata map[string]string
}

// CallResponse is the provider's acceptance of a call request.
type CallResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`

	// Raw is the full provider response body for passthrough to operators.
	Raw json.RawMessage `json:"-"`
}

// Wire types mirroring the VAPI phone-call payload.
type callPayload struct {
	PhoneNumberID      string             `json:"phoneNumberId"`
	AssistantID        string             `json:"assistantId"`
	Customer           customerPayload    `json:"customer"`
	AssistantOverrides assistantOverrides `json:"assistantOverrides"`
	Metadata           map[string]string  `json:"metadata"`
}

type customerPayload struct {
	Number string `json:"number"`
	Name   string `json:"name"`
}

type assistantOverrides struct {
	FirstMessage                 string       `json:"firstMessage"`
	Model                        modelConfig  `json:"model"`
	Voice                        voiceConfig  `json:"voice"`
	SilenceTimeoutSeconds        int          `json:"silenceTimeoutSeconds"`
	ResponseDelaySeconds         float64      `json:"responseDelaySeconds"`
	NumWordsToInterruptAssistant int          `json:"numWordsToInterruptAssistant"`
}

type modelConfig struct {
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	Messages []modelMessage `json:"messages"`
}

type modelMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type voiceConfig struct {
	Provider        string  `json:"provider"`
	VoiceID         string  `json:"voiceId"`
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarityBoost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"useSpeakerBoost"`
}

// PlaceCall issues one authenticated call-placement request. Provider
// rejections come back as *APIError with the status code and raw body.
func (c *Client) PlaceCall(ctx context.Context, req CallRequest) (*CallResponse, error) {
	payload := callPayload{
		PhoneNumberID: c.phoneNumberID,
		AssistantID:   c.assistantID,
		Customer: customerPayload{
			Number: req.PhoneNumber,
			Name:   req.CustomerName,
		},
		AssistantOverrides: assistantOverrides{
			FirstMessage: req.FirstMessage,
			Model: modelConfig{
				Provider: modelProvider,
				Model:    modelName,
				Messages: []modelMessage{{Role: "system", Content: req.SystemPrompt}},
			},
			Voice: voiceConfig{
				Provider:        voiceProvider,
				VoiceID:         voiceID,
				Stability:       voiceStability,
				SimilarityBoost: voiceSimilarity,
				Style:           voiceStyle,
				UseSpeakerBoost: true,
			},
			SilenceTimeoutSeconds:        silenceTimeoutSeconds,
			ResponseDelaySeconds:         responseDelaySeconds,
			NumWordsToInterruptAssistant: wordsToInterrupt,
		},
		Metadata: req.Metadata,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal call payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/call/phone", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build call request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach provider: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	logger.Base().Info("vapi response",
		zap.Int("status", resp.StatusCode),
		zap.Int("body_len", len(respBody)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var out CallResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		// Provider accepted the call but sent a body we cannot parse; keep
		// the raw payload so the operator still sees what happened.
		out = CallResponse{}
	}
	out.Raw = json.RawMessage(respBody)
	return &out, nil
}
