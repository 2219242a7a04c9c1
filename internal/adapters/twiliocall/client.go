// Package twiliocall places outbound calls through the Twilio voice API,
// bridging call audio back to this service over a media stream.
package twiliocall

import (
	"fmt"
	"net/url"

	"github.com/purvaestates/voice-call-service/internal/config"
	"github.com/purvaestates/voice-call-service/pkg/logger"
	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/twilio/twilio-go/twiml"
	"go.uber.org/zap"
)

// Client wraps the Twilio REST client. If credentials are missing the
// client is disabled and PlaceCall fails with a clear error.
type Client struct {
	client     *twilio.RestClient
	fromNumber string
	enabled    bool
}

// NewClient creates a Twilio client. Empty credentials produce a disabled
// client rather than an error so the service can run VAPI-only.
func NewClient(cfg config.TwilioConfig) *Client {
	if !cfg.Enabled() {
		logger.Base().Warn("Twilio credentials not provided, Twilio dialing disabled")
		return &Client{enabled: false}
	}

	return &Client{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		fromNumber: cfg.FromNumber,
		enabled:    true,
	}
}

// Enabled reports whether dialing credentials are configured.
func (c *Client) Enabled() bool {
	return c.enabled
}

// CallParams describes one outbound call and the context forwarded to the
// media stream as custom parameters.
type CallParams struct {
	To                string
	MediaStreamURL    string
	StatusCallbackURL string
	InquiryID         string
	CustomerName      string
	PreferredArea     string
	Budget            string
	Language          string
	Greeting          string
}

// PlaceCall dials the lead and connects the answered call to the media
// stream endpoint. Returns the Twilio call SID.
func (c *Client) PlaceCall(p CallParams) (string, error) {
	if !c.enabled {
		return "", fmt.Errorf("twiliocall: dialing is not configured")
	}

	voiceXML, err := connectStreamTwiML(p)
	if err != nil {
		return "", fmt.Errorf("failed to build call instructions: %w", err)
	}

	params := &api.CreateCallParams{}
	params.SetTo(p.To)
	params.SetFrom(c.fromNumber)
	params.SetTwiml(voiceXML)
	if p.StatusCallbackURL != "" {
		params.SetStatusCallback(p.StatusCallbackURL)
		params.SetStatusCallbackMethod("POST")
		params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	}

	resp, err := c.client.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("failed to create call: %w", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	logger.Base().Info("twilio call created",
		zap.String("call_sid", sid),
		zap.String("to", p.To))
	return sid, nil
}

// connectStreamTwiML produces the <Connect><Stream> document carrying the
// lead context. The greeting is URL-encoded because Twilio passes custom
// parameters through XML and the scripts contain arbitrary punctuation.
func connectStreamTwiML(p CallParams) (string, error) {
	stream := &twiml.VoiceStream{
		Url: p.MediaStreamURL,
		InnerElements: []twiml.Element{
			twiml.VoiceParameter{Name: "inquiryId", Value: p.InquiryID},
			twiml.VoiceParameter{Name: "customerName", Value: p.CustomerName},
			twiml.VoiceParameter{Name: "preferredArea", Value: p.PreferredArea},
			twiml.VoiceParameter{Name: "budget", Value: p.Budget},
			twiml.VoiceParameter{Name: "language", Value: p.Language},
			twiml.VoiceParameter{Name: "greeting", Value: url.QueryEscape(p.Greeting)},
		},
	}
	connect := &twiml.VoiceConnect{
		InnerElements: []twiml.Element{stream},
	}
	return twiml.Voice([]twiml.Element{connect})
}
