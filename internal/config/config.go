package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// CallProvider selects which telephony variant places outbound calls.
type CallProvider string

const (
	// ProviderVAPI places calls through the VAPI voice-AI platform (default).
	ProviderVAPI CallProvider = "vapi"
	// ProviderTwilio places calls through the Twilio REST API and bridges
	// audio through this service's own media-stream endpoint.
	ProviderTwilio CallProvider = "twilio"
)

// Config holds the service configuration loaded from environment variables.
type Config struct {
	Port string

	// PublicBaseURL is the externally reachable base URL of this service,
	// used to build webhook and media-stream URLs handed to providers.
	PublicBaseURL string

	// APISecretKey signs/verifies the operator API key (JWT). Empty disables
	// the check, which is only acceptable for local development.
	APISecretKey string

	Provider   CallProvider
	VAPI       VAPIConfig
	Twilio     TwilioConfig
	ElevenLabs ElevenLabsConfig
	Redis      RedisConfig

	// CallsPerMinute bounds outbound call placement.
	CallsPerMinute int
}

// VAPIConfig holds VAPI credentials. All three identifiers are required to
// place a call; Validate fails fast when any is missing.
type VAPIConfig struct {
	APIKey        string
	PhoneNumberID string
	AssistantID   string
	BaseURL       string
}

// TwilioConfig holds Twilio credentials for the self-hosted telephony variant.
// Missing credentials disable the variant rather than failing startup.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Enabled reports whether the Twilio variant can place calls.
func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

// ElevenLabsConfig holds the speech-synthesis credentials used by the media relay.
type ElevenLabsConfig struct {
	APIKey  string
	VoiceID string
	BaseURL string
}

// Enabled reports whether greeting synthesis is available.
func (c ElevenLabsConfig) Enabled() bool {
	return c.APIKey != ""
}

// RedisConfig holds the correlation-cache connection settings.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether the correlation cache should be wired up.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// Load reads configuration from the environment. Call Validate afterwards;
// Load itself never fails so that all missing values can be reported together.
func Load() *Config {
	return &Config{
		Port:          getEnvOrDefault("PORT", "8080"),
		PublicBaseURL: strings.TrimRight(getEnvOrDefault("PUBLIC_BASE_URL", ""), "/"),
		APISecretKey:  os.Getenv("API_SECRET_KEY"),
		Provider:      CallProvider(getEnvOrDefault("CALL_PROVIDER", string(ProviderVAPI))),
		VAPI: VAPIConfig{
			APIKey:        os.Getenv("VAPI_API_KEY"),
			PhoneNumberID: os.Getenv("VAPI_PHONE_NUMBER_ID"),
			AssistantID:   os.Getenv("VAPI_ASSISTANT_ID"),
			BaseURL:       getEnvOrDefault("VAPI_BASE_URL", "https://api.vapi.ai"),
		},
		Twilio: TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			FromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:  os.Getenv("ELEVENLABS_API_KEY"),
			VoiceID: getEnvOrDefault("ELEVENLABS_VOICE_ID", "cgSgspJ2msm6clMCkdW9"),
			BaseURL: getEnvOrDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvIntOrDefault("REDIS_DB", 0),
		},
		CallsPerMinute: getEnvIntOrDefault("CALLS_PER_MINUTE", 30),
	}
}

// Validate checks the configuration the call initiator cannot run without.
// Provider credential checks happen here, before any network call is made.
func (c *Config) Validate() error {
	var errs []error

	switch c.Provider {
	case ProviderVAPI:
		if c.VAPI.APIKey == "" || c.VAPI.PhoneNumberID == "" || c.VAPI.AssistantID == "" {
			errs = append(errs, errors.New("VAPI configuration is incomplete: VAPI_API_KEY, VAPI_PHONE_NUMBER_ID and VAPI_ASSISTANT_ID are required"))
		}
	case ProviderTwilio:
		if !c.Twilio.Enabled() {
			errs = append(errs, errors.New("Twilio configuration is incomplete: TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER are required"))
		}
		if c.PublicBaseURL == "" {
			errs = append(errs, errors.New("PUBLIC_BASE_URL is required for the Twilio variant (media-stream and status-callback URLs)"))
		}
	default:
		errs = append(errs, fmt.Errorf("CALL_PROVIDER must be %q or %q, got %q", ProviderVAPI, ProviderTwilio, c.Provider))
	}

	if c.CallsPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("CALLS_PER_MINUTE must be positive, got %d", c.CallsPerMinute))
	}

	return joinErrors(errs)
}

// MediaStreamURL returns the WebSocket URL the telephony provider should
// attach its audio stream to.
func (c *Config) MediaStreamURL() string {
	base := strings.Replace(c.PublicBaseURL, "https://", "wss://", 1)
	base = strings.Replace(base, "http://", "ws://", 1)
	return base + "/media-stream"
}

// StatusCallbackURL returns the delivery-status webhook URL.
func (c *Config) StatusCallbackURL() string {
	return c.PublicBaseURL + "/webhooks/twilio/status"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
