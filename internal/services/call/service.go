// Package call orchestrates the outbound qualification call lifecycle:
// placing calls with a provider, recording appointment rows, and folding
// provider webhook events back into those rows.
package call

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/purvaestates/voice-call-service/internal/adapters/twiliocall"
	"github.com/purvaestates/voice-call-service/internal/adapters/vapi"
	"github.com/purvaestates/voice-call-service/internal/cache"
	"github.com/purvaestates/voice-call-service/internal/config"
	"github.com/purvaestates/voice-call-service/internal/domain"
	"github.com/purvaestates/voice-call-service/internal/prompts"
	"github.com/purvaestates/voice-call-service/internal/repository"
	"github.com/purvaestates/voice-call-service/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrPhoneRequired = errors.New("call: phone number is required")
	ErrRateLimited   = errors.New("call: outbound call rate limit exceeded")
)

// VAPIDialer places calls through the VAPI REST API.
type VAPIDialer interface {
	PlaceCall(ctx context.Context, req vapi.CallRequest) (*vapi.CallResponse, error)
}

// TwilioDialer places calls through Twilio, bridged to the media stream.
type TwilioDialer interface {
	Enabled() bool
	PlaceCall(p twiliocall.CallParams) (string, error)
}

// Service implements the call lifecycle operations.
type Service struct {
	cfg          *config.Config
	repos        repository.RepositoryManager
	vapi         VAPIDialer
	twilio       TwilioDialer
	correlations *cache.CorrelationStore
	limiter      *rate.Limiter
}

// NewService wires the call service. The limiter smooths call placement to
// the configured per-minute budget with a burst of one minute's worth.
func NewService(cfg *config.Config, repos repository.RepositoryManager, vapiDialer VAPIDialer, twilioDialer TwilioDialer, correlations *cache.CorrelationStore) *Service {
	perMinute := cfg.CallsPerMinute
	if perMinute <= 0 {
		perMinute = 1
	}
	return &Service{
		cfg:          cfg,
		repos:        repos,
		vapi:         vapiDialer,
		twilio:       twilioDialer,
		correlations: correlations,
		limiter:      rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
	}
}

// InitiateCallInput is the lead context an operator submits to start a call.
type InitiateCallInput struct {
	InquiryID     string
	CustomerName  string
	Phone         string
	PreferredArea string
	Budget        string
	Language      string
}

// InitiateCallResult reports the accepted call back to the operator.
type InitiateCallResult struct {
	InquiryID        string          `json:"inquiryId"`
	CallID           string          `json:"callId"`
	Status           string          `json:"status"`
	Language         domain.Language `json:"language"`
	ProviderResponse json.RawMessage `json:"providerResponse,omitempty"`
}

// InitiateCall validates and normalizes the lead, records the appointment
// row, then dispatches the call to the configured provider. The record is
// written before dialing so a webhook arriving mid-request finds it.
func (s *Service) InitiateCall(ctx context.Context, in InitiateCallInput) (*InitiateCallResult, error) {
	phone := NormalizePhone(in.Phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}

	// Default the name once so the record, the provider payload and the
	// notes all address the lead the same way the scripts do.
	if in.CustomerName == "" {
		in.CustomerName = prompts.DefaultCustomerName
	}

	lang := domain.NormalizeLanguage(in.Language)
	script := prompts.ScriptInput{
		CustomerName:  in.CustomerName,
		PreferredArea: in.PreferredArea,
		Budget:        in.Budget,
	}
	greeting := prompts.Greeting(lang, script)
	systemPrompt := prompts.SystemPrompt(lang, script)

	record := &domain.CallAppointment{
		InquiryID:        in.InquiryID,
		CustomerName:     in.CustomerName,
		CustomerPhone:    phone,
		PropertyLocation: in.PreferredArea,
		Budget:           in.Budget,
		Language:         lang,
		Status:           domain.StatusCalling,
		Notes:            initialNotes(in),
	}
	if err := s.repos.Appointments().Create(ctx, record); err != nil {
		// Record keeping is best effort: a database hiccup must not block
		// the call itself.
		logger.Base().Error("failed to create appointment record",
			zap.String("inquiry_id", in.InquiryID), zap.Error(err))
	}

	var (
		result *InitiateCallResult
		err    error
	)
	switch s.cfg.Provider {
	case config.ProviderTwilio:
		result, err = s.dialTwilio(in, phone, greeting, lang)
	default:
		result, err = s.dialVAPI(ctx, in, phone, greeting, systemPrompt, lang)
	}
	if err != nil {
		return nil, err
	}

	if result.CallID != "" {
		if updateErr := s.repos.Appointments().UpdateStatus(ctx, in.InquiryID, domain.StatusCalling, result.CallID); updateErr != nil {
			logger.Base().Warn("failed to attach call id to appointment",
				zap.String("inquiry_id", in.InquiryID), zap.Error(updateErr))
		}
		s.correlations.Put(ctx, result.CallID, cache.Correlation{
			InquiryID:     in.InquiryID,
			CustomerName:  in.CustomerName,
			PreferredArea: in.PreferredArea,
			Budget:        in.Budget,
			Language:      string(lang),
		})
	}

	logger.Base().Info("outbound call initiated",
		zap.String("inquiry_id", in.InquiryID),
		zap.String("call_id", result.CallID),
		zap.String("phone", phone),
		zap.String("language", string(lang)))
	return result, nil
}

func (s *Service) dialVAPI(ctx context.Context, in InitiateCallInput, phone, greeting, systemPrompt string, lang domain.Language) (*InitiateCallResult, error) {
	resp, err := s.vapi.PlaceCall(ctx, vapi.CallRequest{
		PhoneNumber:  phone,
		CustomerName: in.CustomerName,
		FirstMessage: greeting,
		SystemPrompt: systemPrompt,
		Metadata: map[string]string{
			"inquiryId":     in.InquiryID,
			"customerName":  in.CustomerName,
			"preferredArea": in.PreferredArea,
			"budget":        in.Budget,
			"language":      string(lang),
		},
	})
	if err != nil {
		return nil, err
	}
	return &InitiateCallResult{
		InquiryID:        in.InquiryID,
		CallID:           resp.ID,
		Status:           resp.Status,
		Language:         lang,
		ProviderResponse: resp.Raw,
	}, nil
}

func (s *Service) dialTwilio(in InitiateCallInput, phone, greeting string, lang domain.Language) (*InitiateCallResult, error) {
	if s.twilio == nil || !s.twilio.Enabled() {
		return nil, fmt.Errorf("call: twilio provider selected but not configured")
	}
	sid, err := s.twilio.PlaceCall(twiliocall.CallParams{
		To:                phone,
		MediaStreamURL:    s.cfg.MediaStreamURL(),
		StatusCallbackURL: s.cfg.StatusCallbackURL(),
		InquiryID:         in.InquiryID,
		CustomerName:      in.CustomerName,
		PreferredArea:     in.PreferredArea,
		Budget:            in.Budget,
		Language:          string(lang),
		Greeting:          greeting,
	})
	if err != nil {
		return nil, err
	}
	return &InitiateCallResult{
		InquiryID: in.InquiryID,
		CallID:    sid,
		Status:    "queued",
		Language:  lang,
	}, nil
}

func initialNotes(in InitiateCallInput) string {
	area := in.PreferredArea
	if area == "" {
		area = "property inquiry"
	}
	budget := in.Budget
	if budget == "" {
		budget = "Not specified"
	}
	return fmt.Sprintf("Call initiated to %s for %s. Budget: %s", in.CustomerName, area, budget)
}
