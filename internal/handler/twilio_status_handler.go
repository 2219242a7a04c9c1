package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/purvaestates/voice-call-service/internal/services/call"
	"github.com/purvaestates/voice-call-service/pkg/logger"
	"go.uber.org/zap"
)

// TwilioStatusHandler receives Twilio call status callbacks
type TwilioStatusHandler struct {
	service *call.Service
}

// NewTwilioStatusHandler creates a new Twilio status callback handler
func NewTwilioStatusHandler(service *call.Service) *TwilioStatusHandler {
	return &TwilioStatusHandler{service: service}
}

// SetupTwilioStatusRoutes sets up the status callback route
func (h *TwilioStatusHandler) SetupTwilioStatusRoutes(router *mux.Router) {
	router.HandleFunc("/webhooks/twilio/status", h.HandleStatusCallback).Methods("POST")
}

// HandleStatusCallback folds one Twilio status callback into the record.
// Twilio retries non-2xx deliveries, so the endpoint always answers 200.
func (h *TwilioStatusHandler) HandleStatusCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		logger.Base().Warn("unparseable twilio status callback", zap.Error(err))
		sendJSONResponse(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	callSID := r.FormValue("CallSid")
	callStatus := r.FormValue("CallStatus")
	duration := r.FormValue("CallDuration")

	logger.Base().Info("twilio status callback",
		zap.String("call_sid", callSID),
		zap.String("call_status", callStatus),
		zap.String("duration", duration))

	if err := h.service.ReconcileStatus(r.Context(), call.StatusEvent{
		CallID:         callSID,
		ProviderStatus: callStatus,
	}); err != nil {
		logger.Base().Error("failed to process twilio status callback",
			zap.String("call_sid", callSID), zap.Error(err))
	}

	sendJSONResponse(w, http.StatusOK, map[string]bool{"received": true})
}
