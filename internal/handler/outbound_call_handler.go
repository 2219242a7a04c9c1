package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/purvaestates/voice-call-service/internal/adapters/vapi"
	"github.com/purvaestates/voice-call-service/internal/services/call"
	"github.com/purvaestates/voice-call-service/pkg/logger"
	"go.uber.org/zap"
)

// OutboundCallHandler exposes the operator-facing call placement endpoint
type OutboundCallHandler struct {
	service *call.Service
}

// NewOutboundCallHandler creates a new outbound call handler
func NewOutboundCallHandler(service *call.Service) *OutboundCallHandler {
	return &OutboundCallHandler{service: service}
}

// InitiateCallRequest is the operator's call placement request
type InitiateCallRequest struct {
	InquiryID     string `json:"inquiryId"`
	CustomerName  string `json:"customerName"`
	PhoneNumber   string `json:"phoneNumber"`
	PreferredArea string `json:"preferredArea"`
	Budget        string `json:"budget"`
	Language      string `json:"language"`
}

// SetupOutboundCallRoutes sets up routes for call placement
func (h *OutboundCallHandler) SetupOutboundCallRoutes(router *mux.Router) {
	router.HandleFunc("/calls/outbound", h.HandleInitiateCall).Methods("POST")
}

// HandleInitiateCall validates the request and places the outbound call.
// Provider rejections are forwarded to the operator with the provider's own
// status code and body.
func (h *OutboundCallHandler) HandleInitiateCall(w http.ResponseWriter, r *http.Request) {
	bodyBytes, ok := readRequestBody(w, r, "outbound_call")
	if !ok {
		return
	}

	var req InitiateCallRequest
	if !parseJSON(w, bodyBytes, &req, "outbound_call") {
		return
	}

	result, err := h.service.InitiateCall(r.Context(), call.InitiateCallInput{
		InquiryID:     req.InquiryID,
		CustomerName:  req.CustomerName,
		Phone:         req.PhoneNumber,
		PreferredArea: req.PreferredArea,
		Budget:        req.Budget,
		Language:      req.Language,
	})
	if err != nil {
		h.writeInitiateError(w, req.InquiryID, err)
		return
	}

	sendJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"inquiryId": result.InquiryID,
		"callId":    result.CallID,
		"status":    result.Status,
		"language":  result.Language,
	})
}

func (h *OutboundCallHandler) writeInitiateError(w http.ResponseWriter, inquiryID string, err error) {
	var apiErr *vapi.APIError

	switch {
	case errors.Is(err, call.ErrPhoneRequired):
		sendErrorResponse(w, http.StatusBadRequest, "phone number is required")

	case errors.Is(err, call.ErrRateLimited):
		sendErrorResponse(w, http.StatusTooManyRequests, "outbound call rate limit exceeded")

	case errors.As(err, &apiErr):
		// Pass the provider's rejection through untouched so the operator
		// sees the real reason (bad number, no credits, ...).
		logger.Base().Warn("provider rejected call",
			zap.String("inquiry_id", inquiryID),
			zap.Int("provider_status", apiErr.StatusCode))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(apiErr.StatusCode)
		w.Write([]byte(apiErr.Body))

	default:
		logger.Base().Error("failed to initiate call",
			zap.String("inquiry_id", inquiryID),
			zap.Error(err))
		sendErrorResponse(w, http.StatusInternalServerError, "failed to initiate call")
	}
}
