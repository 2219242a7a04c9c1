package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/purvaestates/voice-call-service/internal/services/call"
	"github.com/purvaestates/voice-call-service/pkg/logger"
	"go.uber.org/zap"
)

// VAPIWebhookHandler routes webhook events posted by the call provider
// during and after each call.
type VAPIWebhookHandler struct {
	service *call.Service
}

// NewVAPIWebhookHandler creates a new VAPI webhook handler
func NewVAPIWebhookHandler(service *call.Service) *VAPIWebhookHandler {
	return &VAPIWebhookHandler{service: service}
}

// Webhook envelope shapes. Every event arrives wrapped in a message object
// whose type selects the payload fields that matter.
type vapiWebhookEnvelope struct {
	Message *vapiMessage `json:"message"`
}

type vapiMessage struct {
	Type            string            `json:"type"`
	Status          string            `json:"status"`
	EndedReason     string            `json:"endedReason"`
	DurationSeconds float64           `json:"durationSeconds"`
	Summary         string            `json:"summary"`
	Transcript      string            `json:"transcript"`
	Role            string            `json:"role"`
	Call            *vapiCall         `json:"call"`
	Analysis        *vapiAnalysis     `json:"analysis"`
	Artifact        *vapiArtifact     `json:"artifact"`
	FunctionCall    *vapiFunctionCall `json:"functionCall"`
}

type vapiCall struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

type vapiAnalysis struct {
	Summary string `json:"summary"`
}

type vapiArtifact struct {
	Transcript string `json:"transcript"`
}

type vapiFunctionCall struct {
	Name       string            `json:"name"`
	Parameters map[string]string `json:"parameters"`
}

// SetupVAPIWebhookRoutes sets up the provider webhook route
func (h *VAPIWebhookHandler) SetupVAPIWebhookRoutes(router *mux.Router) {
	router.HandleFunc("/webhooks/vapi", h.HandleWebhook).Methods("POST")
}

// HandleWebhook dispatches one provider event. Internal failures are logged
// and acknowledged anyway: a non-2xx answer only makes the provider retry an
// event we already could not process.
func (h *VAPIWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	bodyBytes, ok := readRequestBody(w, r, "vapi_webhook")
	if !ok {
		return
	}

	var envelope vapiWebhookEnvelope
	if !parseJSON(w, bodyBytes, &envelope, "vapi_webhook") {
		return
	}
	if envelope.Message == nil {
		sendErrorResponse(w, http.StatusBadRequest, "missing message")
		return
	}

	msg := envelope.Message
	inquiryID, callID := msg.correlation()

	switch msg.Type {
	case "status-update":
		status := msg.Status
		if status == "" && msg.Call != nil {
			status = msg.Call.Status
		}
		if err := h.service.ReconcileStatus(r.Context(), call.StatusEvent{
			InquiryID:      inquiryID,
			CallID:         callID,
			ProviderStatus: status,
		}); err != nil {
			logger.Base().Error("failed to process status update",
				zap.String("call_id", callID), zap.Error(err))
		}

	case "end-of-call-report":
		report := call.EndOfCallReport{
			InquiryID:       inquiryID,
			CallID:          callID,
			Summary:         msg.Summary,
			Transcript:      msg.Transcript,
			EndedReason:     msg.EndedReason,
			DurationSeconds: int(msg.DurationSeconds),
		}
		if report.Summary == "" && msg.Analysis != nil {
			report.Summary = msg.Analysis.Summary
		}
		if report.Transcript == "" && msg.Artifact != nil {
			report.Transcript = msg.Artifact.Transcript
		}
		if err := h.service.HandleEndOfCall(r.Context(), report); err != nil {
			logger.Base().Error("failed to process end-of-call report",
				zap.String("call_id", callID), zap.Error(err))
		}

	case "transcript":
		// Live transcript fragments are log-only; the end-of-call report
		// carries the full transcript for the record.
		logger.Base().Debug("transcript fragment",
			zap.String("call_id", callID),
			zap.String("role", msg.Role),
			zap.String("transcript", msg.Transcript))

	case "function-call":
		h.handleFunctionCall(w, r, msg, inquiryID, callID)
		return

	default:
		logger.Base().Info("unhandled webhook event type",
			zap.String("type", msg.Type),
			zap.String("call_id", callID))
	}

	sendJSONResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// handleFunctionCall executes an in-call tool invocation. The response body
// carries the result text the assistant speaks back to the lead.
func (h *VAPIWebhookHandler) handleFunctionCall(w http.ResponseWriter, r *http.Request, msg *vapiMessage, inquiryID, callID string) {
	fc := msg.FunctionCall
	if fc == nil || fc.Name != "scheduleAppointment" {
		name := ""
		if fc != nil {
			name = fc.Name
		}
		logger.Base().Warn("unknown function call", zap.String("name", name))
		sendJSONResponse(w, http.StatusOK, map[string]bool{"success": true})
		return
	}

	result, err := h.service.ScheduleAppointment(r.Context(), inquiryID, callID, fc.Parameters["date"], fc.Parameters["time"])
	if err != nil {
		logger.Base().Error("failed to schedule appointment",
			zap.String("inquiry_id", inquiryID), zap.Error(err))
		sendJSONResponse(w, http.StatusOK, map[string]string{
			"result": "Sorry, the appointment could not be scheduled right now.",
		})
		return
	}

	sendJSONResponse(w, http.StatusOK, map[string]string{"result": result})
}

func (m *vapiMessage) correlation() (inquiryID, callID string) {
	if m.Call == nil {
		return "", ""
	}
	return m.Call.Metadata["inquiryId"], m.Call.ID
}
