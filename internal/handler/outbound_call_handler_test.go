package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/purvaestates/voice-call-service/internal/adapters/vapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postOutboundCall(t *testing.T, router *mux.Router, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/calls/outbound", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func newCallRouter(dialer *stubDialer) *mux.Router {
	svc, _ := newTestService(dialer)
	router := mux.NewRouter()
	NewOutboundCallHandler(svc).SetupOutboundCallRoutes(router)
	return router
}

func TestInitiateCallEndpoint(t *testing.T) {
	dialer := &stubDialer{response: &vapi.CallResponse{ID: "call-1", Status: "queued"}}
	router := newCallRouter(dialer)

	rec := postOutboundCall(t, router, `{
		"inquiryId": "inq-1",
		"customerName": "Rahul Sharma",
		"phoneNumber": "98765 43210",
		"preferredArea": "Baner",
		"budget": "80L",
		"language": "hindi"
	}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "call-1", resp["callId"])
	assert.Equal(t, "inq-1", resp["inquiryId"])
	assert.Equal(t, "hindi", resp["language"])

	assert.Equal(t, "+919876543210", dialer.lastReq.PhoneNumber)
}

func TestInitiateCallEndpointMissingPhone(t *testing.T) {
	dialer := &stubDialer{}
	router := newCallRouter(dialer)

	rec := postOutboundCall(t, router, `{"inquiryId": "inq-1", "customerName": "Rahul"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "phone number is required")
	assert.Zero(t, dialer.calls)
}

func TestInitiateCallEndpointMalformedBody(t *testing.T) {
	router := newCallRouter(&stubDialer{})

	rec := postOutboundCall(t, router, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInitiateCallEndpointProviderErrorPassthrough(t *testing.T) {
	dialer := &stubDialer{
		err: &vapi.APIError{StatusCode: http.StatusPaymentRequired, Body: `{"error": "insufficient credits"}`},
	}
	router := newCallRouter(dialer)

	rec := postOutboundCall(t, router, `{"inquiryId": "inq-1", "phoneNumber": "9876543210"}`)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.JSONEq(t, `{"error": "insufficient credits"}`, rec.Body.String())
}
