package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/purvaestates/voice-call-service/internal/relay"
	"github.com/purvaestates/voice-call-service/pkg/logger"
	"go.uber.org/zap"
)

// MediaStreamHandler upgrades Twilio media stream connections and hands
// them to relay sessions.
type MediaStreamHandler struct {
	synth    relay.Synthesizer
	upgrader websocket.Upgrader
}

// NewMediaStreamHandler creates a new media stream handler
func NewMediaStreamHandler(synth relay.Synthesizer) *MediaStreamHandler {
	return &MediaStreamHandler{
		synth: synth,
		upgrader: websocket.Upgrader{
			// Twilio connects server-to-server without an Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SetupMediaStreamRoutes sets up the media stream WebSocket route
func (h *MediaStreamHandler) SetupMediaStreamRoutes(router *mux.Router) {
	router.HandleFunc("/media-stream", h.HandleMediaStream).Methods("GET")
}

// HandleMediaStream runs one relay session over the upgraded connection.
func (h *MediaStreamHandler) HandleMediaStream(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Base().Error("media stream upgrade failed", zap.Error(err))
		return
	}

	session := relay.NewSession(ws, h.synth, nil)
	session.Run(r.Context())
}
