// Package relay bridges a Twilio media stream to speech synthesis: it plays
// the opening greeting into the call and hands inbound caller audio to a
// transcriber.
package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/purvaestates/voice-call-service/pkg/logger"
	"go.uber.org/zap"
)

// markGreetingDone is the mark name Twilio echoes back once the greeting
// audio has fully played into the call.
const markGreetingDone = "tts_complete"

// Synthesizer streams synthesized speech as 8kHz mu-law chunks.
type Synthesizer interface {
	Enabled() bool
	Stream(ctx context.Context, text string, onChunk func(chunk []byte) error) error
}

// Transcriber consumes raw inbound caller audio. Implementations may buffer,
// forward to a speech-to-text provider, or discard.
type Transcriber interface {
	Feed(chunk []byte)
	Close()
}

// NoopTranscriber discards caller audio.
type NoopTranscriber struct{}

func (NoopTranscriber) Feed(chunk []byte) {}
func (NoopTranscriber) Close()            {}

// SessionState tracks the media-stream lifecycle.
type SessionState int

const (
	StateConnecting SessionState = iota
	StateStarted
	StateStopped
)

// StartParams is the lead context Twilio forwards as custom parameters on
// the stream start event.
type StartParams struct {
	StreamSID     string
	CallSID       string
	InquiryID     string
	CustomerName  string
	PreferredArea string
	Budget        string
	Language      string
	Greeting      string
}

// Wire types for Twilio media-stream messages.
type streamMessage struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid,omitempty"`
	Start     *startMessage `json:"start,omitempty"`
	Media     *mediaPayload `json:"media,omitempty"`
	Mark      *markPayload  `json:"mark,omitempty"`
}

type startMessage struct {
	StreamSID    string            `json:"streamSid"`
	CallSID      string            `json:"callSid"`
	CustomParams map[string]string `json:"customParameters"`
}

type mediaPayload struct {
	Payload string `json:"payload"`
}

type markPayload struct {
	Name string `json:"name"`
}

// Session handles one media-stream WebSocket connection.
type Session struct {
	ws          *websocket.Conn
	synth       Synthesizer
	transcriber Transcriber

	outbound chan any
	done     chan struct{}

	mu     sync.RWMutex
	state  SessionState
	params StartParams

	closeOnce sync.Once
}

// NewSession wraps an upgraded media-stream connection. A nil transcriber
// defaults to discarding caller audio.
func NewSession(ws *websocket.Conn, synth Synthesizer, transcriber Transcriber) *Session {
	if transcriber == nil {
		transcriber = NoopTranscriber{}
	}
	return &Session{
		ws:          ws,
		synth:       synth,
		transcriber: transcriber,
		outbound:    make(chan any, 64),
		done:        make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Params returns the start parameters, valid once the stream has started.
func (s *Session) Params() StartParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// Run drives the session until the stream stops or the connection drops.
func (s *Session) Run(ctx context.Context) {
	defer s.Close()
	go s.writeLoop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		default:
		}

		_, data, err := s.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Base().Warn("media stream read failed", zap.Error(err))
			}
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Event {
		case "connected":
			// Protocol handshake, no state to record yet.

		case "start":
			if msg.Start == nil {
				continue
			}
			params := startParamsFrom(msg.Start)
			s.mu.Lock()
			s.state = StateStarted
			s.params = params
			s.mu.Unlock()

			logger.Base().Info("media stream started",
				zap.String("stream_sid", params.StreamSID),
				zap.String("call_sid", params.CallSID),
				zap.String("inquiry_id", params.InquiryID))
			go s.playGreeting(ctx, params)

		case "media":
			if msg.Media == nil || msg.Media.Payload == "" {
				continue
			}
			audio, err := base64.StdEncoding.DecodeString(msg.Media.Payload)
			if err != nil {
				continue
			}
			s.transcriber.Feed(audio)

		case "mark":
			if msg.Mark != nil && msg.Mark.Name == markGreetingDone {
				logger.Base().Debug("greeting playback confirmed",
					zap.String("stream_sid", s.Params().StreamSID))
			}

		case "stop":
			s.mu.Lock()
			s.state = StateStopped
			s.mu.Unlock()
			logger.Base().Info("media stream stopped",
				zap.String("stream_sid", s.Params().StreamSID))
			return
		}
	}
}

// Close tears the session down exactly once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.transcriber.Close()
		_ = s.ws.Close()
	})
}

// playGreeting streams the synthesized greeting into the call, then marks
// the end of playback. Synthesis failures degrade to a silent call rather
// than tearing the stream down.
func (s *Session) playGreeting(ctx context.Context, params StartParams) {
	if params.Greeting == "" || s.synth == nil || !s.synth.Enabled() {
		return
	}

	streamSID := params.StreamSID
	err := s.synth.Stream(ctx, params.Greeting, func(chunk []byte) error {
		return s.enqueue(streamMessage{
			Event:     "media",
			StreamSID: streamSID,
			Media:     &mediaPayload{Payload: base64.StdEncoding.EncodeToString(chunk)},
		})
	})
	if err != nil {
		logger.Base().Warn("greeting synthesis failed, continuing without audio",
			zap.String("stream_sid", streamSID), zap.Error(err))
		return
	}

	_ = s.enqueue(streamMessage{
		Event:     "mark",
		StreamSID: streamSID,
		Mark:      &markPayload{Name: markGreetingDone},
	})
}

func (s *Session) enqueue(msg any) error {
	select {
	case <-s.done:
		return websocket.ErrCloseSent
	case s.outbound <- msg:
		return nil
	}
}

// writeLoop is the single writer on the WebSocket.
func (s *Session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.outbound:
			if err := s.ws.WriteJSON(msg); err != nil {
				s.Close()
				return
			}
		}
	}
}

func startParamsFrom(start *startMessage) StartParams {
	params := StartParams{
		StreamSID:     start.StreamSID,
		CallSID:       start.CallSID,
		InquiryID:     start.CustomParams["inquiryId"],
		CustomerName:  start.CustomParams["customerName"],
		PreferredArea: start.CustomParams["preferredArea"],
		Budget:        start.CustomParams["budget"],
		Language:      start.CustomParams["language"],
	}
	// The greeting rides through TwiML URL-encoded; a value that fails to
	// decode is used as-is.
	if raw := start.CustomParams["greeting"]; raw != "" {
		if decoded, err := url.QueryUnescape(raw); err == nil {
			params.Greeting = decoded
		} else {
			params.Greeting = raw
		}
	}
	return params
}
