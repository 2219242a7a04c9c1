package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSynthesizer struct {
	chunks [][]byte
	err    error

	mu       sync.Mutex
	lastText string
}

func (f *fakeSynthesizer) Enabled() bool { return true }

func (f *fakeSynthesizer) Stream(ctx context.Context, text string, onChunk func([]byte) error) error {
	f.mu.Lock()
	f.lastText = text
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, chunk := range f.chunks {
		if err := onChunk(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSynthesizer) text() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastText
}

type recordingTranscriber struct {
	mu     sync.Mutex
	audio  []byte
	closed bool
}

func (r *recordingTranscriber) Feed(chunk []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audio = append(r.audio, chunk...)
}

func (r *recordingTranscriber) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *recordingTranscriber) recorded() ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.audio...), r.closed
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// dialSession spins up a server-side session and returns the client side of
// the stream plus a channel carrying the session once it finishes.
func dialSession(t *testing.T, synth Synthesizer, transcriber Transcriber) (*websocket.Conn, <-chan *Session) {
	t.Helper()

	sessionCh := make(chan *Session, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		session := NewSession(ws, synth, transcriber)
		session.Run(r.Context())
		sessionCh <- session
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn, sessionCh
}

func sendEvent(t *testing.T, conn *websocket.Conn, event map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(event))
}

func readEvent(t *testing.T, conn *websocket.Conn) streamMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg streamMessage
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func startEvent(greeting string) map[string]any {
	return map[string]any{
		"event": "start",
		"start": map[string]any{
			"streamSid": "MZ123",
			"callSid":   "CA123",
			"customParameters": map[string]string{
				"inquiryId":     "inq-1",
				"customerName":  "Rahul",
				"preferredArea": "Baner",
				"budget":        "80L",
				"language":      "hindi",
				"greeting":      greeting,
			},
		},
	}
}

func TestSessionPlaysGreetingAndMarks(t *testing.T) {
	synth := &fakeSynthesizer{chunks: [][]byte{[]byte("abc"), []byte("def")}}
	conn, sessionCh := dialSession(t, synth, nil)

	sendEvent(t, conn, map[string]any{"event": "connected"})
	sendEvent(t, conn, startEvent("Namaste%21+Kya+main+Rahul+ji+se+baat+kar+rahi+hoon%3F"))

	first := readEvent(t, conn)
	assert.Equal(t, "media", first.Event)
	assert.Equal(t, "MZ123", first.StreamSID)
	require.NotNil(t, first.Media)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("abc")), first.Media.Payload)

	second := readEvent(t, conn)
	assert.Equal(t, "media", second.Event)

	mark := readEvent(t, conn)
	assert.Equal(t, "mark", mark.Event)
	require.NotNil(t, mark.Mark)
	assert.Equal(t, "tts_complete", mark.Mark.Name)

	// The greeting arrives URL-decoded at the synthesizer.
	assert.Equal(t, "Namaste! Kya main Rahul ji se baat kar rahi hoon?", synth.text())

	sendEvent(t, conn, map[string]any{"event": "stop"})
	session := <-sessionCh
	assert.Equal(t, StateStopped, session.State())
	assert.Equal(t, "inq-1", session.Params().InquiryID)
	assert.Equal(t, "Baner", session.Params().PreferredArea)
}

func TestSessionFeedsCallerAudioToTranscriber(t *testing.T) {
	transcriber := &recordingTranscriber{}
	conn, sessionCh := dialSession(t, &fakeSynthesizer{}, transcriber)

	sendEvent(t, conn, startEvent(""))
	sendEvent(t, conn, map[string]any{
		"event": "media",
		"media": map[string]string{"payload": base64.StdEncoding.EncodeToString([]byte("caller-audio"))},
	})
	sendEvent(t, conn, map[string]any{"event": "stop"})

	<-sessionCh
	audio, closed := transcriber.recorded()
	assert.Equal(t, "caller-audio", string(audio))
	assert.True(t, closed, "transcriber must be closed on teardown")
}

func TestSessionSurvivesSynthesisFailure(t *testing.T) {
	synth := &fakeSynthesizer{err: errors.New("provider down")}
	conn, sessionCh := dialSession(t, synth, nil)

	sendEvent(t, conn, startEvent("Hello%21"))

	// No audio arrives; the stream stays up until Twilio stops it.
	sendEvent(t, conn, map[string]any{"event": "stop"})
	session := <-sessionCh
	assert.Equal(t, StateStopped, session.State())
}

func TestSessionClosesOnClientDisconnect(t *testing.T) {
	conn, sessionCh := dialSession(t, &fakeSynthesizer{}, nil)

	sendEvent(t, conn, startEvent(""))
	require.NoError(t, conn.Close())

	select {
	case session := <-sessionCh:
		assert.Equal(t, StateStarted, session.State())
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate after client disconnect")
	}
}
