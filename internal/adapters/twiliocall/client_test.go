package twiliocall

import (
	"testing"

	"github.com/purvaestates/voice-call-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientDisabledWithoutCredentials(t *testing.T) {
	client := NewClient(config.TwilioConfig{AccountSID: "AC"})
	assert.False(t, client.Enabled())

	_, err := client.PlaceCall(CallParams{To: "+919876543210"})
	assert.Error(t, err)
}

func TestConnectStreamTwiML(t *testing.T) {
	xml, err := connectStreamTwiML(CallParams{
		To:             "+919876543210",
		MediaStreamURL: "wss://calls.example.com/media-stream",
		InquiryID:      "inq-1",
		CustomerName:   "Rahul",
		PreferredArea:  "Baner",
		Budget:         "80L",
		Language:       "hindi",
		Greeting:       "Namaste! Kya aap free hain?",
	})
	require.NoError(t, err)

	assert.Contains(t, xml, "<Connect>")
	assert.Contains(t, xml, `url="wss://calls.example.com/media-stream"`)
	assert.Contains(t, xml, `name="inquiryId"`)
	assert.Contains(t, xml, `value="inq-1"`)
	assert.Contains(t, xml, `name="language"`)

	// The greeting is URL-encoded so punctuation survives the XML attribute.
	assert.Contains(t, xml, "Namaste%21+Kya+aap+free+hain%3F")
	assert.NotContains(t, xml, "Namaste! Kya")
}
