package prompts

import (
	"testing"

	"github.com/purvaestates/voice-call-service/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestScriptsInterpolateClientContext(t *testing.T) {
	in := ScriptInput{
		CustomerName:  "Rahul Sharma",
		PreferredArea: "Baner",
		Budget:        "80L-1Cr",
	}

	for _, lang := range []domain.Language{domain.LanguageHindi, domain.LanguageEnglish, domain.LanguageMarathi} {
		system := SystemPrompt(lang, in)
		greeting := Greeting(lang, in)

		assert.Contains(t, system, "Rahul Sharma", "system prompt for %s", lang)
		assert.Contains(t, system, "Baner", "system prompt for %s", lang)
		assert.Contains(t, system, "80L-1Cr", "system prompt for %s", lang)
		assert.Contains(t, greeting, "Rahul Sharma", "greeting for %s", lang)
		assert.Contains(t, greeting, "Baner", "greeting for %s", lang)
	}
}

func TestUnknownLanguageFallsBackToDefault(t *testing.T) {
	in := ScriptInput{CustomerName: "Asha", PreferredArea: "Wakad"}

	assert.Equal(t, SystemPrompt(domain.DefaultLanguage, in), SystemPrompt(domain.Language("tamil"), in))
	assert.Equal(t, Greeting(domain.DefaultLanguage, in), Greeting(domain.Language("tamil"), in))
}

func TestScriptDefaults(t *testing.T) {
	system := SystemPrompt(domain.LanguageEnglish, ScriptInput{})
	greeting := Greeting(domain.LanguageHindi, ScriptInput{})

	assert.Contains(t, system, DefaultCustomerName)
	assert.Contains(t, system, "Not specified")
	assert.Contains(t, system, "Flexible")
	assert.Contains(t, greeting, DefaultCustomerName)
	// No area sentence when the lead never named one.
	assert.NotContains(t, greeting, "interest dikhaya")
}
