package contextutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocale(t *testing.T) {
	tests := []struct {
		input    string
		expected Locale
	}{
		{"it", LocaleItalian},
		{"it-IT", LocaleItalian},
		{"IT", LocaleItalian},
		{"en-US", LocaleEnglish},
		{"fr-CA", LocaleFrench},
		{"", LocaleEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLocale(tt.input))
		})
	}
}

func TestGetLocalizedMessage_Italian(t *testing.T) {
	msg := GetLocalizedMessage(ErrorCodeGenerationFailed, LocaleItalian)
	assert.Equal(t, "La generazione delle domande non è riuscita. Riprova più tardi.", msg)
}

func TestGetLocalizedMessage_FallsBackToEnglish(t *testing.T) {
	// German has no dedicated messages; the English text is served instead.
	msg := GetLocalizedMessage(ErrorCodeTimeout, LocaleGerman)
	assert.Equal(t, "The request took too long. Please try again.", msg)
}

func TestGetLocalizedMessage_UnknownCodeUsesDefault(t *testing.T) {
	msg := GetLocalizedMessage(ErrorCode("NO_SUCH_CODE"), LocaleItalian)
	assert.Equal(t, "An error occurred", msg)
}

func TestLocalizedMessages_LoadFromJSON(t *testing.T) {
	lm := NewLocalizedMessages()
	err := lm.LoadMessagesFromJSON(`{"GENERATION_FAILED": {"es": "La generación falló"}}`)
	require.NoError(t, err)
	assert.Equal(t, "La generación falló", lm.GetMessage(ErrorCodeGenerationFailed, LocaleSpanish))
}

func TestLocalizedMessages_LoadFromJSON_Invalid(t *testing.T) {
	lm := NewLocalizedMessages()
	assert.Error(t, lm.LoadMessagesFromJSON(`not json`))
}

func TestGetErrorLocalizedMessage(t *testing.T) {
	err := WrapError(ErrContentFiltered, "refused")
	assert.Equal(t, "Il contenuto richiesto non può essere generato.", GetErrorLocalizedMessage(err, "it-IT"))
}
