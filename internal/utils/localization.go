package contextutils

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Locale represents a language locale (e.g., "en", "it")
type Locale string

const (
	// LocaleEnglish represents English language
	LocaleEnglish Locale = "en"
	// LocaleItalian represents Italian language
	LocaleItalian Locale = "it"
	// LocaleSpanish represents Spanish language
	LocaleSpanish Locale = "es"
	// LocaleFrench represents French language
	LocaleFrench Locale = "fr"
	// LocaleGerman represents German language
	LocaleGerman Locale = "de"
)

// LocalizedMessages contains localized error messages for different locales
type LocalizedMessages struct {
	messages map[ErrorCode]map[Locale]string
}

// NewLocalizedMessages creates a new instance of localized messages
func NewLocalizedMessages() *LocalizedMessages {
	return &LocalizedMessages{
		messages: make(map[ErrorCode]map[Locale]string),
	}
}

// AddMessage adds a localized message for a specific error code and locale
func (lm *LocalizedMessages) AddMessage(code ErrorCode, locale Locale, message string) {
	if lm.messages[code] == nil {
		lm.messages[code] = make(map[Locale]string)
	}
	lm.messages[code][locale] = message
}

// GetMessage returns the localized message for an error code and locale
func (lm *LocalizedMessages) GetMessage(code ErrorCode, locale Locale) string {
	if localeMessages, exists := lm.messages[code]; exists {
		if message, exists := localeMessages[locale]; exists {
			return message
		}

		// Fallback to English if the specific locale doesn't have a message
		if message, exists := localeMessages[LocaleEnglish]; exists {
			return message
		}
	}

	return getDefaultMessage(code)
}

// GetMessageWithDetails returns a localized message with additional details
func (lm *LocalizedMessages) GetMessageWithDetails(code ErrorCode, locale Locale, details string) string {
	message := lm.GetMessage(code, locale)
	if details != "" {
		return fmt.Sprintf("%s: %s", message, details)
	}
	return message
}

// getDefaultMessage returns a default English message for error codes
func getDefaultMessage(code ErrorCode) string {
	switch code {
	case ErrorCodeGenerationFailed:
		return "Question generation failed"
	case ErrorCodeModelUnavailable:
		return "AI model unavailable"
	case ErrorCodeTimeout:
		return "Request timeout"
	case ErrorCodeInvalidResponse:
		return "AI response invalid"
	case ErrorCodeRateLimited:
		return "Rate limit exceeded"
	case ErrorCodeContentFiltered:
		return "Content was filtered by the provider"
	case ErrorCodeQuotaExceeded:
		return "Usage quota exceeded"
	case ErrorCodeInvalidInput:
		return "Invalid input"
	case ErrorCodeMissingRequired:
		return "Missing required field"
	case ErrorCodeValidationFailed:
		return "Validation failed"
	case ErrorCodePositionNotFound:
		return "Position not found"
	case ErrorCodeQuizNotFound:
		return "Quiz not found"
	case ErrorCodeServiceUnavailable:
		return "Service temporarily unavailable"
	case ErrorCodeProviderConfigInvalid:
		return "Provider configuration invalid"
	default:
		return "An error occurred"
	}
}

// LoadMessagesFromJSON loads localized messages from a JSON structure
func (lm *LocalizedMessages) LoadMessagesFromJSON(jsonData string) error {
	var data map[string]map[string]string
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		return WrapError(err, "failed to parse localization JSON")
	}

	for codeStr, localeMessages := range data {
		code := ErrorCode(codeStr)
		for localeStr, message := range localeMessages {
			lm.AddMessage(code, Locale(localeStr), message)
		}
	}

	return nil
}

// GetSupportedLocales returns a list of supported locales
func (lm *LocalizedMessages) GetSupportedLocales() []Locale {
	locales := make(map[Locale]bool)

	for _, localeMessages := range lm.messages {
		for locale := range localeMessages {
			locales[locale] = true
		}
	}

	result := make([]Locale, 0, len(locales))
	for locale := range locales {
		result = append(result, locale)
	}

	return result
}

// ParseLocale parses a locale string (e.g., "it-IT", "en-US") and returns the language part
func ParseLocale(localeStr string) Locale {
	parts := strings.Split(localeStr, "-")
	if len(parts) > 0 && parts[0] != "" {
		return Locale(strings.ToLower(parts[0]))
	}
	return LocaleEnglish
}

// Global instance of localized messages
var globalLocalizedMessages = NewLocalizedMessages()

// init loads the built-in message table. Italian is fully populated because it
// is the product's primary locale; other locales fall back to English.
func init() {
	it := map[ErrorCode]string{
		ErrorCodeGenerationFailed:      "La generazione delle domande non è riuscita. Riprova più tardi.",
		ErrorCodeModelUnavailable:      "Il modello AI non è al momento disponibile.",
		ErrorCodeTimeout:               "La richiesta ha impiegato troppo tempo. Riprova.",
		ErrorCodeInvalidResponse:       "Il modello AI ha restituito una risposta non valida.",
		ErrorCodeRateLimited:           "Troppe richieste. Attendi qualche istante e riprova.",
		ErrorCodeContentFiltered:       "Il contenuto richiesto non può essere generato.",
		ErrorCodeQuotaExceeded:         "La quota di utilizzo è stata superata.",
		ErrorCodeInvalidInput:          "I dati inseriti non sono validi.",
		ErrorCodeMissingRequired:       "Manca un campo obbligatorio.",
		ErrorCodeValidationFailed:      "La convalida dei dati non è riuscita.",
		ErrorCodePositionNotFound:      "Posizione non trovata.",
		ErrorCodeQuizNotFound:          "Quiz non trovato.",
		ErrorCodeServiceUnavailable:    "Il servizio non è al momento disponibile.",
		ErrorCodeInternalError:         "Si è verificato un errore interno.",
		ErrorCodeProviderConfigInvalid: "La configurazione del provider AI non è valida.",
	}
	for code, msg := range it {
		globalLocalizedMessages.AddMessage(code, LocaleItalian, msg)
	}

	globalLocalizedMessages.AddMessage(ErrorCodeGenerationFailed, LocaleEnglish, "Question generation failed. Please try again later.")
	globalLocalizedMessages.AddMessage(ErrorCodeModelUnavailable, LocaleEnglish, "The AI model is currently unavailable.")
	globalLocalizedMessages.AddMessage(ErrorCodeTimeout, LocaleEnglish, "The request took too long. Please try again.")
	globalLocalizedMessages.AddMessage(ErrorCodeInvalidResponse, LocaleEnglish, "The AI model returned an invalid response.")
	globalLocalizedMessages.AddMessage(ErrorCodeRateLimited, LocaleEnglish, "Too many requests. Please wait a moment and try again.")
	globalLocalizedMessages.AddMessage(ErrorCodeContentFiltered, LocaleEnglish, "The requested content cannot be generated.")
	globalLocalizedMessages.AddMessage(ErrorCodeQuotaExceeded, LocaleEnglish, "The usage quota has been exceeded.")
	globalLocalizedMessages.AddMessage(ErrorCodeInvalidInput, LocaleEnglish, "The submitted data is invalid.")
	globalLocalizedMessages.AddMessage(ErrorCodePositionNotFound, LocaleEnglish, "Position not found.")
	globalLocalizedMessages.AddMessage(ErrorCodeQuizNotFound, LocaleEnglish, "Quiz not found.")
	globalLocalizedMessages.AddMessage(ErrorCodeServiceUnavailable, LocaleEnglish, "The service is currently unavailable.")
	globalLocalizedMessages.AddMessage(ErrorCodeInternalError, LocaleEnglish, "An internal error occurred.")
}

// GetLocalizedMessage returns a localized error message using the global instance
func GetLocalizedMessage(code ErrorCode, locale Locale) string {
	return globalLocalizedMessages.GetMessage(code, locale)
}

// GetLocalizedMessageWithDetails returns a localized error message with details
func GetLocalizedMessageWithDetails(code ErrorCode, locale Locale, details string) string {
	return globalLocalizedMessages.GetMessageWithDetails(code, locale, details)
}

// SetGlobalLocalizedMessages sets the global localized messages instance
func SetGlobalLocalizedMessages(messages *LocalizedMessages) {
	globalLocalizedMessages = messages
}
