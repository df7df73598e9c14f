package contextutils

import "strings"

// MaskAPIKey redacts a provider API key for log output. Keys long enough to
// stay unguessable keep their first and last four characters; shorter keys
// are masked entirely.
func MaskAPIKey(apiKey string) string {
	switch {
	case apiKey == "":
		return "[EMPTY]"
	case len(apiKey) <= 8:
		return strings.Repeat("*", len(apiKey))
	default:
		return apiKey[:4] + strings.Repeat("*", len(apiKey)-8) + apiKey[len(apiKey)-4:]
	}
}
