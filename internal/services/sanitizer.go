package services

import (
	"regexp"
	"strings"

	"hirequiz/internal/config"
)

// FilteredMarker replaces every prompt-injection match. The match is annotated
// rather than deleted so a reviewer can see the input was tampered with.
const FilteredMarker = "[filtered]"

// injectionPatterns are replaced case-insensitively before any caller-supplied
// text is embedded in a prompt. The marker itself never re-matches any of
// these, which keeps SanitizeInput idempotent.
var injectionPatterns = []*regexp.Regexp{
	// instruction-override phrases
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)forget\s+everything\s+above`),
	regexp.MustCompile(`(?i)you\s+are\s+now`),
	regexp.MustCompile(`(?i)new\s+instructions`),
	// role-impersonation prefixes
	regexp.MustCompile(`(?i)\bsystem\s*:`),
	regexp.MustCompile(`(?i)\bassistant\s*:`),
	regexp.MustCompile(`(?i)\buser\s*:`),
	// script/URI injection
	regexp.MustCompile(`(?i)<\s*/?\s*script[^>]*>`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)data\s*:`),
}

// SanitizeInput neutralizes known prompt-injection patterns in caller-supplied
// text and bounds its length. Pure and total: it never fails and returns ""
// for empty input. Applied to every free-text field before prompt embedding.
func SanitizeInput(input string) string {
	if input == "" {
		return ""
	}

	result := strings.TrimSpace(input)

	// Remove null bytes and control characters, keeping tab/newline/CR.
	var b strings.Builder
	b.Grow(len(result))
	for i := 0; i < len(result); i++ {
		c := result[i]
		if c < 32 && c != 9 && c != 10 && c != 13 {
			continue
		}
		b.WriteByte(c)
	}
	result = b.String()

	for _, pattern := range injectionPatterns {
		result = pattern.ReplaceAllString(result, FilteredMarker)
	}

	if len(result) > config.MaxSanitizedInputLength {
		result = strings.TrimSpace(result[:config.MaxSanitizedInputLength])
	}

	return result
}

// sanitizeAll applies SanitizeInput to every element of a string slice.
func sanitizeAll(inputs []string) []string {
	if len(inputs) == 0 {
		return nil
	}
	out := make([]string, 0, len(inputs))
	for _, s := range inputs {
		out = append(out, SanitizeInput(s))
	}
	return out
}
