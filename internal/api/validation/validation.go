package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const DateLayout = "2006-01-02"

var (
	// EmailRegex validates email format
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// digits with optional +, spaces, dots, dashes and parentheses
	phoneRegex = regexp.MustCompile(`^\+?[0-9 ().\-]+$`)
)

// IsValidEmail checks if the string is a valid email format
func IsValidEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

// IsValidPhone checks that the string looks like a phone number and has at
// least one digit.
func IsValidPhone(phone string) bool {
	if !phoneRegex.MatchString(phone) {
		return false
	}
	return strings.ContainsFunc(phone, unicode.IsDigit)
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MaxLen reports whether s has at most n characters.
func MaxLen(s string, n int) bool {
	return utf8.RuneCountInString(s) <= n
}

// SanitizeString removes potentially dangerous characters for display
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	// Remove control characters except newlines and tabs
	var result strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// Errors collects per-field validation messages.
type Errors map[string]string

// Required records msg for field when value is blank.
func (e Errors) Required(field, value, msg string) bool {
	if strings.TrimSpace(value) == "" {
		e[field] = msg
		return false
	}
	return true
}

// Length records a message for field when value exceeds n characters.
func (e Errors) Length(field, value string, n int, msg string) bool {
	if !MaxLen(value, n) {
		e[field] = msg
		return false
	}
	return true
}
