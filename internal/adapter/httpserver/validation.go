package httpserver

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

var validIdent = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateUserID validates a user identifier from the URL path.
func ValidateUserID(userID string) ValidationResult {
	if userID == "" {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "user_id", Code: "REQUIRED", Message: "User ID is required"},
			},
		}
	}
	if len(userID) > 100 {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "user_id", Code: "TOO_LONG", Message: "User ID is too long (max 100 characters)"},
			},
		}
	}
	if !validIdent.MatchString(userID) {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "user_id", Code: "INVALID_FORMAT", Message: "User ID contains invalid characters"},
			},
		}
	}
	return ValidationResult{Valid: true}
}

// ValidateSessionID validates an interview session id from the URL path.
func ValidateSessionID(id string) ValidationResult {
	if id == "" || len(id) > 100 || !validIdent.MatchString(id) {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{Field: "id", Code: "INVALID_FORMAT", Message: "Session ID is missing or malformed"},
			},
		}
	}
	return ValidationResult{Valid: true}
}

// SanitizeString sanitizes a string input
func SanitizeString(input string) string {
	// Remove null bytes and control characters
	input = strings.ReplaceAll(input, "\x00", "")

	// Trim whitespace
	input = strings.TrimSpace(input)

	// Limit length to prevent DoS
	if len(input) > 4000 {
		input = input[:4000]
	}

	// Ensure valid UTF-8
	if !utf8.ValidString(input) {
		input = strings.ToValidUTF8(input, "")
	}

	return input
}
