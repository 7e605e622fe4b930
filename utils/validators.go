package utils

import (
	"regexp"
	"strings"
)

// emailPattern is deliberately loose; the mail relay is the final arbiter
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValidEmail reports whether the string looks like an email address
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeEmail lowercases and trims an email address so lookups against
// the unique email column behave case-insensitively
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
