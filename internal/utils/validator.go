package utils

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^[0-9+\-]{5,20}$`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePhone validates a phone number (digits, plus and dashes, 5-20 chars)
func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizePhone sanitizes a phone number
func SanitizePhone(phone string) string {
	return strings.TrimSpace(phone)
}
