// Package validation provides input validation utilities
package validation

import (
	"regexp"
	"strings"
	"unicode"

	"pronet/internal/models"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	digitRegex   = regexp.MustCompile(`[0-9]`)
	specialRegex = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
)

// ValidatePassword checks if a password meets security requirements.
func ValidatePassword(password string) error {
	if len(password) < 12 {
		return models.NewValidationError("Password must be at least 12 characters long")
	}
	if len(password) > 128 {
		return models.NewValidationError("Password must not exceed 128 characters")
	}

	hasUpper := false
	hasLower := false
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	if !hasUpper {
		return models.NewValidationError("Password must contain at least one uppercase letter")
	}
	if !hasLower {
		return models.NewValidationError("Password must contain at least one lowercase letter")
	}
	if !digitRegex.MatchString(password) {
		return models.NewValidationError("Password must contain at least one digit")
	}
	if !specialRegex.MatchString(password) {
		return models.NewValidationError("Password must contain at least one special character (!@#$%^&*)")
	}

	return nil
}

// ValidateEmail checks basic email format.
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return models.NewValidationError("Email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return models.NewValidationError("Invalid email format")
	}
	return nil
}

// ValidateFullName checks display name requirements.
func ValidateFullName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 2 {
		return models.NewValidationError("Name must be at least 2 characters long")
	}
	if len(trimmed) > 100 {
		return models.NewValidationError("Name must not exceed 100 characters")
	}
	return nil
}
