// internal/app/system/authutil/authutil.go
// Package authutil provides password hashing and credential validation
// for admin accounts.
package authutil

import (
	"errors"
	"strings"
)

// Credential validation errors
var (
	ErrEmailRequired = errors.New("Email is required.")
	ErrInvalidEmail  = errors.New("Please enter a valid email address.")
)

// IsValidEmail performs a basic email format validation.
// It checks for the presence of @ and at least one character on each side.
func IsValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	if len(parts[0]) == 0 {
		return false
	}
	// Domain must contain at least one dot that is neither first nor last.
	domain := parts[1]
	dotIdx := strings.LastIndex(domain, ".")
	if dotIdx < 1 || dotIdx >= len(domain)-1 {
		return false
	}
	return true
}

// ValidateEmail returns an error describing why email is unusable, or nil.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if !IsValidEmail(email) {
		return ErrInvalidEmail
	}
	return nil
}
