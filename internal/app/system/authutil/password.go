// internal/app/system/authutil/password.go
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 128

	// BcryptCost is deliberately above the library default.
	BcryptCost = 12
)

var (
	ErrPasswordTooShort = errors.New("Password must be at least 6 characters.")
	ErrPasswordTooLong  = errors.New("Password must be less than 128 characters.")
	ErrPasswordCommon   = errors.New("This password is too common. Please choose a different one.")
)

// denylist of passwords that show up at the top of every breach corpus.
// Matched case-insensitively after the length checks pass.
var denylist = func() map[string]struct{} {
	words := []string{
		"123456", "1234567", "12345678", "123456789",
		"password", "password1", "qwerty", "qwerty123",
		"abc123", "abcdef", "111111", "000000", "123123", "654321",
		"iloveyou", "monkey", "dragon", "master", "letmein",
		"welcome", "login", "admin", "princess", "sunshine",
		"football", "baseball", "soccer", "hockey",
		"batman", "superman",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// PasswordRules describes the rules for display on admin account forms.
func PasswordRules() string {
	return "Password must be at least 6 characters and cannot be a common password like \"123456\" or \"password\"."
}

// ValidatePassword reports whether a candidate password is acceptable
// for an admin account. Length is checked before the denylist, so a
// short common password reports ErrPasswordTooShort.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if _, banned := denylist[strings.ToLower(password)]; banned {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword hashes a password with bcrypt at BcryptCost. Callers
// validate with ValidatePassword first.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plain-text password matches the
// stored bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
