// Package admin manages the single administrator identity of a gallery.
//
// This package handles:
//   - Password hashing and verification using bcrypt
//   - The persisted credential record and its first-run seeding
//   - Migration of pre-bcrypt verifiers
//   - The password-change policy
//
// # Security
//
// Passwords are hashed using bcrypt with a cost factor of 12, a deliberately
// high work factor for an interactive admin login. The bcrypt algorithm is
// resistant to brute force attacks and includes its own salt.
//
// There is exactly one admin identity per gallery; there is no multi-user
// model and the record is never deleted, only rotated.
package admin

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing.
	// Each increment doubles the time required to hash a password.
	BcryptCost = 12
)

// HashPassword hashes a plain-text password using bcrypt.
//
// The bcrypt algorithm automatically generates a salt and includes it in
// the returned hash. The hash can be stored directly in the credential
// record.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword verifies a plain-text password against a bcrypt hash.
//
// This function uses bcrypt's constant-time comparison to prevent timing
// attacks. Returns nil if the password matches, or an error if it doesn't.
func VerifyPassword(password string, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// IsBcryptHash reports whether verifier looks like a bcrypt hash.
// Anything else is a pre-bcrypt verifier left over from an old install
// and must be rotated.
func IsBcryptHash(verifier string) bool {
	return strings.HasPrefix(verifier, "$2") && len(verifier) >= 60
}
