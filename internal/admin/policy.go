package admin

import (
	"errors"
	"unicode"
)

// MinPasswordLength is the hard minimum for a new admin password.
const MinPasswordLength = 8

var (
	ErrPasswordTooShort = errors.New("le mot de passe doit contenir au moins 8 caractères")
	ErrPasswordMismatch = errors.New("les mots de passe ne correspondent pas")

	// ErrPasswordWeak means the password is accepted only with an
	// explicit override from the user.
	ErrPasswordWeak = errors.New("mot de passe faible: utilisez majuscules, minuscules et chiffres")
)

// CheckNewPassword validates a password-change request.
//
// Length below MinPasswordLength and a confirmation mismatch are hard
// rejections. A password missing an uppercase letter, a lowercase letter
// or a digit is weak but allowed: the first call returns ErrPasswordWeak,
// and the caller retries with allowWeak=true once the user has confirmed.
func CheckNewPassword(password, confirmation string, allowWeak bool) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if password != confirmation {
		return ErrPasswordMismatch
	}
	if !allowWeak && !isStrong(password) {
		return ErrPasswordWeak
	}
	return nil
}

func isStrong(password string) bool {
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
