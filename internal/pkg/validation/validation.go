package validation

import (
	"regexp"
	"unicode"
)

// Identity: starts with a letter or digit, then letters, digits, '.', '_', ':' or '-', at most 128 characters.
var identityRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:\-]{0,127}$`)

func IsValidIdentity(identity string) bool {
	return identityRe.MatchString(identity)
}

// IsValidSecret requires:
// - at least 8 characters
// - at least one letter
// - at least one number
// - at least one special character
func IsValidSecret(secret string) bool {
	if len(secret) < 8 {
		return false
	}
	hasLetter, hasDigit, hasSpecial := false, false, false
	for _, r := range secret {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}
