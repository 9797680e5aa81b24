package domain

import (
	"strings"
	"unicode"
)

const (
	AuthMethodLocal  = "local"
	AuthMethodGoogle = "google"

	MaxEmailLen    = 50
	MaxUsernameLen = 50
)

// IsEmailIdentifier decides how a login identifier is looked up.
func IsEmailIdentifier(identifier string) bool {
	return strings.Contains(identifier, "@")
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// StrongPassword requires at least 8 characters with a lower case letter,
// an upper case letter, a digit and one of !@#$%^&*.
func StrongPassword(p string) bool {
	if len(p) < 8 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune("!@#$%^&*", r):
			special = true
		}
	}
	return lower && upper && digit && special
}

// UsernameFromEmail derives a username candidate for social sign-ups.
func UsernameFromEmail(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	var b strings.Builder
	for _, r := range local {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > MaxUsernameLen-9 {
		out = out[:MaxUsernameLen-9]
	}
	if len(out) < 3 {
		out = "user" + out
	}
	return out
}
