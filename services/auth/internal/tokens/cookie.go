package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"
)

type CookieConfig struct {
	RefreshName   string
	AccessName    string
	AccessEnabled bool
	Domain        string
	Secure        bool
}

func CreateCookie(cfg CookieConfig, name, value string, ttl time.Duration, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  now.Add(ttl),
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// DeleteCookie clears name with the same attributes it was set with.
func DeleteCookie(cfg CookieConfig, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Sha256Hex is the at-rest form of refresh tokens.
func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
