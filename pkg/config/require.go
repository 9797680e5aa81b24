package config

import (
	"log/slog"
	"os"
)

func MustNonEmpty(value, envName string) {
	if value == "" {
		slog.Error("config_invalid", "reason", "missing required env", "env", envName)
		os.Exit(1)
	}
}

// MustSecret rejects signing secrets shorter than minLen bytes.
func MustSecret(value []byte, envName string, minLen int) {
	if len(value) == 0 {
		slog.Error("config_invalid", "reason", "missing required env", "env", envName)
		os.Exit(1)
	}
	if len(value) < minLen {
		slog.Error("config_invalid", "reason", "secret too short", "env", envName, "min_len", minLen)
		os.Exit(1)
	}
}
