package util

import (
	"os"
	"strconv"
)

// EnvOrDefault returns the environment variable value or fallback when it is empty.
func EnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// EnvOrDefaultInt returns the environment variable parsed as an int, or
// fallback when it is empty or unparsable.
func EnvOrDefaultInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

// EnvOrDefaultFloat returns the environment variable parsed as a float64,
// or fallback when it is empty or unparsable.
func EnvOrDefaultFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
