// Package env reads CAFEPOS_ variables before the full configuration is loaded, e.g.
// while the bootstrap logger is being built.
package env

import (
	"os"
	"strconv"
	"strings"
)

const prefix = "CAFEPOS_"

// Name returns the prefixed variable name for key.
func Name(key string) string {
	key = strings.ToUpper(strings.TrimSpace(key))
	if strings.HasPrefix(key, prefix) {
		return key
	}
	return prefix + key
}

// String returns the trimmed value of key, or fallback when it is blank.
func String(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(Name(key))); val != "" {
		return val
	}
	return fallback
}

// Bool returns fallback when key is unset or not a boolean.
func Bool(key string, fallback bool) bool {
	val, err := strconv.ParseBool(String(key, ""))
	if err != nil {
		return fallback
	}
	return val
}
