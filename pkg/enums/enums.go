// Package enums holds the string enums stored in the database and sent on the wire.
// Tokens are lowercase and matched exactly.
package enums

import (
	"fmt"
	"slices"
)

func parse[T ~string](kind, value string, known []T) (T, error) {
	if v := T(value); slices.Contains(known, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, value)
}

func names[T ~string](known []T) []string {
	out := make([]string, len(known))
	for i, v := range known {
		out[i] = string(v)
	}
	return out
}
