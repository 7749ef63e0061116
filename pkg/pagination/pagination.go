// Package pagination implements opaque keyset cursors for list endpoints.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

const (
	kindTime = "t"
	kindKey  = "k"
)

// Params holds cursor pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor orders rows newest first by creation time, id breaking ties.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// KeyCursor orders rows by a text sort key with the id as tie-breaker.
type KeyCursor struct {
	Key string
	ID  uuid.UUID
}

// NormalizeLimit enforces the default and maximum page sizes.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NextPage trims rows fetched with a limit of pageSize+1. When the extra row is present
// the page is cut to pageSize and the cursor of its last row is returned.
func NextPage[T any](rows []T, pageSize int, cursorOf func(T) string) ([]T, string) {
	if len(rows) <= pageSize {
		return rows, ""
	}
	rows = rows[:pageSize]
	return rows, cursorOf(rows[len(rows)-1])
}

func EncodeCursor(c Cursor) string {
	return encode(kindTime, c.CreatedAt.UTC().Format(time.RFC3339Nano), c.ID.String())
}

// ParseCursor decodes a cursor from EncodeCursor. A blank value means the first page.
func ParseCursor(value string) (*Cursor, error) {
	parts, err := decode(value, kindTime, 2)
	if err != nil || parts == nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: t, ID: id}, nil
}

func EncodeKeyCursor(c KeyCursor) string {
	return encode(kindKey, c.ID.String(), c.Key)
}

// ParseKeyCursor decodes a cursor from EncodeKeyCursor. The key may itself contain "|".
func ParseKeyCursor(value string) (*KeyCursor, error) {
	parts, err := decode(value, kindKey, 2)
	if err != nil || parts == nil {
		return nil, err
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &KeyCursor{Key: parts[1], ID: id}, nil
}

func encode(kind string, parts ...string) string {
	payload := kind + "|" + strings.Join(parts, "|")
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

func decode(value, kind string, n int) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", n+1)
	if len(parts) != n+1 || parts[0] != kind {
		return nil, fmt.Errorf("invalid cursor format")
	}
	return parts[1:], nil
}
