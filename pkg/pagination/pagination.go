package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Cursor points at the last item of a page ordered by (created_at, id).
type Cursor struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Time parses the cursor timestamp.
func (c Cursor) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, c.CreatedAt)
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode page token: %w", err)
	}
	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, fmt.Errorf("decode page token: %w", err)
	}
	if cursor.ID == "" {
		return nil, fmt.Errorf("decode page token: missing id")
	}
	if _, err := cursor.Time(); err != nil {
		return nil, fmt.Errorf("decode page token: %w", err)
	}
	return &cursor, nil
}

// ClampLimit returns limit bounded to [1, max], using max when limit is unset.
func ClampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
