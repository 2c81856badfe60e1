package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 123, time.UTC)
	token, err := EncodeCursor(Cursor{ID: "a_b", CreatedAt: ts.Format(time.RFC3339Nano)})
	require.NoError(t, err)

	c, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "a_b", c.ID)
	got, err := c.Time()
	require.NoError(t, err)
	assert.True(t, got.Equal(ts))
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{"!!!", "bm90LWpzb24", "e30"} {
		_, err := DecodeCursor(token)
		assert.Error(t, err, token)
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 100, ClampLimit(0, 100))
	assert.Equal(t, 100, ClampLimit(500, 100))
	assert.Equal(t, 25, ClampLimit(25, 100))
	assert.Equal(t, 100, ClampLimit(-3, 100))
}
