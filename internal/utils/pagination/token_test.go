package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	createdAt := time.Date(2026, 5, 15, 14, 30, 45, 123456789, time.UTC)

	token := EncodeToken(createdAt, "grp_42")
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedAt, decodedID, err := DecodeToken(token)
	require.NoError(t, err)
	assert.True(t, createdAt.Equal(decodedAt), "Created at should match after decode")
	assert.Equal(t, "grp_42", decodedID)

	// Non-UTC times round-trip to the same instant
	local := time.Date(2026, 5, 15, 10, 0, 0, 0, time.FixedZone("X", -4*3600))
	decodedAt, _, err = DecodeToken(EncodeToken(local, "a"))
	require.NoError(t, err)
	assert.True(t, local.Equal(decodedAt))
}

func TestDecodeToken_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "%%%"},
		{"missing separator", base64.URLEncoding.EncodeToString([]byte("2026-01-01T00:00:00Z"))},
		{"empty id", base64.URLEncoding.EncodeToString([]byte("2026-01-01T00:00:00Z|"))},
		{"bad time", base64.URLEncoding.EncodeToString([]byte("yesterday|grp_1"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestAfter(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, After(base.Add(-time.Second), "z", base, "a"))
	assert.False(t, After(base.Add(time.Second), "a", base, "z"))
	assert.True(t, After(base, "a", base, "b"))
	assert.False(t, After(base, "b", base, "b"))
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, 20, NormalizeLimit(0, 20, 100))
	assert.Equal(t, 20, NormalizeLimit(-5, 20, 100))
	assert.Equal(t, 100, NormalizeLimit(500, 20, 100))
	assert.Equal(t, 7, NormalizeLimit(7, 20, 100))
}
