package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testHash(t *testing.T, secret string) string {
	t.Helper()
	hash, err := HashSecret(secret, bcrypt.MinCost)
	require.NoError(t, err)
	return hash
}

func TestNewPreviewConfig_DefaultValues(t *testing.T) {
	t.Setenv("PREVIEW_TOKEN_SECRET", "token-secret")
	t.Setenv("PREVIEW_SECRET_HASH", testHash(t, "editor"))
	t.Setenv("PREVIEW_EXPIRATION_MINUTES", "")

	cfg, err := NewPreviewConfig()
	require.NoError(t, err)
	assert.Equal(t, "token-secret", cfg.TokenSecret)
	assert.Equal(t, 60, cfg.ExpirationMinutes, "should use default expiration of 60 minutes")
	assert.True(t, PreviewConfigured())
}

func TestNewPreviewConfig_CustomExpiration(t *testing.T) {
	t.Setenv("PREVIEW_TOKEN_SECRET", "token-secret")
	t.Setenv("PREVIEW_SECRET_HASH", testHash(t, "editor"))
	t.Setenv("PREVIEW_EXPIRATION_MINUTES", "15")

	cfg, err := NewPreviewConfig()
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.ExpirationMinutes)
}

func TestNewPreviewConfig_Errors(t *testing.T) {
	hash := testHash(t, "editor")

	tests := []struct {
		name       string
		secret     string
		hash       string
		expiration string
		wantErr    string
	}{
		{"missing token secret", "", hash, "", "PREVIEW_TOKEN_SECRET"},
		{"missing hash", "s", "", "", "PREVIEW_SECRET_HASH is required"},
		{"hash not bcrypt", "s", "plain-text", "", "not a bcrypt hash"},
		{"expiration not a number", "s", hash, "abc", "invalid PREVIEW_EXPIRATION_MINUTES"},
		{"expiration too small", "s", hash, "0", "at least 1 minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PREVIEW_TOKEN_SECRET", tt.secret)
			t.Setenv("PREVIEW_SECRET_HASH", tt.hash)
			t.Setenv("PREVIEW_EXPIRATION_MINUTES", tt.expiration)

			_, err := NewPreviewConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPreviewConfig_VerifySecret(t *testing.T) {
	cfg := &PreviewConfig{TokenSecret: "x", SecretHash: testHash(t, "correct horse"), ExpirationMinutes: 60}

	assert.True(t, cfg.VerifySecret("correct horse"))
	assert.False(t, cfg.VerifySecret("wrong"))
	assert.False(t, cfg.VerifySecret(""))
}

func TestHashSecret_Empty(t *testing.T) {
	_, err := HashSecret("", bcrypt.MinCost)
	assert.Error(t, err)
}
