package config

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// PreviewConfig holds configuration for preview sessions.
type PreviewConfig struct {
	TokenSecret       string // HMAC key for preview session tokens
	SecretHash        string // bcrypt hash of the secret editors present to enter preview
	ExpirationMinutes int
}

// NewPreviewConfig creates a preview configuration from environment variables.
// It reads PREVIEW_TOKEN_SECRET and PREVIEW_SECRET_HASH (both required) and
// PREVIEW_EXPIRATION_MINUTES (default: 60).
func NewPreviewConfig() (*PreviewConfig, error) {
	expirationStr := os.Getenv("PREVIEW_EXPIRATION_MINUTES")
	if expirationStr == "" {
		expirationStr = "60" // default
	}

	expiration, err := strconv.Atoi(expirationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PREVIEW_EXPIRATION_MINUTES: %v", err)
	}

	config := &PreviewConfig{
		TokenSecret:       os.Getenv("PREVIEW_TOKEN_SECRET"),
		SecretHash:        os.Getenv("PREVIEW_SECRET_HASH"),
		ExpirationMinutes: expiration,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// PreviewConfigured reports whether preview sessions are configured in the environment.
func PreviewConfigured() bool {
	return os.Getenv("PREVIEW_SECRET_HASH") != ""
}

// normalize validates the configuration.
func (c *PreviewConfig) normalize() error {
	if c.TokenSecret == "" {
		return fmt.Errorf("PREVIEW_TOKEN_SECRET is required but not set")
	}
	if c.SecretHash == "" {
		return fmt.Errorf("PREVIEW_SECRET_HASH is required but not set")
	}
	if _, err := bcrypt.Cost([]byte(c.SecretHash)); err != nil {
		return fmt.Errorf("PREVIEW_SECRET_HASH is not a bcrypt hash: %v", err)
	}
	if c.ExpirationMinutes < 1 {
		return fmt.Errorf("PREVIEW_EXPIRATION_MINUTES must be at least 1 minute, got: %d", c.ExpirationMinutes)
	}
	return nil
}

// VerifySecret reports whether secret matches the configured hash.
func (c *PreviewConfig) VerifySecret(secret string) bool {
	if secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.SecretHash), []byte(secret)) == nil
}

// HashSecret hashes a preview secret for PREVIEW_SECRET_HASH.
func HashSecret(secret string, cost int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("secret is empty")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}
