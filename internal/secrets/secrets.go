package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const opaqueTokenSize = 32

// NewOpaqueToken returns a URL-safe random secret with 256 bits of entropy.
func NewOpaqueToken() (string, error) {
	raw := make([]byte, opaqueTokenSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("secrets: rand.Read failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
