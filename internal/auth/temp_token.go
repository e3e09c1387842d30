package auth

import (
	"crypto/rand"
	"fmt"
)

const tempTokenLength = 40

const tempTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateTemporaryToken mints the short-lived opaque value that carries
// state between a failed social-login match and the follow-up
// registration/confirmation step.
func GenerateTemporaryToken() (string, error) {
	bytes := make([]byte, tempTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate temporary token: %w", err)
	}

	for i, b := range bytes {
		bytes[i] = tempTokenAlphabet[int(b)%len(tempTokenAlphabet)]
	}

	return string(bytes), nil
}
