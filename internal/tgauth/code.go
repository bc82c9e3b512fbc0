package tgauth

import (
	"crypto/rand"
	"fmt"
)

const handoffCodeBytes = 32

// RandomHandoffCode returns an unguessable URL-safe one-time code
func RandomHandoffCode() (string, error) {
	buf := make([]byte, handoffCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64URL(buf), nil
}
