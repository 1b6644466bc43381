// File: internal/platform/crypto/generator.go
package crypto

import (
	"crypto/rand"
	"fmt"
)

// SigningKey returns n random bytes for use as an HMAC key.
func SigningKey(n int) ([]byte, error) {
	if n < 32 {
		return nil, fmt.Errorf("signing key must be at least 32 bytes, got %d", n)
	}
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return key, nil
}
