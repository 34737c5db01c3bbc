package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// RandomHex returns n bytes from crypto/rand as 2n hex characters.
func RandomHex(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("random length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
