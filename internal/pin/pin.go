// Package pin hashes and verifies the short numeric PINs that gate lists and users.
package pin

import (
	"crypto"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// Length is the number of digits in a PIN.
const Length = 4

// ErrUnavailable means the SHA-256 primitive is not linked into the binary.
// It is a configuration error; PINs are never compared in plaintext.
var ErrUnavailable = errors.New("pin: sha-256 is unavailable")

// Check reports ErrUnavailable if PIN digests cannot be computed.
func Check() error {
	if !crypto.SHA256.Available() {
		return ErrUnavailable
	}
	return nil
}

// Hash returns the lowercase hex SHA-256 digest of the PIN's UTF-8 bytes.
func Hash(pin string) (string, error) {
	if err := Check(); err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:]), nil
}

// Verify reports whether pin hashes to digest.
func Verify(pin, digest string) bool {
	candidate, err := Hash(pin)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(digest)) == 1
}

// Valid reports whether s is exactly Length ASCII digits.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
