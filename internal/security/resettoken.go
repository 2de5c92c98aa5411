package security

import (
	"crypto/rand"
	"encoding/base64"
)

// resetTokenBytes is the entropy of a password reset token (32 bytes → 43 URL-safe chars).
const resetTokenBytes = 32

// NewResetToken returns a cryptographically random, URL-safe, single-use
// password reset token. The caller persists it on the user row with an expiry
// and clears it on successful reset.
func NewResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
