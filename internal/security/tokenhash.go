package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// TokenDigest returns a SHA-256 hash of the token string, hex-encoded.
// Session rows store digests of both bearer tokens so raw credentials are
// never kept at rest.
func TokenDigest(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// TokenDigestEqual performs constant-time comparison of the provided token's
// digest with the stored digest. Returns true only if they match.
func TokenDigestEqual(providedToken, storedDigest string) bool {
	providedDigest := TokenDigest(providedToken)
	return subtle.ConstantTimeCompare([]byte(providedDigest), []byte(storedDigest)) == 1
}
