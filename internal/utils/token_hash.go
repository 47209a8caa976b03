package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashOpaqueToken returns the SHA-256 hex digest under which an opaque token
// (refresh, verification or reset) is stored.
func HashOpaqueToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CompareOpaqueTokenHash compares a raw token with a stored digest in constant time.
func CompareOpaqueTokenHash(token string, storedHash string) bool {
	if token == "" || storedHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashOpaqueToken(token)), []byte(storedHash)) == 1
}
