package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashPagePassword derives the stored digest of a page password: hex
// HMAC-SHA256 keyed by the deployment secret.
func HashPagePassword(secret []byte, password string) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil))
}

// PagePasswordMatches compares password against a stored digest.
func PagePasswordMatches(secret []byte, password, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	expected := HashPagePassword(secret, password)
	return hmac.Equal([]byte(expected), []byte(storedHash))
}
