package security

import (
	"crypto/md5" //nolint:gosec // fingerprint only, not a security boundary
	"crypto/subtle"
	"encoding/hex"
)

// UserAgentFingerprint derives the fingerprint embedded in session
// credentials from a raw user agent string.
func UserAgentFingerprint(userAgent string) string {
	sum := md5.Sum([]byte(userAgent))
	return hex.EncodeToString(sum[:])
}

// FingerprintEquals compares two fingerprints in constant time.
func FingerprintEquals(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
