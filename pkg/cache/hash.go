package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds a "<keyType>:<hash>" cache key from the JSON encoding
// of its parts. The key type (layout, frame) stays readable in the key
// so instrumentation can group entries; the parts collapse into a full
// SHA-256 digest.
func hashKey(keyType string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return keyType + ":" + hex.EncodeToString(sum[:])
}

// Hash returns the SHA-256 digest of data as a 64-character hex string.
// Layout keys feed the DOT rendering of the visible graph through it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
