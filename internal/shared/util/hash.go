package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey returns a filesystem-safe identifier for an owner ID.
func HashUserKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ContentDigest returns the hex SHA-256 of an uploaded file.
func ContentDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
