// Package checksum computes the content digests reported in listings and
// write receipts. Digests are "sha256:" followed by lowercase hex.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

const prefix = "sha256:"

// Of returns the digest of a file's text content.
func Of(content string) string {
	return Bytes([]byte(content))
}

// Bytes returns the digest of raw file data.
func Bytes(data []byte) string {
	h := sha256.Sum256(data)
	return prefix + hex.EncodeToString(h[:])
}
