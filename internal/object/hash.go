package object

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashBytes returns the lowercase hex sha256 of content.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// hashJSON hashes the canonical JSON encoding of v. Map keys are sorted by
// the encoder, so equal values hash equally.
func hashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding for hash: %w", err)
	}
	return HashBytes(data), nil
}
