// Package metadata implements the canonical serialization and content hash
// shared by every producer and verifier of product snapshots.
package metadata

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// FallbackIDLength is the length of a content id derived locally from a digest.
const FallbackIDLength = 46

// Canonicalize encodes fields as compact JSON with keys sorted at every level.
func Canonicalize(fields map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields); err != nil {
		return nil, fmt.Errorf("metadata: canonicalize: %w", err)
	}
	// Encoder always terminates with a newline.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Digest returns the lowercase hex SHA-256 of b.
func Digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Hash canonicalizes fields and returns the bytes together with their digest.
func Hash(fields map[string]any) ([]byte, string, error) {
	b, err := Canonicalize(fields)
	if err != nil {
		return nil, "", err
	}
	return b, Digest(b), nil
}

// Decode parses stored content back into a field mapping. Numbers are kept as
// json.Number so that re-canonicalizing reproduces them exactly.
func Decode(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("metadata: decode: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("metadata: decode: content is not an object")
	}
	return fields, nil
}

// Rehash decodes stored content and recomputes its canonical digest.
func Rehash(b []byte) (string, error) {
	fields, err := Decode(b)
	if err != nil {
		return "", err
	}
	_, digest, err := Hash(fields)
	return digest, err
}

// FallbackID derives a content id from the content itself, used when the
// content store cannot assign one.
func FallbackID(b []byte) string {
	return Digest(b)[:FallbackIDLength]
}
