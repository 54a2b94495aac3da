// Package signing derives and checks product verification tokens.
package signing

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"
)

// TokenMode records how a verification token was produced.
type TokenMode string

const (
	// ModeSigned tokens are signatures that can be re-derived from the key.
	ModeSigned TokenMode = "signed"
	// ModeUnsigned tokens are random shared secrets checked against storage.
	ModeUnsigned TokenMode = "unsigned"
)

// Token is a derived verification token.
type Token struct {
	Value string
	Mode  TokenMode
}

// Signer derives verification tokens and checks claimed ones.
type Signer interface {
	Derive(message []byte) (Token, error)
	// Check reports whether claimed is valid for message. stored is the
	// token persisted at creation time.
	Check(claimed string, message []byte, stored string) (bool, error)
	Mode() TokenMode
	// Address identifies the signing key, empty when unsigned.
	Address() string
}

// Message is the byte sequence covered by a product's verification token.
func Message(serial, batch, contentID, metadataHash string) []byte {
	return []byte(strings.Join([]string{serial, batch, contentID, metadataHash}, ":"))
}

// MessageHash is the fixed-size hash that gets signed.
func MessageHash(message []byte) []byte {
	sum := sha256.Sum256(message)
	return sum[:]
}

func equalTokens(a, b string) bool {
	a = strings.ToLower(strings.TrimPrefix(a, "0x"))
	b = strings.ToLower(strings.TrimPrefix(b, "0x"))
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
