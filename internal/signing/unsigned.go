package signing

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// UnsignedSigner issues random 32-byte tokens. Verification is only as strong
// as the secrecy of the stored token.
type UnsignedSigner struct{}

func NewUnsignedSigner() UnsignedSigner { return UnsignedSigner{} }

func (UnsignedSigner) Derive([]byte) (Token, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return Token{}, fmt.Errorf("signing: %w", err)
	}
	return Token{Value: hex.EncodeToString(b), Mode: ModeUnsigned}, nil
}

// Check compares claimed with the token stored at creation.
func (UnsignedSigner) Check(claimed string, _ []byte, stored string) (bool, error) {
	if stored == "" {
		return false, nil
	}
	return equalTokens(claimed, stored), nil
}

func (UnsignedSigner) Mode() TokenMode { return ModeUnsigned }

func (UnsignedSigner) Address() string { return "" }

// New selects the signer for the configured key.
func New(hexKey string) (Signer, error) {
	if hexKey == "" {
		return NewUnsignedSigner(), nil
	}
	return NewEthSigner(hexKey)
}
