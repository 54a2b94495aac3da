package signing

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
)

// EthSigner signs the message hash as an EIP-191 personal message with a
// secp256k1 key. Signatures are deterministic, so Check re-derives them.
type EthSigner struct {
	key     *ecdsa.PrivateKey
	address string
}

// NewEthSigner parses a hex private key (with or without 0x).
func NewEthSigner(hexKey string) (*EthSigner, error) {
	if len(hexKey) > 1 && hexKey[:2] == "0x" {
		hexKey = hexKey[2:]
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("signing: invalid private key: %w", err)
	}
	return &EthSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}, nil
}

// Derive signs MessageHash(message) and returns the 65-byte signature in hex.
func (s *EthSigner) Derive(message []byte) (Token, error) {
	digest := accounts.TextHash(MessageHash(message))
	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return Token{}, fmt.Errorf("signing: %w", err)
	}
	// Wallet convention: recovery id 27/28.
	sig[crypto.RecoveryIDOffset] += 27
	return Token{Value: hex.EncodeToString(sig), Mode: ModeSigned}, nil
}

// Check re-derives the signature and compares in constant time.
func (s *EthSigner) Check(claimed string, message []byte, _ string) (bool, error) {
	expected, err := s.Derive(message)
	if err != nil {
		return false, err
	}
	return equalTokens(claimed, expected.Value), nil
}

// Recover returns the address that produced token over message.
func (s *EthSigner) Recover(token string, message []byte) (string, error) {
	if len(token) > 1 && token[:2] == "0x" {
		token = token[2:]
	}
	sig, err := hex.DecodeString(token)
	if err != nil || len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("signing: malformed signature")
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(MessageHash(message)), sig)
	if err != nil {
		return "", fmt.Errorf("signing: %w", err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

func (s *EthSigner) Mode() TokenMode { return ModeSigned }

func (s *EthSigner) Address() string { return s.address }
