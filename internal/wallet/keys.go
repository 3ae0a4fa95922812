package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrInvalidKey       = errors.New("invalid private key")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Keys is the key-pair capability behind locally held credentials: address
// derivation, EIP-191 personal signing, signer recovery and key generation.
type Keys interface {
	// DeriveAddress returns the checksummed address controlled by secret.
	DeriveAddress(secret string) (string, error)

	// Sign produces a 65-byte personal-sign signature over message.
	Sign(message []byte, secret string) ([]byte, error)

	// RecoverSigner returns the checksummed address that produced signature.
	RecoverSigner(message, signature []byte) (string, error)

	// GenerateKeypair creates a fresh random key.
	GenerateKeypair() (address, secret string, err error)
}

// EthKeys implements Keys over secp256k1 with Ethereum addressing.
type EthKeys struct{}

var _ Keys = EthKeys{}

func parseSecret(secret string) (*ecdsa.PrivateKey, error) {
	secret = strings.TrimPrefix(strings.TrimSpace(secret), "0x")
	key, err := crypto.HexToECDSA(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

func (EthKeys) DeriveAddress(secret string) (string, error) {
	key, err := parseSecret(secret)
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}

func (EthKeys) Sign(message []byte, secret string) ([]byte, error) {
	key, err := parseSecret(secret)
	if err != nil {
		return nil, err
	}
	return signPersonal(message, key)
}

// signPersonal signs with the EIP-191 prefix so the signature can never be
// replayed as a transaction.
func signPersonal(message []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	hash := crypto.Keccak256([]byte(prefix), message)

	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, err
	}

	// 27/28 is what browser wallets and ecrecover expect.
	sig[64] += 27
	return sig, nil
}

func (EthKeys) RecoverSigner(message, signature []byte) (string, error) {
	if len(signature) != crypto.SignatureLength {
		return "", fmt.Errorf("%w: length %d", ErrInvalidSignature, len(signature))
	}

	sig := make([]byte, len(signature))
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	hash := crypto.Keccak256([]byte(prefix), message)

	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

func (EthKeys) GenerateKeypair() (string, string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", "", err
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), hexutil.Encode(crypto.FromECDSA(key)), nil
}

// SameAddress compares two hex addresses ignoring checksum case. Anything
// else, such as base58, is compared exactly.
func SameAddress(a, b string) bool {
	if !common.IsHexAddress(a) || !common.IsHexAddress(b) {
		return a == b
	}
	return common.HexToAddress(a) == common.HexToAddress(b)
}
