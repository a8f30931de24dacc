package crypto

import (
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"cipherdrop/internal/domain/failure"
)

var wrapLabel = []byte("cipherdrop/v1 content key")

// KeyWrapper encrypts content keys for a single recipient with RSA-OAEP (SHA-256).
type KeyWrapper struct {
	provider Provider
}

func NewKeyWrapper(p Provider) *KeyWrapper {
	return &KeyWrapper{provider: p}
}

// WrapKeyForRecipient returns the wrapped key in transport encoding.
func (w *KeyWrapper) WrapKeyForRecipient(key *SymmetricKey, recipient *rsa.PublicKey) (string, error) {
	if key == nil || len(key.b) != KeySize {
		return "", fmt.Errorf("content key: %w", failure.ErrKeyFormat)
	}

	if recipient == nil {
		return "", fmt.Errorf("no recipient key: %w", failure.ErrKeyFormat)
	}

	if w.provider == nil {
		return "", fmt.Errorf("no provider: %w", failure.ErrKeyGeneration)
	}

	wrapped, err := rsa.EncryptOAEP(sha256.New(), w.provider.Random(), recipient, key.b, wrapLabel)
	if err != nil {
		return "", fmt.Errorf("oaep: %v: %w", err, failure.ErrKeyFormat)
	}

	return EncodeTransport(wrapped), nil
}

func (*KeyWrapper) UnwrapKey(wrapped string, own *rsa.PrivateKey) (*SymmetricKey, error) {
	if own == nil {
		return nil, fmt.Errorf("no private key: %w", failure.ErrKeyUnwrap)
	}

	raw, err := DecodeTransport(wrapped)
	if err != nil {
		return nil, fmt.Errorf("wrapped key: %v: %w", err, failure.ErrKeyUnwrap)
	}

	b, err := rsa.DecryptOAEP(sha256.New(), nil, own, raw, wrapLabel)
	if err != nil {
		return nil, fmt.Errorf("oaep: %w", failure.ErrKeyUnwrap)
	}

	if len(b) != KeySize {
		clear(b)

		return nil, fmt.Errorf("unwrapped %d bytes: %w", len(b), failure.ErrKeyUnwrap)
	}

	return &SymmetricKey{b: b}, nil
}
