package crypto

import (
	"encoding/base64"
	"fmt"

	"cipherdrop/internal/domain/failure"
)

// Version tags records produced by AES-256-GCM content encryption with RSA-OAEP(SHA-256) key wrapping.
const Version = "v1"

// Suite bundles the primitives both pipelines use, all drawing from one provider.
type Suite struct {
	Provider Provider
	Keys     *KeyManager
	Cipher   *ContentCipher
	Wrapper  *KeyWrapper
}

func NewSuite(p Provider, rsaBits int) *Suite {
	return &Suite{
		Provider: p,
		Keys:     NewKeyManager(p, rsaBits),
		Cipher:   NewContentCipher(p),
		Wrapper:  NewKeyWrapper(p),
	}
}

func EncodeTransport(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeTransport(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("transport decode: %v: %w", err, failure.ErrInvalidMetadata)
	}

	return b, nil
}
