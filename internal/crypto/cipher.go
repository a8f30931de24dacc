package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"cipherdrop/internal/domain/failure"
)

const NonceSize = 12

// ContentCipher performs AES-256-GCM over whole files. The nonce is returned
// separately and never prepended to the ciphertext.
type ContentCipher struct {
	provider Provider
}

func NewContentCipher(p Provider) *ContentCipher {
	return &ContentCipher{provider: p}
}

func (c *ContentCipher) Encrypt(plaintext []byte, key *SymmetricKey) (ciphertext, iv []byte, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	iv = make([]byte, NonceSize)
	if err := readFull(c.provider, iv); err != nil {
		return nil, nil, err
	}

	return aead.Seal(nil, iv, plaintext, nil), iv, nil
}

// Decrypt verifies the tag before returning anything.
func (*ContentCipher) Decrypt(ciphertext []byte, key *SymmetricKey, iv []byte) ([]byte, error) {
	if len(iv) != NonceSize {
		return nil, fmt.Errorf("nonce is %d bytes: %w", len(iv), failure.ErrIntegrity)
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open: %w", failure.ErrIntegrity)
	}

	return plaintext, nil
}

func newGCM(key *SymmetricKey) (cipher.AEAD, error) {
	if key == nil || len(key.b) != KeySize {
		return nil, fmt.Errorf("content key: %w", failure.ErrKeyFormat)
	}

	block, err := aes.NewCipher(key.b)
	if err != nil {
		return nil, fmt.Errorf("aes: %v: %w", err, failure.ErrKeyFormat)
	}

	return cipher.NewGCM(block)
}
