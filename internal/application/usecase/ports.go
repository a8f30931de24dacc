package usecase

import (
	"context"
	"crypto/rsa"

	"cipherdrop/internal/crypto"
)

type KeySource interface {
	GenerateSymmetricKey() (*crypto.SymmetricKey, error)
}

type Cipher interface {
	Encrypt(plaintext []byte, key *crypto.SymmetricKey) (ciphertext, iv []byte, err error)
	Decrypt(ciphertext []byte, key *crypto.SymmetricKey, iv []byte) ([]byte, error)
}

type Wrapper interface {
	WrapKeyForRecipient(key *crypto.SymmetricKey, recipient *rsa.PublicKey) (string, error)
	UnwrapKey(wrapped string, own *rsa.PrivateKey) (*crypto.SymmetricKey, error)
}

type Thumbnailer interface {
	Generate(ctx context.Context, data []byte, mimeType string) ([]byte, error)
}

type Compressor interface {
	Applies(size int64, mimeType string) bool
	Compress(ctx context.Context, data []byte) ([]byte, error)
}
