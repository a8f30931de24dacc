package keystore

import (
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"cipherdrop/internal/crypto"
	"cipherdrop/internal/domain/failure"
)

const (
	SealedPEMType = "CIPHERDROP SEALED PRIVATE KEY"

	saltSize      = 16
	argonTime     = 1
	argonMemoryKB = 64 * 1024
	argonThreads  = 4
)

func deriveKey(suite *crypto.Suite, passphrase string, salt []byte) (*crypto.SymmetricKey, error) {
	return suite.Keys.ImportRaw(argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemoryKB, argonThreads, crypto.KeySize))
}

// seal encrypts a PKCS#8 DER private key under a passphrase-derived AES-GCM key.
func seal(suite *crypto.Suite, der []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(suite.Provider.Random(), salt); err != nil {
		return nil, fmt.Errorf("salt: %v: %w", err, failure.ErrKeyGeneration)
	}

	key, err := deriveKey(suite, passphrase, salt)
	if err != nil {
		return nil, err
	}
	defer key.Wipe()

	ciphertext, nonce, err := suite.Cipher.Encrypt(der, key)
	if err != nil {
		return nil, err
	}

	return pem.EncodeToMemory(&pem.Block{
		Type: SealedPEMType,
		Headers: map[string]string{
			"KDF":   "argon2id",
			"Salt":  base64.StdEncoding.EncodeToString(salt),
			"Nonce": base64.StdEncoding.EncodeToString(nonce),
		},
		Bytes: ciphertext,
	}), nil
}

func unseal(suite *crypto.Suite, block *pem.Block, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("private key is sealed and no passphrase is set: %w", failure.ErrKeyFormat)
	}

	if kdf := block.Headers["KDF"]; kdf != "argon2id" {
		return nil, fmt.Errorf("unknown kdf %q: %w", kdf, failure.ErrKeyFormat)
	}

	salt, err := base64.StdEncoding.DecodeString(block.Headers["Salt"])
	if err != nil || len(salt) != saltSize {
		return nil, fmt.Errorf("bad salt header: %w", failure.ErrKeyFormat)
	}

	nonce, err := base64.StdEncoding.DecodeString(block.Headers["Nonce"])
	if err != nil {
		return nil, fmt.Errorf("bad nonce header: %w", failure.ErrKeyFormat)
	}

	key, err := deriveKey(suite, passphrase, salt)
	if err != nil {
		return nil, err
	}
	defer key.Wipe()

	der, err := suite.Cipher.Decrypt(block.Bytes, key, nonce)
	if err != nil {
		return nil, fmt.Errorf("wrong passphrase or corrupted key file: %w", failure.ErrKeyFormat)
	}

	return der, nil
}
