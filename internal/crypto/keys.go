package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"

	"cipherdrop/internal/domain/failure"
)

const (
	KeySize        = 32
	DefaultRSABits = 3072
	MinRSABits     = 2048

	PublicKeyPEMType  = "PUBLIC KEY"
	PrivateKeyPEMType = "PRIVATE KEY"
)

// SymmetricKey holds a per-file content key. Call Wipe once the key is no longer needed.
type SymmetricKey struct {
	b []byte
}

func (k *SymmetricKey) Bytes() []byte { return k.b }

func (k *SymmetricKey) Wipe() {
	if k == nil {
		return
	}

	clear(k.b)
	k.b = nil
}

func (k *SymmetricKey) String() string { return "SymmetricKey(redacted)" }

// KeyManager creates and (de)serializes content keys and identity key pairs.
type KeyManager struct {
	provider Provider
	rsaBits  int
}

func NewKeyManager(p Provider, rsaBits int) *KeyManager {
	if rsaBits < MinRSABits {
		rsaBits = DefaultRSABits
	}

	return &KeyManager{provider: p, rsaBits: rsaBits}
}

func (m *KeyManager) GenerateSymmetricKey() (*SymmetricKey, error) {
	b := make([]byte, KeySize)
	if err := readFull(m.provider, b); err != nil {
		return nil, err
	}

	return &SymmetricKey{b: b}, nil
}

// ExportRaw returns a copy of the key bytes.
func (*KeyManager) ExportRaw(k *SymmetricKey) []byte {
	return append([]byte(nil), k.b...)
}

func (*KeyManager) ImportRaw(b []byte) (*SymmetricKey, error) {
	if len(b) != KeySize {
		return nil, fmt.Errorf("content key is %d bytes, want %d: %w", len(b), KeySize, failure.ErrKeyFormat)
	}

	return &SymmetricKey{b: append([]byte(nil), b...)}, nil
}

func (m *KeyManager) GenerateKeyPair() (*rsa.PrivateKey, error) {
	if m.provider == nil {
		return nil, fmt.Errorf("no provider: %w", failure.ErrKeyGeneration)
	}

	priv, err := rsa.GenerateKey(m.provider.Random(), m.rsaBits)
	if err != nil {
		return nil, fmt.Errorf("rsa %d: %v: %w", m.rsaBits, err, failure.ErrKeyGeneration)
	}

	return priv, nil
}

// ExportPublicKey encodes pub as a PKIX PEM block, the portable form shared with contacts.
func (*KeyManager) ExportPublicKey(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %v: %w", err, failure.ErrKeyFormat)
	}

	return pem.EncodeToMemory(&pem.Block{Type: PublicKeyPEMType, Bytes: der}), nil
}

// ExportPrivateKey encodes priv as an unencrypted PKCS#8 PEM block.
func (*KeyManager) ExportPrivateKey(priv *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %v: %w", err, failure.ErrKeyFormat)
	}

	return pem.EncodeToMemory(&pem.Block{Type: PrivateKeyPEMType, Bytes: der}), nil
}

// ImportRecipientPublicKey accepts a PKIX PEM block or base64 DER.
func (*KeyManager) ImportRecipientPublicKey(serialized []byte) (*rsa.PublicKey, error) {
	der, err := derFrom(serialized, PublicKeyPEMType)
	if err != nil {
		return nil, err
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %v: %w", err, failure.ErrKeyFormat)
	}

	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, want RSA: %w", parsed, failure.ErrKeyFormat)
	}

	if pub.N.BitLen() < MinRSABits {
		return nil, fmt.Errorf("public key has %d bits: %w", pub.N.BitLen(), failure.ErrKeyFormat)
	}

	return pub, nil
}

// ImportPrivateKey accepts a PKCS#8 PEM block or base64 DER.
func (*KeyManager) ImportPrivateKey(serialized []byte) (*rsa.PrivateKey, error) {
	der, err := derFrom(serialized, PrivateKeyPEMType)
	if err != nil {
		return nil, err
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %v: %w", err, failure.ErrKeyFormat)
	}

	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, want RSA: %w", parsed, failure.ErrKeyFormat)
	}

	return priv, nil
}

func derFrom(serialized []byte, pemType string) ([]byte, error) {
	trimmed := strings.TrimSpace(string(serialized))
	if trimmed == "" {
		return nil, fmt.Errorf("empty key: %w", failure.ErrKeyFormat)
	}

	if strings.HasPrefix(trimmed, "-----BEGIN") {
		block, _ := pem.Decode([]byte(trimmed))
		if block == nil {
			return nil, fmt.Errorf("bad pem: %w", failure.ErrKeyFormat)
		}

		if block.Type != pemType {
			return nil, fmt.Errorf("pem type %q, want %q: %w", block.Type, pemType, failure.ErrKeyFormat)
		}

		return block.Bytes, nil
	}

	der, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("bad base64: %v: %w", err, failure.ErrKeyFormat)
	}

	return der, nil
}
