package keystore

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/dezh-tech/immortal/pkg/logger"

	"cipherdrop/internal/crypto"
	"cipherdrop/internal/domain/failure"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Keystore keeps the local identity's key pair and the public keys of its contacts:
//
//	<dir>/<identity>.key.pem
//	<dir>/<identity>.pub.pem
//	<dir>/contacts/<name>.pub.pem
type Keystore struct {
	dir        string
	passphrase string
	suite      *crypto.Suite
}

func New(cfg Config, suite *crypto.Suite) *Keystore {
	dir := cfg.Dir
	if dir == "" {
		dir = "keys"
	}

	return &Keystore{dir: dir, passphrase: cfg.Passphrase, suite: suite}
}

func checkName(name string) error {
	if !namePattern.MatchString(name) || name == "." || name == ".." {
		return fmt.Errorf("invalid key name %q: %w", name, failure.ErrValidation)
	}

	return nil
}

func (k *Keystore) privatePath(identity string) string {
	return filepath.Join(k.dir, identity+".key.pem")
}

func (k *Keystore) publicPath(identity string) string {
	return filepath.Join(k.dir, identity+".pub.pem")
}

func (k *Keystore) contactPath(name string) string {
	return filepath.Join(k.dir, "contacts", name+".pub.pem")
}

// Generate creates a key pair for identity. Existing files are never overwritten.
// The private key is sealed when a passphrase is configured.
func (k *Keystore) Generate(identity string) (*rsa.PrivateKey, error) {
	if err := checkName(identity); err != nil {
		return nil, err
	}

	priv, err := k.suite.Keys.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	pubPEM, err := k.suite.Keys.ExportPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, err
	}

	var privPEM []byte
	if k.passphrase != "" {
		der, merr := x509.MarshalPKCS8PrivateKey(priv)
		if merr != nil {
			return nil, fmt.Errorf("marshal private key: %v: %w", merr, failure.ErrKeyFormat)
		}

		privPEM, err = seal(k.suite, der, k.passphrase)
		clear(der)
	} else {
		privPEM, err = k.suite.Keys.ExportPrivateKey(priv)
	}
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(k.dir, 0o700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}

	if err := writeNew(k.privatePath(identity), privPEM, 0o600); err != nil {
		return nil, err
	}

	if err := writeNew(k.publicPath(identity), pubPEM, 0o644); err != nil {
		_ = os.Remove(k.privatePath(identity))

		return nil, err
	}

	logger.Info("key pair generated", "identity", identity, "sealed", k.passphrase != "")

	return priv, nil
}

func (k *Keystore) LoadOwnPrivateKey(identity string) (*rsa.PrivateKey, error) {
	if err := checkName(identity); err != nil {
		return nil, err
	}

	data, err := readKeyFile(k.privatePath(identity))
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block != nil && block.Type == SealedPEMType {
		der, err := unseal(k.suite, block, k.passphrase)
		if err != nil {
			return nil, err
		}
		defer clear(der)

		return k.suite.Keys.ImportPrivateKey(pem.EncodeToMemory(&pem.Block{Type: crypto.PrivateKeyPEMType, Bytes: der}))
	}

	return k.suite.Keys.ImportPrivateKey(data)
}

func (k *Keystore) LoadOwnPublicKey(identity string) (*rsa.PublicKey, error) {
	if err := checkName(identity); err != nil {
		return nil, err
	}

	data, err := readKeyFile(k.publicPath(identity))
	if err != nil {
		return nil, err
	}

	return k.suite.Keys.ImportRecipientPublicKey(data)
}

// OwnPublicKeyPEM returns the serialized public key to hand to contacts.
func (k *Keystore) OwnPublicKeyPEM(identity string) ([]byte, error) {
	if err := checkName(identity); err != nil {
		return nil, err
	}

	return readKeyFile(k.publicPath(identity))
}

// AddContact stores a contact's public key after checking it parses.
func (k *Keystore) AddContact(name string, serialized []byte) error {
	if err := checkName(name); err != nil {
		return err
	}

	pub, err := k.suite.Keys.ImportRecipientPublicKey(serialized)
	if err != nil {
		return err
	}

	normalized, err := k.suite.Keys.ExportPublicKey(pub)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(k.contactPath(name)), 0o700); err != nil {
		return fmt.Errorf("create contacts dir: %w", err)
	}

	if err := os.WriteFile(k.contactPath(name), normalized, 0o644); err != nil {
		return fmt.Errorf("write contact %s: %w", name, err)
	}

	return nil
}

// LoadContact returns the serialized public key of a contact.
func (k *Keystore) LoadContact(name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	return readKeyFile(k.contactPath(name))
}

func readKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("key file %s: %w", path, failure.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}

	return data, nil
}

func writeNew(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s already exists: %w", path, failure.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()

		return fmt.Errorf("write %s: %w", path, err)
	}

	return f.Close()
}

// RecipientKey resolves a contact name to a public key usable for key wrapping.
func (k *Keystore) RecipientKey(name string) (*rsa.PublicKey, error) {
	data, err := k.LoadContact(name)
	if err != nil {
		return nil, err
	}

	return k.suite.Keys.ImportRecipientPublicKey(data)
}
