package keystore

import (
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cipherdrop/internal/crypto"
	"cipherdrop/internal/domain/failure"
)

func newSuite() *crypto.Suite {
	return crypto.NewSuite(crypto.NewTestProvider(11), crypto.MinRSABits)
}

func TestKeystore_GenerateAndLoad(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		wantType   string
	}{
		{"plain", "", crypto.PrivateKeyPEMType},
		{"sealed", "correct horse battery staple", SealedPEMType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			ks := New(Config{Dir: dir, Passphrase: tt.passphrase}, newSuite())

			priv, err := ks.Generate("alice")
			require.NoError(t, err)

			raw, err := os.ReadFile(filepath.Join(dir, "alice.key.pem"))
			require.NoError(t, err)
			block, _ := pem.Decode(raw)
			require.NotNil(t, block)
			assert.Equal(t, tt.wantType, block.Type)

			info, err := os.Stat(filepath.Join(dir, "alice.key.pem"))
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

			loaded, err := ks.LoadOwnPrivateKey("alice")
			require.NoError(t, err)
			assert.True(t, priv.Equal(loaded))

			pub, err := ks.LoadOwnPublicKey("alice")
			require.NoError(t, err)
			assert.True(t, priv.PublicKey.Equal(pub))

			_, err = ks.Generate("alice")
			require.ErrorIs(t, err, failure.ErrValidation)
		})
	}
}

func TestKeystore_SealedKeyNeedsPassphrase(t *testing.T) {
	dir := t.TempDir()
	suite := newSuite()

	_, err := New(Config{Dir: dir, Passphrase: "secret"}, suite).Generate("alice")
	require.NoError(t, err)

	_, err = New(Config{Dir: dir}, suite).LoadOwnPrivateKey("alice")
	require.ErrorIs(t, err, failure.ErrKeyFormat)

	_, err = New(Config{Dir: dir, Passphrase: "wrong"}, suite).LoadOwnPrivateKey("alice")
	require.ErrorIs(t, err, failure.ErrKeyFormat)
}

func TestKeystore_Contacts(t *testing.T) {
	dir := t.TempDir()
	suite := newSuite()
	ks := New(Config{Dir: dir}, suite)

	bob, err := suite.Keys.GenerateKeyPair()
	require.NoError(t, err)
	bobPEM, err := suite.Keys.ExportPublicKey(&bob.PublicKey)
	require.NoError(t, err)

	require.NoError(t, ks.AddContact("bob", bobPEM))

	got, err := ks.LoadContact("bob")
	require.NoError(t, err)
	pub, err := suite.Keys.ImportRecipientPublicKey(got)
	require.NoError(t, err)
	assert.True(t, bob.PublicKey.Equal(pub))

	_, err = ks.LoadContact("carol")
	require.ErrorIs(t, err, failure.ErrNotFound)

	err = ks.AddContact("mallory", []byte("not a key"))
	require.ErrorIs(t, err, failure.ErrKeyFormat)
}

func TestKeystore_RejectsUnsafeNames(t *testing.T) {
	ks := New(Config{Dir: t.TempDir()}, newSuite())

	for _, name := range []string{"", "..", "../etc/passwd", "a/b", "name with space"} {
		t.Run(name, func(t *testing.T) {
			_, err := ks.LoadOwnPrivateKey(name)
			require.ErrorIs(t, err, failure.ErrValidation)

			_, err = ks.LoadContact(name)
			require.ErrorIs(t, err, failure.ErrValidation)
		})
	}
}
