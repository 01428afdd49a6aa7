package keystore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-airdrop/internal/airdrop/wallet/keystore"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestEncryptDecrypt(t *testing.T) {
	f, err := keystore.Encrypt(testMnemonic, "secret", keystore.LightScryptParams())
	require.NoError(t, err)
	assert.Equal(t, 3, f.Version)
	assert.NotEqual(t, testMnemonic, f.Crypto.Ciphertext)

	mnemonic, err := keystore.Decrypt(f, "secret")
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, mnemonic)

	_, err = keystore.Decrypt(f, "wrong")
	require.ErrorIs(t, err, keystore.ErrWrongPassword)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")

	f, err := keystore.Encrypt(testMnemonic, "secret", keystore.LightScryptParams())
	require.NoError(t, err)
	require.NoError(t, keystore.Save(path, f))

	// never overwrite an existing keystore
	require.Error(t, keystore.Save(path, f))

	mnemonic, err := keystore.LoadMnemonic(path, "secret")
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, mnemonic)
}

func TestDecryptRejectsUnknownFormat(t *testing.T) {
	f, err := keystore.Encrypt(testMnemonic, "secret", keystore.LightScryptParams())
	require.NoError(t, err)

	f.Crypto.KDF = "pbkdf2"
	_, err = keystore.Decrypt(f, "secret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, keystore.ErrWrongPassword)
}
