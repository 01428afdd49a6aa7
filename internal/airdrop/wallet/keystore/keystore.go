package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

const (
	keystoreVersion = 3
	saltSize        = 32
	ivSize          = 16 // AES-128-CTR
	cipherName      = "aes-128-ctr"
	kdfName         = "scrypt"
	filePerm        = 0o600
)

// ErrWrongPassword is returned when the MAC does not match.
var ErrWrongPassword = errors.New("invalid password: MAC mismatch")

// Encrypt seals mnemonic with password.
//
//nolint:varnamelen // iv is a common abbreviation for initialization vector
func Encrypt(mnemonic string, password string, params ScryptParams) (*File, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "failed to generate salt")
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, errors.Wrap(err, "failed to generate IV")
	}

	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key")
	}

	ciphertext, err := xorAES128CTR(derivedKey[:16], iv, []byte(mnemonic))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt mnemonic")
	}

	f := &File{
		Version: keystoreVersion,
		ID:      uuid.New().String(),
	}
	f.Crypto.Ciphertext = hex.EncodeToString(ciphertext)
	f.Crypto.CipherParams.IV = hex.EncodeToString(iv)
	f.Crypto.Cipher = cipherName
	f.Crypto.KDF = kdfName
	f.Crypto.KDFParams.DKLen = params.DKLen
	f.Crypto.KDFParams.Salt = hex.EncodeToString(salt)
	f.Crypto.KDFParams.N = params.N
	f.Crypto.KDFParams.R = params.R
	f.Crypto.KDFParams.P = params.P
	f.Crypto.MAC = hex.EncodeToString(mac(derivedKey[16:32], ciphertext))

	return f, nil
}

// Decrypt opens f with password and returns the mnemonic.
func Decrypt(f *File, password string) (string, error) {
	if f.Version != keystoreVersion || f.Crypto.Cipher != cipherName || f.Crypto.KDF != kdfName {
		return "", errors.Errorf("unsupported keystore (version %d, cipher %q, kdf %q)",
			f.Version, f.Crypto.Cipher, f.Crypto.KDF)
	}

	salt, err := hex.DecodeString(f.Crypto.KDFParams.Salt)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode salt")
	}

	//nolint:varnamelen
	iv, err := hex.DecodeString(f.Crypto.CipherParams.IV)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode IV")
	}

	ciphertext, err := hex.DecodeString(f.Crypto.Ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode ciphertext")
	}

	expectedMAC, err := hex.DecodeString(f.Crypto.MAC)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode MAC")
	}

	p := f.Crypto.KDFParams
	derivedKey, err := scrypt.Key([]byte(password), salt, p.N, p.R, p.P, p.DKLen)
	if err != nil {
		return "", errors.Wrap(err, "failed to derive key")
	}

	if subtle.ConstantTimeCompare(mac(derivedKey[16:32], ciphertext), expectedMAC) != 1 {
		return "", ErrWrongPassword
	}

	plaintext, err := xorAES128CTR(derivedKey[:16], iv, ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decrypt mnemonic")
	}

	return string(plaintext), nil
}

// Load reads a keystore file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keystore %s", path)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "failed to parse keystore %s", path)
	}

	return &f, nil
}

// Save writes f to path, readable by the owner only. Existing files are not replaced.
func Save(path string, f *File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal keystore")
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return errors.Wrapf(err, "failed to create keystore %s", path)
	}
	defer out.Close()

	if _, err := out.Write(data); err != nil {
		return errors.Wrapf(err, "failed to write keystore %s", path)
	}

	return nil
}

// LoadMnemonic is Load followed by Decrypt.
func LoadMnemonic(path string, password string) (string, error) {
	f, err := Load(path)
	if err != nil {
		return "", err
	}

	return Decrypt(f, password)
}

// mac is Keccak256(derivedKey[16:32] || ciphertext) as in keystore v3.
func mac(key []byte, ciphertext []byte) []byte {
	return crypto.Keccak256(key, ciphertext)
}

//nolint:varnamelen
func xorAES128CTR(key []byte, iv []byte, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}

	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)

	return out, nil
}
