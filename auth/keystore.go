package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"golang.org/x/crypto/argon2"
)

const (
	// Argon2id parameters for key file encryption.
	Argon2Time        = 3
	Argon2Memory      = 64 * 1024 // 64 MB
	Argon2Parallelism = 4
	Argon2KeyLen      = 32

	// Key file format sizes.
	SaltLen     = 16
	NonceLen    = 12
	ChecksumLen = 4

	privateKeyLen = 32
)

// EncryptKey seals priv with Argon2id + AES-256-GCM.
//
// Output format: salt(16B) || nonce(12B) || AES-GCM(argon2id(password,salt), nonce, key||checksum)
//
// The checksum is SHA256(key)[:4] for verifying correct decryption.
func EncryptKey(priv *ec.PrivateKey, password string) ([]byte, error) {
	if priv == nil {
		return nil, ErrNilKey
	}
	raw := priv.Serialize()

	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("auth: generate salt: %w", err)
	}
	gcm, err := keyFileCipher(password, salt)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(raw)
	plaintext := make([]byte, 0, len(raw)+ChecksumLen)
	plaintext = append(plaintext, raw...)
	plaintext = append(plaintext, sum[:ChecksumLen]...)

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("auth: generate nonce: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, SaltLen+NonceLen+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// DecryptKey opens data produced by EncryptKey.
func DecryptKey(data []byte, password string) (*ec.PrivateKey, error) {
	if len(data) < SaltLen+NonceLen+ChecksumLen {
		return nil, ErrDecryptionFailed
	}
	salt := data[:SaltLen]
	nonce := data[SaltLen : SaltLen+NonceLen]
	ciphertext := data[SaltLen+NonceLen:]

	gcm, err := keyFileCipher(password, salt)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if len(plaintext) != privateKeyLen+ChecksumLen {
		return nil, ErrDecryptionFailed
	}

	raw := plaintext[:privateKeyLen]
	sum := sha256.Sum256(raw)
	for i := 0; i < ChecksumLen; i++ {
		if plaintext[privateKeyLen+i] != sum[i] {
			return nil, ErrChecksumMismatch
		}
	}
	priv, _ := ec.PrivateKeyFromBytes(raw)
	return priv, nil
}

func keyFileCipher(password string, salt []byte) (cipher.AEAD, error) {
	derived := argon2.IDKey([]byte(password), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)
	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("auth: AES cipher creation failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("auth: GCM creation failed: %w", err)
	}
	return gcm, nil
}

// LoadOrCreateKey reads the encrypted key at path, or generates a key and
// writes it there (mode 0600) when the file does not exist.
func LoadOrCreateKey(path, password string) (*ec.PrivateKey, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return DecryptKey(data, password)
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("auth: read key file: %w", err)
	}

	priv, err := ec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("auth: generate key: %w", err)
	}
	data, err = EncryptKey(priv, password)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("auth: create key directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("auth: write key file: %w", err)
	}
	return priv, nil
}
