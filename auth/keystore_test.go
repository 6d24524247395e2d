package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptKey_RoundTrip(t *testing.T) {
	priv := newKey(t)

	for _, password := range []string{"correct horse", "", "пароль"} {
		data, err := EncryptKey(priv, password)
		require.NoError(t, err)
		assert.Len(t, data, SaltLen+NonceLen+32+ChecksumLen+16) // 16-byte GCM tag

		got, err := DecryptKey(data, password)
		require.NoError(t, err)
		assert.Equal(t, priv.Serialize(), got.Serialize())
	}
}

func TestEncryptKey_NilKey(t *testing.T) {
	_, err := EncryptKey(nil, "pw")
	assert.ErrorIs(t, err, ErrNilKey)
}

func TestEncryptKey_DifferentCiphertexts(t *testing.T) {
	priv := newKey(t)
	a, err := EncryptKey(priv, "pw")
	require.NoError(t, err)
	b, err := EncryptKey(priv, "pw")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptKey_Failures(t *testing.T) {
	data, err := EncryptKey(newKey(t), "pw")
	require.NoError(t, err)

	_, err = DecryptKey(data, "wrong")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = DecryptKey(data[:SaltLen+NonceLen], "pw")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	corrupted := append([]byte(nil), data...)
	corrupted[len(corrupted)-1] ^= 0xFF
	_, err = DecryptKey(corrupted, "pw")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestLoadOrCreateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "self.key")

	first, err := LoadOrCreateKey(path, "pw")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	second, err := LoadOrCreateKey(path, "pw")
	require.NoError(t, err)
	assert.Equal(t, IdentityFromPubKey(first.PubKey()), IdentityFromPubKey(second.PubKey()))

	_, err = LoadOrCreateKey(path, "other")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}
