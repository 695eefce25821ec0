package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key, err := GenerateFileKey()
	require.NoError(t, err)
	id := uuid.New()
	plaintext := []byte("jpeg bytes go here")

	ct, hash, err := Encrypt(key, id, plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ct)
	assert.Equal(t, ContentHash(ct), hash)

	got, err := Decrypt(key, id, ct)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestEncrypt_NonceDerivedFromUUID(t *testing.T) {
	key := make([]byte, FileKeySize)
	id := uuid.MustParse("6b3f0a0e-4a4f-4d1f-9a52-2a0c1f1d2e3f")

	sum := sha256.Sum256(id[:])
	assert.Equal(t, sum[:12], partNonce(id, ""))
	assert.Equal(t, sum[:12], partNonce(id, "original"))
	assert.NotEqual(t, sum[:12], partNonce(id, "thumbnail-small-cover"))

	// Same inputs must give the same ciphertext.
	a, _, err := Encrypt(key, id, []byte("x"))
	require.NoError(t, err)
	b, _, err := Encrypt(key, id, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecrypt_Failures(t *testing.T) {
	key, _ := GenerateFileKey()
	other, _ := GenerateFileKey()
	id := uuid.New()

	ct, _, err := Encrypt(key, id, []byte("payload"))
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		_, err := Decrypt(other, id, ct)
		assert.ErrorIs(t, err, ErrDecryption)
	})
	t.Run("wrong uuid", func(t *testing.T) {
		_, err := Decrypt(key, uuid.New(), ct)
		assert.ErrorIs(t, err, ErrDecryption)
	})
	t.Run("tampered", func(t *testing.T) {
		bad := append([]byte(nil), ct...)
		bad[0] ^= 0xff
		_, err := Decrypt(key, id, bad)
		assert.ErrorIs(t, err, ErrDecryption)
	})
	t.Run("short key", func(t *testing.T) {
		_, err := Decrypt(key[:16], id, ct)
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestEncryptPart_SeparatesVariants(t *testing.T) {
	key, _ := GenerateFileKey()
	id := uuid.New()
	data := []byte("same plaintext")

	orig, _, err := Encrypt(key, id, data)
	require.NoError(t, err)
	thumb, _, err := EncryptPart(key, id, "thumbnail-small-cover", data)
	require.NoError(t, err)
	assert.NotEqual(t, orig, thumb)

	got, err := DecryptPart(key, id, "thumbnail-small-cover", thumb)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = Decrypt(key, id, thumb)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestVerifyTransferHash(t *testing.T) {
	data := []byte("ciphertext")
	sum := sha256.Sum256(data)

	assert.NoError(t, VerifyTransferHash(base64.StdEncoding.EncodeToString(sum[:]), data))
	assert.NoError(t, VerifyTransferHash(hex.EncodeToString(sum[:]), data))
	assert.ErrorIs(t, VerifyTransferHash(ContentHash([]byte("other")), data), ErrHashMismatch)
	assert.ErrorIs(t, VerifyTransferHash("not-a-hash", data), ErrHashMismatch)
	assert.ErrorIs(t, VerifyTransferHash("", data), ErrHashMismatch)
}
