package cryptox

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscrow_RoundTrip(t *testing.T) {
	priv := loadFixtureKey(t)
	userID := uuid.New()

	aead, nonce, err := DerivePassphraseCipher(userID, []byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, userID[4:16], nonce)

	blob, err := EscrowPrivateKey(priv, aead, nonce)
	require.NoError(t, err)

	aead2, nonce2, err := DerivePassphraseCipher(userID, []byte("correct horse"))
	require.NoError(t, err)
	got, err := RecoverPrivateKey(blob, aead2, nonce2)
	require.NoError(t, err)
	assert.True(t, priv.Equal(got))
}

func TestEscrow_WrongPassphrase(t *testing.T) {
	priv := loadFixtureKey(t)
	userID := uuid.New()

	aead, nonce, err := DerivePassphraseCipher(userID, []byte("right"))
	require.NoError(t, err)
	blob, err := EscrowPrivateKey(priv, aead, nonce)
	require.NoError(t, err)

	wrong, wrongNonce, err := DerivePassphraseCipher(userID, []byte("wrong"))
	require.NoError(t, err)
	_, err = RecoverPrivateKey(blob, wrong, wrongNonce)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestEscrow_BoundToUser(t *testing.T) {
	priv := loadFixtureKey(t)

	aead, nonce, err := DerivePassphraseCipher(uuid.New(), []byte("pass"))
	require.NoError(t, err)
	blob, err := EscrowPrivateKey(priv, aead, nonce)
	require.NoError(t, err)

	other, otherNonce, err := DerivePassphraseCipher(uuid.New(), []byte("pass"))
	require.NoError(t, err)
	_, err = RecoverPrivateKey(blob, other, otherNonce)
	assert.ErrorIs(t, err, ErrDecryption)

	_, err = RecoverPrivateKey("not base64!", aead, nonce)
	assert.ErrorIs(t, err, ErrDecryption)
}
