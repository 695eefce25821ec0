package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rsa"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for the escrow key.
const (
	escrowTime    = 2
	escrowMemory  = 19 * 1024 // KiB
	escrowThreads = 1
	escrowKeyLen  = 32
)

// DerivePassphraseCipher derives the AEAD that seals the escrowed private key.
//
// The user id doubles as the Argon2id salt and its last 12 bytes as the GCM
// nonce. Each user seals exactly one private key, so the nonce is never
// reused under the same derived key.
func DerivePassphraseCipher(userID uuid.UUID, passphrase []byte) (cipher.AEAD, []byte, error) {
	key := argon2.IDKey(passphrase, userID[:], escrowTime, escrowMemory, escrowThreads, escrowKeyLen)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	nonce := make([]byte, 12)
	copy(nonce, userID[4:16])
	return aead, nonce, nil
}

// EscrowPrivateKey seals the PKCS#8 DER form of priv and returns it base64
// encoded, ready to be stored on the server.
func EscrowPrivateKey(priv *rsa.PrivateKey, aead cipher.AEAD, nonce []byte) (string, error) {
	der, err := MarshalPrivateKey(priv)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(der)

	return base64.StdEncoding.EncodeToString(aead.Seal(nil, nonce, der, nil)), nil
}

// RecoverPrivateKey opens an escrow blob. A wrong passphrase yields
// ErrDecryption.
func RecoverPrivateKey(blob string, aead cipher.AEAD, nonce []byte) (*rsa.PrivateKey, error) {
	sealed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("decode escrow blob: %w", ErrDecryption)
	}
	der, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("open escrow blob: %w", ErrDecryption)
	}
	defer common.WipeByteArray(der)

	return ParsePrivateKey(der)
}
