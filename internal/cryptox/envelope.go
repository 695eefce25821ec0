// Package cryptox implements the client-side envelope encryption used by
// photovault: a random AES-256-GCM key per file, wrapped with the owner's
// RSA public key, and a passphrase-sealed escrow of the RSA private key.
//
// The server only ever sees ciphertext, checksums and wrapped keys.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// FileKeySize is the length of a per-file AES-256 key.
const FileKeySize = 32

// originalPart names the asset whose nonce is derived from the uuid alone.
const originalPart = "original"

// GenerateFileKey returns a fresh random 256-bit key.
func GenerateFileKey() ([]byte, error) {
	key := make([]byte, FileKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt seals plaintext with key using AES-256-GCM.
//
// The nonce is the first 12 bytes of SHA-256 over the 16 raw uuid bytes, so
// a key must never encrypt two different plaintexts under the same uuid.
// The returned transfer hash is base64(SHA-256(ciphertext)) and is what the
// server verifies on upload.
func Encrypt(key []byte, id uuid.UUID, plaintext []byte) (ciphertext []byte, transferHash string, err error) {
	return EncryptPart(key, id, originalPart, plaintext)
}

// Decrypt opens a ciphertext produced by Encrypt. Any failure, including a
// wrong key or a different uuid, is reported as ErrDecryption.
func Decrypt(key []byte, id uuid.UUID, ciphertext []byte) ([]byte, error) {
	return DecryptPart(key, id, originalPart, ciphertext)
}

// EncryptPart is Encrypt for a named part of a file. Derived variants share
// the file key with the original, so their nonce also covers the part name.
// An empty part or "original" behaves exactly like Encrypt.
func EncryptPart(key []byte, id uuid.UUID, part string, plaintext []byte) ([]byte, string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, "", err
	}
	ciphertext := aead.Seal(nil, partNonce(id, part), plaintext, nil)
	return ciphertext, ContentHash(ciphertext), nil
}

// DecryptPart opens a ciphertext produced by EncryptPart with the same part.
func DecryptPart(key []byte, id uuid.UUID, part string, ciphertext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, partNonce(id, part), ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("file %s part %s: %w", id, part, ErrDecryption)
	}
	return plaintext, nil
}

// ContentHash returns base64(SHA-256(data)) in standard encoding.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// VerifyTransferHash checks data against expected, which may be the base64
// or the hex form of its SHA-256 digest.
func VerifyTransferHash(expected string, data []byte) error {
	sum := sha256.Sum256(data)

	want, err := base64.StdEncoding.DecodeString(expected)
	if err != nil || len(want) != sha256.Size {
		want, err = hex.DecodeString(expected)
		if err != nil || len(want) != sha256.Size {
			return fmt.Errorf("malformed checksum %q: %w", expected, ErrHashMismatch)
		}
	}

	if subtle.ConstantTimeCompare(want, sum[:]) != 1 {
		return fmt.Errorf("expected %s, got %s: %w", expected, ContentHash(data), ErrHashMismatch)
	}
	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != FileKeySize {
		return nil, fmt.Errorf("file key is %d bytes: %w", len(key), ErrInvalidKey)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func partNonce(id uuid.UUID, part string) []byte {
	h := sha256.New()
	h.Write(id[:])
	if part != "" && part != originalPart {
		h.Write([]byte(part))
	}
	return h.Sum(nil)[:12]
}
