package cryptox

import "errors"

var (
	// ErrDecryption is returned when a ciphertext cannot be opened: wrong key,
	// wrong nonce source or tampered bytes.
	ErrDecryption = errors.New("decryption failed")

	// ErrHashMismatch is returned when received bytes do not match the
	// announced SHA-256 checksum.
	ErrHashMismatch = errors.New("hash mismatch")

	// ErrInvalidKey is returned for malformed key material.
	ErrInvalidKey = errors.New("invalid key")
)
