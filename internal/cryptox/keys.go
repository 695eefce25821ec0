package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// RSAKeyBits is the modulus size of user keypairs.
const RSAKeyBits = 2048

func GenerateKeyPair() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, RSAKeyBits)
}

// WrapKey encrypts a per-file key with RSA-OAEP(SHA-256) and returns the
// standard base64 encoding. OAEP is randomized, so wrapping the same key
// twice gives different envelopes.
func WrapKey(key []byte, pub *rsa.PublicKey) (string, error) {
	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, key, nil)
	if err != nil {
		return "", fmt.Errorf("wrap key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(wrapped), nil
}

// UnwrapKey reverses WrapKey.
func UnwrapKey(wrapped string, priv *rsa.PrivateKey) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return nil, fmt.Errorf("decode key envelope: %w", ErrDecryption)
	}
	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrap key: %w", ErrDecryption)
	}
	if len(key) != FileKeySize {
		return nil, fmt.Errorf("unwrapped key is %d bytes: %w", len(key), ErrInvalidKey)
	}
	return key, nil
}

// PublicKeyPEM encodes the public half of priv as a PKIX "PUBLIC KEY" block.
func PublicKeyPEM(priv *rsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

func ParsePublicKeyPEM(s string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(s))
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("no public key block: %w", ErrInvalidKey)
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", ErrInvalidKey)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T: %w", key, ErrInvalidKey)
	}
	return pub, nil
}

// MarshalPrivateKey returns the PKCS#8 DER form of priv.
func MarshalPrivateKey(priv *rsa.PrivateKey) ([]byte, error) {
	return x509.MarshalPKCS8PrivateKey(priv)
}

// ParsePrivateKey parses a PKCS#8 DER RSA private key.
func ParsePrivateKey(der []byte) (*rsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", ErrInvalidKey)
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T: %w", key, ErrInvalidKey)
	}
	return priv, nil
}
