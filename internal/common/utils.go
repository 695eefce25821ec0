package common

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// MakeRandHexString generates size random bytes and returns them hex encoded.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray overwrites b with zeros. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// VariantPartName returns the multipart part name carrying variant.
// An empty variant or "original" addresses the original asset.
func VariantPartName(variant string) string {
	if variant == "" || variant == OriginalPartName {
		return OriginalPartName
	}
	return ThumbnailPartPrefix + variant
}

// IsKnownPartName reports whether name is the original part or a
// thumbnail part with a non-empty variant.
func IsKnownPartName(name string) bool {
	if name == OriginalPartName {
		return true
	}
	return strings.HasPrefix(name, ThumbnailPartPrefix) && len(name) > len(ThumbnailPartPrefix)
}
