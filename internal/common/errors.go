// Package common defines shared constants and sentinel errors used across
// client and server layers of photovault. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation error")

	// File lifecycle errors.
	ErrAlreadySynced   = errors.New("file already synced")
	ErrMissingOriginal = errors.New("original part missing")
	ErrStateRegression = errors.New("file state cannot move backwards")

	// Integrity errors: transfer hash mismatch or undecryptable payload.
	// Retrying the same bytes will not help.
	ErrIntegrity = errors.New("integrity check failed")

	// Key escrow errors.
	ErrKeysExist = errors.New("keys already stored")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
