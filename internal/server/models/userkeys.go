package models

import (
	"time"

	"github.com/google/uuid"
)

// UserKeys holds the escrowed private key blob and the PEM public key of a user.
type UserKeys struct {
	UserID     uuid.UUID
	PrivateKey string
	PublicKey  string
	CreatedAt  time.Time
}
