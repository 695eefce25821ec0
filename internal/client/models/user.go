package models

import "github.com/google/uuid"

// User is the signed-in account of this device.
type User struct {
	ID    uuid.UUID
	Name  string
	Token string
}
