// Package userkeys stores the escrowed key material of each user.
package userkeys

import (
	"context"

	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	// Get returns common.ErrNotFound when the user has no stored keys.
	Get(ctx context.Context, userID uuid.UUID) (*models.UserKeys, error)
	// Save stores keys once. A second Save for the same user fails with
	// common.ErrKeysExist and leaves the first keys in place.
	Save(ctx context.Context, keys *models.UserKeys) error
}
