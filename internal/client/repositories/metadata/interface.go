// Package metadata is the key/value settings table of the local index. It
// holds the sync cursor and the signed-in user.
package metadata

import (
	"context"
	"time"
)

// Well-known keys.
const (
	KeyLastSync  = "last_sync"
	KeyUserID    = "user_id"
	KeyUserName  = "user_name"
	KeyUserToken = "user_token"
)

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)

	// GetTime returns (nil, nil) when key is absent.
	GetTime(ctx context.Context, key string) (*time.Time, error)
	SetTime(ctx context.Context, key string, t time.Time) error
}
