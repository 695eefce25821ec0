// Package keystore keeps the device copy of each user's RSA private key in
// a bbolt file inside the client data directory.
package keystore

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/cryptox"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// FileName is the keystore file inside the client data directory.
const FileName = "keys.db"

var bucketName = []byte("private_keys")

type Keystore interface {
	// Load returns common.ErrNotFound when no key is stored for userID.
	Load(userID uuid.UUID) (*rsa.PrivateKey, error)
	Store(userID uuid.UUID, key *rsa.PrivateKey) error
}

type BoltKeystore struct {
	db *bolt.DB
}

// Open opens or creates the keystore at path with mode 0600.
func Open(path string) (*BoltKeystore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open keystore %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init keystore: %w", err)
	}
	return &BoltKeystore{db: db}, nil
}

func (k *BoltKeystore) Close() error {
	return k.db.Close()
}

func (k *BoltKeystore) Load(userID uuid.UUID) (*rsa.PrivateKey, error) {
	var der []byte
	err := k.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(userID[:])
		if v == nil {
			return fmt.Errorf("private key of %s: %w", userID, common.ErrNotFound)
		}
		der = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(der)

	return cryptox.ParsePrivateKey(der)
}

func (k *BoltKeystore) Store(userID uuid.UUID, key *rsa.PrivateKey) error {
	der, err := cryptox.MarshalPrivateKey(key)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(der)

	return k.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(userID[:], der)
	})
}
