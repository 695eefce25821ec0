package services

import (
	"context"
	"crypto/cipher"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/photovault/internal/client/client"
	"github.com/dmitrijs2005/photovault/internal/client/keystore"
	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/cryptox"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/google/uuid"
)

// KeyService makes the user's private key available on this device.
type KeyService struct {
	client   client.Client
	store    keystore.Keystore
	log      logging.Logger
	generate func() (*rsa.PrivateKey, error)
}

func NewKeyService(c client.Client, store keystore.Keystore, log logging.Logger) *KeyService {
	return &KeyService{client: c, store: store, log: log, generate: cryptox.GenerateKeyPair}
}

// PrivateKey returns the locally stored key. common.ErrNotFound means Init
// has not run on this device.
func (s *KeyService) PrivateKey(userID uuid.UUID) (*rsa.PrivateKey, error) {
	return s.store.Load(userID)
}

// Init returns the user's private key, in order of preference: the local
// keystore, the server escrow recovered with passphrase, or a new keypair
// escrowed on the server. When another device escrows first, the generated
// key is discarded and the winner's key is recovered instead.
func (s *KeyService) Init(ctx context.Context, userID uuid.UUID, passphrase []byte) (*rsa.PrivateKey, error) {
	priv, err := s.store.Load(userID)
	if err == nil {
		return priv, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	aead, nonce, err := cryptox.DerivePassphraseCipher(userID, passphrase)
	if err != nil {
		return nil, err
	}

	blob, err := s.client.GetKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch escrow: %w", err)
	}
	if blob != nil {
		s.log.Info(ctx, "recovering escrowed key", "user", userID)
		return s.recover(userID, *blob, aead, nonce)
	}

	priv, err = s.generate()
	if err != nil {
		return nil, err
	}
	escrowed, err := cryptox.EscrowPrivateKey(priv, aead, nonce)
	if err != nil {
		return nil, err
	}
	pem, err := cryptox.PublicKeyPEM(priv)
	if err != nil {
		return nil, err
	}

	err = s.client.SaveKeys(ctx, escrowed, pem)
	if errors.Is(err, common.ErrKeysExist) {
		s.log.Warn(ctx, "keys escrowed by another device, recovering", "user", userID)
		blob, err = s.client.GetKeys(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch escrow: %w", err)
		}
		if blob == nil {
			return nil, fmt.Errorf("escrow vanished after conflict: %w", common.ErrNotFound)
		}
		return s.recover(userID, *blob, aead, nonce)
	}
	if err != nil {
		return nil, fmt.Errorf("save escrow: %w", err)
	}

	if err := s.store.Store(userID, priv); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "generated and escrowed new keypair", "user", userID)
	return priv, nil
}

func (s *KeyService) recover(userID uuid.UUID, blob string, aead cipher.AEAD, nonce []byte) (*rsa.PrivateKey, error) {
	priv, err := cryptox.RecoverPrivateKey(blob, aead, nonce)
	if err != nil {
		return nil, fmt.Errorf("recover private key (wrong passphrase?): %w", err)
	}
	if err := s.store.Store(userID, priv); err != nil {
		return nil, err
	}
	return priv, nil
}
