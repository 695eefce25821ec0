package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/cryptox"
	"github.com/dmitrijs2005/photovault/internal/dto"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// KeyService stores the passphrase-sealed private key of each user. The
// server cannot open the blob.
type KeyService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewKeyService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *KeyService {
	return &KeyService{db: db, repomanager: m, log: log}
}

// Get returns the escrow blob of userID, or nil when none is stored.
func (s *KeyService) Get(ctx context.Context, userID uuid.UUID) (*string, error) {
	keys, err := s.repomanager.UserKeys(s.db).Get(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &keys.PrivateKey, nil
}

// Save stores the first keys a user submits. Later calls get
// common.ErrKeysExist so concurrent devices converge on one keypair.
func (s *KeyService) Save(ctx context.Context, userID uuid.UUID, req *dto.SaveKeysRequest) error {
	if req.PrivateKey == "" {
		return fmt.Errorf("empty private key: %w", common.ErrValidation)
	}
	if _, err := cryptox.ParsePublicKeyPEM(req.PublicKey); err != nil {
		return fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	err := s.repomanager.UserKeys(s.db).Save(ctx, &models.UserKeys{
		UserID:     userID,
		PrivateKey: req.PrivateKey,
		PublicKey:  req.PublicKey,
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "user keys stored", "user", userID)
	return nil
}
