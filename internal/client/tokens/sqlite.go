package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tamperscan/internal/client/models"
	"github.com/dmitrijs2005/tamperscan/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/tamperscan/internal/common"
	"github.com/dmitrijs2005/tamperscan/internal/dbx"
)

// SQLiteStore keeps the pair in the local metadata table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save overwrites both entries in one transaction. An empty Refresh removes
// the stored refresh token.
func (s *SQLiteStore) Save(ctx context.Context, pair models.TokenPair) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, common.AccessTokenKey, pair.Access); err != nil {
			return err
		}
		if pair.Refresh == "" {
			return repo.Delete(ctx, common.RefreshTokenKey)
		}
		return repo.Set(ctx, common.RefreshTokenKey, pair.Refresh)
	})
}

func (s *SQLiteStore) SaveAccess(ctx context.Context, access string) error {
	return metadata.NewSQLiteRepository(s.db).Set(ctx, common.AccessTokenKey, access)
}

func (s *SQLiteStore) Get(ctx context.Context) (models.TokenPair, bool, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	access, err := repo.Get(ctx, common.AccessTokenKey)
	if errors.Is(err, common.ErrorNotFound) {
		refresh, rerr := s.refresh(ctx, repo)
		return models.TokenPair{Refresh: refresh}, false, rerr
	}
	if err != nil {
		return models.TokenPair{}, false, fmt.Errorf("read access token: %w", err)
	}

	refresh, err := s.refresh(ctx, repo)
	if err != nil {
		return models.TokenPair{}, false, err
	}
	return models.TokenPair{Access: access, Refresh: refresh}, true, nil
}

func (s *SQLiteStore) refresh(ctx context.Context, repo metadata.Repository) (string, error) {
	refresh, err := repo.Get(ctx, common.RefreshTokenKey)
	if errors.Is(err, common.ErrorNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read refresh token: %w", err)
	}
	return refresh, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return metadata.NewSQLiteRepository(s.db).Delete(ctx, common.AccessTokenKey, common.RefreshTokenKey)
}
