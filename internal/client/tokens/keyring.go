package tokens

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tamperscan/internal/client/models"
	"github.com/dmitrijs2005/tamperscan/internal/common"
	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the keychain service the entries are filed under.
const DefaultKeyringService = "tamperscan"

// KeyringStore keeps the pair in the OS keychain (macOS Keychain,
// Secret Service, Windows Credential Manager).
type KeyringStore struct {
	service string
}

func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service}
}

func (s *KeyringStore) Save(_ context.Context, pair models.TokenPair) error {
	if err := keyring.Set(s.service, common.AccessTokenKey, pair.Access); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if pair.Refresh == "" {
		return s.delete(common.RefreshTokenKey)
	}
	if err := keyring.Set(s.service, common.RefreshTokenKey, pair.Refresh); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (s *KeyringStore) SaveAccess(_ context.Context, access string) error {
	if err := keyring.Set(s.service, common.AccessTokenKey, access); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	return nil
}

func (s *KeyringStore) Get(_ context.Context) (models.TokenPair, bool, error) {
	refresh, err := s.get(common.RefreshTokenKey)
	if err != nil {
		return models.TokenPair{}, false, err
	}
	access, err := s.get(common.AccessTokenKey)
	if err != nil {
		return models.TokenPair{}, false, err
	}
	return models.TokenPair{Access: access, Refresh: refresh}, access != "", nil
}

func (s *KeyringStore) Clear(_ context.Context) error {
	return errors.Join(s.delete(common.AccessTokenKey), s.delete(common.RefreshTokenKey))
}

func (s *KeyringStore) get(key string) (string, error) {
	v, err := keyring.Get(s.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s token: %w", key, err)
	}
	return v, nil
}

func (s *KeyringStore) delete(key string) error {
	err := keyring.Delete(s.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s token: %w", key, err)
	}
	return nil
}
