// Package credentials persists the operator's session token between CLI runs.
package credentials

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"

	"github.com/pratik-mahalle/darkwatch/internal/config"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

// TokenKey is the config key holding the token in the config file store
const TokenKey = "auth.token"

// KeyringService is the service name under which tokens are kept in the OS keyring
const KeyringService = "darkwatch"

// Store is a client.CredentialProvider that can also forget its token
type Store interface {
	client.CredentialProvider
	Clear() error
}

// ViperStore keeps the token in the CLI config file
type ViperStore struct {
	v     *viper.Viper
	write func() error
}

// NewViperStore returns a store over v; write persists v after a change
func NewViperStore(v *viper.Viper, write func() error) *ViperStore {
	return &ViperStore{v: v, write: write}
}

// GetToken returns the stored token
func (s *ViperStore) GetToken() (string, error) {
	return s.v.GetString(TokenKey), nil
}

// SetToken stores token and writes the config file
func (s *ViperStore) SetToken(token string) error {
	s.v.Set(TokenKey, token)
	if s.write == nil {
		return nil
	}
	if err := s.write(); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// Clear removes the token
func (s *ViperStore) Clear() error {
	return s.SetToken("")
}

// KeyringStore keeps the token in the OS keyring, keyed by account
type KeyringStore struct {
	account string
}

// NewKeyringStore returns a keyring store for account (usually the API URL)
func NewKeyringStore(account string) *KeyringStore {
	return &KeyringStore{account: account}
}

// GetToken returns the stored token, or "" when none is stored
func (s *KeyringStore) GetToken() (string, error) {
	token, err := keyring.Get(KeyringService, s.account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading keyring: %w", err)
	}
	return token, nil
}

// SetToken stores token; an empty token deletes the entry
func (s *KeyringStore) SetToken(token string) error {
	if token == "" {
		return s.Clear()
	}
	if err := keyring.Set(KeyringService, s.account, token); err != nil {
		return fmt.Errorf("writing keyring: %w", err)
	}
	return nil
}

// Clear deletes the keyring entry
func (s *KeyringStore) Clear() error {
	err := keyring.Delete(KeyringService, s.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting keyring entry: %w", err)
	}
	return nil
}

// EnvStore serves a token supplied through the environment. Logins made
// with it last for the process only.
type EnvStore struct {
	*client.StaticCredentials
}

// NewEnvStore returns a store seeded with token
func NewEnvStore(token string) *EnvStore {
	return &EnvStore{StaticCredentials: client.NewStaticCredentials(token)}
}

// Clear forgets the in-memory token
func (s *EnvStore) Clear() error {
	return s.SetToken("")
}

// Open returns the store selected by cfg. v and write back the config file store.
func Open(cfg config.CredentialsConfig, apiURL string, v *viper.Viper, write func() error) (Store, error) {
	switch cfg.Store {
	case config.CredentialStoreConfig, "":
		return NewViperStore(v, write), nil
	case config.CredentialStoreKeyring:
		return NewKeyringStore(apiURL), nil
	case config.CredentialStoreEnv:
		return NewEnvStore(cfg.Token), nil
	default:
		return nil, fmt.Errorf("unsupported credential store: %s", cfg.Store)
	}
}
