package secrets

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore keeps credentials in the operating system keyring (Keychain,
// Secret Service, or Windows Credential Manager).
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring-backed store under the given service
// name.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = "notesyncd"
	}
	return &KeyringStore{service: service}
}

func (s *KeyringStore) Get(key string) (string, error) {
	secret, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to query keyring: %w", err)
	}
	return secret, nil
}

func (s *KeyringStore) Set(key, secret string) error {
	if err := keyring.Set(s.service, key, secret); err != nil {
		return fmt.Errorf("failed to store credential in keyring: %w", err)
	}
	return nil
}

func (s *KeyringStore) Delete(key string) error {
	if err := keyring.Delete(s.service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete credential from keyring: %w", err)
	}
	return nil
}
