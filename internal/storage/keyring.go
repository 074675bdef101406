package storage

import (
	"context"

	"github.com/zalando/go-keyring"

	"github.com/systmms/vaultpath/internal/errors"
)

// Keyring persists each configuration entry as one OS keyring item
// (macOS Keychain, Linux Secret Service, Windows Credential Manager).
// Suited to desktop use; CI environments should prefer File or a cloud
// backend.
type Keyring struct {
	service string
}

// NewKeyring creates a keyring-backed store. Entries are scoped by the
// given service name so several profiles can coexist on one machine.
func NewKeyring(service string) *Keyring {
	return &Keyring{service: service}
}

func (k *Keyring) Get(ctx context.Context, key Key) (string, error) {
	value, err := keyring.Get(k.service, string(key))
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", errors.StorageError{Backend: "keyring", Op: "get", Err: err}
	}
	return value, nil
}

func (k *Keyring) Set(ctx context.Context, key Key, value string) error {
	if err := keyring.Set(k.service, string(key), value); err != nil {
		return errors.StorageError{Backend: "keyring", Op: "set", Err: err}
	}
	return nil
}

func (k *Keyring) Delete(ctx context.Context, key Key) error {
	err := keyring.Delete(k.service, string(key))
	if err != nil && err != keyring.ErrNotFound {
		return errors.StorageError{Backend: "keyring", Op: "delete", Err: err}
	}
	return nil
}
