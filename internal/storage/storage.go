// Package storage persists the client's connection configuration: device
// identity, keys, and hostname. Every backend stores the same flat
// string-to-string map; pick one per deployment environment (file for
// workstations, keyring for desktops, a cloud secret store for CI).
package storage

import (
	"context"
	"sync"
)

// Key names one entry in the client configuration.
type Key string

const (
	KeyHostname          Key = "hostname"
	KeyClientID          Key = "clientId"
	KeyClientKey         Key = "clientKey"
	KeyAppKey            Key = "appKey"
	KeyPrivateKey        Key = "privateKey"
	KeyServerPublicKeyID Key = "serverPublicKeyId"
	KeyOwnerPublicKey    Key = "appOwnerPublicKey"
)

// Storage is a key-value store for client configuration. Get returns the
// empty string for absent keys; absence is not an error.
type Storage interface {
	Get(ctx context.Context, key Key) (string, error)
	Set(ctx context.Context, key Key, value string) error
	Delete(ctx context.Context, key Key) error
}

// Memory is an in-process Storage, used for ephemeral clients and tests.
// Safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	values map[Key]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[Key]string)}
}

// NewMemoryFrom creates an in-memory store seeded from a map, for clients
// configured from environment variables.
func NewMemoryFrom(values map[string]string) *Memory {
	m := NewMemory()
	for k, v := range values {
		m.values[Key(k)] = v
	}
	return m
}

func (m *Memory) Get(ctx context.Context, key Key) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

func (m *Memory) Set(ctx context.Context, key Key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(ctx context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
