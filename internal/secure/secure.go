// Package secure wraps memguard to hold client key material (device token,
// app key, transport session key) encrypted in memory and protected from
// swapping.
package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Buffer holds sensitive bytes in an encrypted memguard enclave. The
// plaintext only exists while an Open'd LockedBuffer is alive.
type Buffer struct {
	enclave   *memguard.Enclave
	mu        sync.RWMutex
	destroyed bool
}

// NewBuffer copies data into a protected memory region. The caller should
// zero its own copy afterwards.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{enclave: memguard.NewEnclave(data)}
}

// NewBufferFromString is a convenience wrapper for string-shaped material
// such as tokens read from configuration.
func NewBufferFromString(s string) *Buffer {
	return NewBuffer([]byte(s))
}

// Open decrypts the enclave into a locked buffer. The caller MUST call
// Destroy on the returned LockedBuffer when done to wipe the plaintext.
func (b *Buffer) Open() (*memguard.LockedBuffer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.destroyed || b.enclave == nil {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}
	return b.enclave.Open()
}

// String decrypts the enclave and copies the plaintext out as a string.
// Prefer Open for anything long-lived; this exists for call sites that
// must hand the value to an API taking a string.
func (b *Buffer) String() (string, error) {
	locked, err := b.Open()
	if err != nil {
		return "", err
	}
	defer locked.Destroy()
	return locked.String(), nil
}

// Destroy marks the buffer unusable. Idempotent; after Destroy, Open
// returns an empty buffer. Call memguard.Purge at process exit for full
// cleanup of all enclaves.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}
	b.enclave = nil
	b.destroyed = true
}
