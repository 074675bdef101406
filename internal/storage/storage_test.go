package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStorage runs the shared backend contract: absent keys read as
// empty, set/get round-trips, delete is idempotent.
func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	v, err := s.Get(ctx, KeyClientID)
	require.NoError(t, err)
	assert.Empty(t, v, "absent key reads as empty")

	require.NoError(t, s.Set(ctx, KeyClientID, "client-123"))
	require.NoError(t, s.Set(ctx, KeyHostname, "vault.example.com"))

	v, err = s.Get(ctx, KeyClientID)
	require.NoError(t, err)
	assert.Equal(t, "client-123", v)

	require.NoError(t, s.Set(ctx, KeyClientID, "client-456"))
	v, err = s.Get(ctx, KeyClientID)
	require.NoError(t, err)
	assert.Equal(t, "client-456", v)

	require.NoError(t, s.Delete(ctx, KeyClientID))
	require.NoError(t, s.Delete(ctx, KeyClientID))
	v, err = s.Get(ctx, KeyClientID)
	require.NoError(t, err)
	assert.Empty(t, v)

	v, err = s.Get(ctx, KeyHostname)
	require.NoError(t, err)
	assert.Equal(t, "vault.example.com", v)
}

func TestMemoryStorage(t *testing.T) {
	t.Parallel()
	exerciseStorage(t, NewMemory())
}

func TestMemoryStorageSeeded(t *testing.T) {
	t.Parallel()

	s := NewMemoryFrom(map[string]string{"hostname": "seed.example.com"})
	v, err := s.Get(context.Background(), KeyHostname)
	require.NoError(t, err)
	assert.Equal(t, "seed.example.com", v)
}

func TestFileStorage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	exerciseStorage(t, NewFile(path))
}

func TestFileStoragePermissions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	s := NewFile(path)
	require.NoError(t, s.Set(context.Background(), KeyAppKey, "secret"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoragePersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	ctx := context.Background()

	require.NoError(t, NewFile(path).Set(ctx, KeyClientID, "client-123"))

	v, err := NewFile(path).Get(ctx, KeyClientID)
	require.NoError(t, err)
	assert.Equal(t, "client-123", v)
}

func TestFileStorageRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "not json at all"},
		{name: "array instead of object", content: `["a","b"]`},
		{name: "non-string value", content: `{"clientId": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := NewFile(path).Get(context.Background(), KeyClientID)
			require.Error(t, err)
		})
	}
}
