package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/vaultpath/internal/config"
	"github.com/systmms/vaultpath/internal/logging"
	"github.com/systmms/vaultpath/internal/storage"
)

func TestInitCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.DefaultFileName)
	clientPath := filepath.Join(dir, "client.json")

	rt := &Runtime{
		ConfigPath: cfgPath,
		Logger:     logging.NewWithWriter(&bytes.Buffer{}, false),
	}

	out, err := runCommand(t, NewInitCommand(rt),
		"--hostname", "vault.example.com",
		"--token", "US:ABC123",
		"--storage", "file",
		"--path", clientPath)
	require.NoError(t, err)
	assert.Contains(t, out, `Profile "default" initialized`)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.DefaultProfile)

	profile, err := cfg.Select("")
	require.NoError(t, err)
	assert.Equal(t, "vault.example.com", profile.Hostname)

	store := storage.NewFile(clientPath)
	token, err := store.Get(context.Background(), storage.KeyClientKey)
	require.NoError(t, err)
	assert.Equal(t, "US:ABC123", token)
}

func TestInitCommandValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{
			name:   "missing hostname",
			args:   []string{"--token", "US:ABC123"},
			errMsg: "Hostname is required",
		},
		{
			name:   "missing token",
			args:   []string{"--hostname", "vault.example.com"},
			errMsg: "token is required",
		},
		{
			name: "file backend without path",
			args: []string{
				"--hostname", "vault.example.com",
				"--token", "US:ABC123",
				"--storage", "file",
			},
			errMsg: "path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rt := &Runtime{Logger: logging.NewWithWriter(&bytes.Buffer{}, false)}
			_, err := runCommand(t, NewInitCommand(rt), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
