package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/vaultpath/internal/config"
	"github.com/systmms/vaultpath/internal/errors"
	"github.com/systmms/vaultpath/internal/logging"
	"github.com/systmms/vaultpath/internal/storage"
)

func NewInitCommand(rt *Runtime) *cobra.Command {
	var (
		hostname   string
		token      string
		backend    string
		path       string
		secretName string
		cachePath  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a profile and store the client credential",
		Long: `Create or update a profile in vaultpath.yaml and store the one-time
client token in the profile's storage backend.

Examples:
  # File-backed profile for a workstation
  vaultpath init --hostname vault.example.com --token US:ABC123 \
    --storage file --path ~/.config/vaultpath/client.json

  # Keyring-backed profile
  vaultpath init --hostname vault.example.com --token US:ABC123 --storage keyring`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if hostname == "" {
				return errors.UserError{
					Message:    "Hostname is required",
					Suggestion: "Use --hostname <vault-hostname>",
				}
			}
			if token == "" {
				return errors.UserError{
					Message:    "A one-time client token is required",
					Suggestion: "Use --token <one-time-token>; tokens are issued by the vault administrator",
				}
			}

			profileName := rt.ProfileName
			if profileName == "" {
				profileName = "default"
			}

			profile := config.Profile{
				Hostname: hostname,
				Storage: config.StorageConfig{
					Backend:    backend,
					Path:       path,
					SecretName: secretName,
				},
				CachePath: cachePath,
			}
			if err := profile.Validate(); err != nil {
				return err
			}

			store, err := profile.OpenStorage(ctx)
			if err != nil {
				return err
			}
			if err := store.Set(ctx, storage.KeyHostname, hostname); err != nil {
				return err
			}
			if err := store.Set(ctx, storage.KeyClientKey, token); err != nil {
				return err
			}

			cfgPath := rt.ConfigPath
			if cfgPath == "" {
				cfgPath = config.DefaultFileName
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				cfg = &config.Config{Profiles: make(map[string]config.Profile)}
			}
			cfg.Profiles[profileName] = profile
			if cfg.DefaultProfile == "" {
				cfg.DefaultProfile = profileName
			}
			if err := cfg.Save(cfgPath); err != nil {
				return err
			}

			rt.Logger.Info("profile %q written to %s", profileName, cfgPath)
			rt.Logger.Debug("stored client token %v", logging.Secret(token))
			fmt.Fprintf(cmd.OutOrStdout(), "Profile %q initialized for %s\n", profileName, hostname)
			return nil
		},
	}

	cmd.Flags().StringVar(&hostname, "hostname", "", "Vault service hostname (required)")
	cmd.Flags().StringVar(&token, "token", "", "One-time client token (required)")
	cmd.Flags().StringVar(&backend, "storage", "file", "Storage backend: memory, file, keyring, aws, gcp, azure")
	cmd.Flags().StringVar(&path, "path", "", "Config file path (file backend)")
	cmd.Flags().StringVar(&secretName, "secret-name", "", "Remote secret name (cloud backends)")
	cmd.Flags().StringVar(&cachePath, "cache", "", "Optional on-disk record cache path")

	return cmd
}
