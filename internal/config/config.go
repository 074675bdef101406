// Package config loads the CLI profile file (vaultpath.yaml) and turns a
// profile's storage section into a concrete backend.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/systmms/vaultpath/internal/errors"
	"github.com/systmms/vaultpath/internal/storage"
)

// DefaultFileName is the profile file looked up in the working directory
// and then in the user config directory.
const DefaultFileName = "vaultpath.yaml"

// Config is the top-level profile file.
type Config struct {
	DefaultProfile string             `yaml:"default_profile,omitempty"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Profile is one named client configuration.
type Profile struct {
	Hostname  string        `yaml:"hostname"`
	Storage   StorageConfig `yaml:"storage"`
	CachePath string        `yaml:"cache_path,omitempty"`
}

// StorageConfig selects and configures the configuration storage backend.
type StorageConfig struct {
	Backend string `yaml:"backend"`

	// file
	Path string `yaml:"path,omitempty"`

	// keyring
	Service string `yaml:"service,omitempty"`

	// cloud backends
	SecretName string `yaml:"secret_name,omitempty"`

	// aws
	Region   string `yaml:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`

	// gcp
	ProjectID             string `yaml:"project_id,omitempty"`
	ServiceAccountKeyPath string `yaml:"service_account_key_path,omitempty"`

	// azure
	VaultURL     string `yaml:"vault_url,omitempty"`
	TenantID     string `yaml:"tenant_id,omitempty"`
	ClientID     string `yaml:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret,omitempty"`
}

// Load reads and validates a profile file. An empty path searches the
// default locations.
func Load(path string) (*Config, error) {
	if path == "" {
		found, err := findConfigFile()
		if err != nil {
			return nil, err
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.UserError{
			Message:    fmt.Sprintf("cannot read profile file %s", path),
			Suggestion: "Run 'vaultpath init' to create one",
			Err:        err,
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.ConfigError{
			Field:   "profiles",
			Message: fmt.Sprintf("invalid YAML in %s: %v", path, err),
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile() (string, error) {
	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName, nil
	}
	configDir, err := os.UserConfigDir()
	if err == nil {
		candidate := filepath.Join(configDir, "vaultpath", DefaultFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.UserError{
		Message:    "no profile file found",
		Details:    fmt.Sprintf("looked for %s in the working directory and the user config directory", DefaultFileName),
		Suggestion: "Run 'vaultpath init' to create one",
	}
}

// Validate checks cross-field constraints the YAML decoder cannot.
func (c *Config) Validate() error {
	if len(c.Profiles) == 0 {
		return errors.ConfigError{
			Field:   "profiles",
			Message: "at least one profile is required",
		}
	}
	if c.DefaultProfile != "" {
		if _, ok := c.Profiles[c.DefaultProfile]; !ok {
			return errors.ConfigError{
				Field:      "default_profile",
				Value:      c.DefaultProfile,
				Message:    "default_profile does not name a defined profile",
				Suggestion: "Add the profile or fix the name",
			}
		}
	}
	for name, p := range c.Profiles {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}
	return nil
}

// Validate checks one profile.
func (p *Profile) Validate() error {
	if p.Hostname == "" {
		return errors.ConfigError{
			Field:      "hostname",
			Message:    "hostname is required",
			Suggestion: "Set the vault service hostname, e.g. vault.example.com",
		}
	}

	switch p.Storage.Backend {
	case "", "memory":
	case "file":
		if p.Storage.Path == "" {
			return errors.ConfigError{
				Field:      "storage.path",
				Message:    "path is required for the file backend",
				Suggestion: "Point it at a writable location, e.g. ~/.config/vaultpath/client.json",
			}
		}
	case "keyring":
	case "aws", "gcp", "azure":
		if p.Storage.SecretName == "" {
			return errors.ConfigError{
				Field:      "storage.secret_name",
				Message:    fmt.Sprintf("secret_name is required for the %s backend", p.Storage.Backend),
				Suggestion: "Name the remote secret that holds the client configuration",
			}
		}
	default:
		return errors.ConfigError{
			Field:      "storage.backend",
			Value:      p.Storage.Backend,
			Message:    "unknown storage backend",
			Suggestion: "Use one of: memory, file, keyring, aws, gcp, azure",
		}
	}
	return nil
}

// Select returns the named profile, or the default when name is empty.
func (c *Config) Select(name string) (Profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	if name == "" && len(c.Profiles) == 1 {
		for only := range c.Profiles {
			name = only
		}
	}
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, errors.UserError{
			Message:    fmt.Sprintf("profile %q not found", name),
			Suggestion: "Check vaultpath.yaml or pass --profile with a defined name",
		}
	}
	return p, nil
}

// OpenStorage builds the storage backend a profile selects.
func (p *Profile) OpenStorage(ctx context.Context) (storage.Storage, error) {
	s := p.Storage
	switch s.Backend {
	case "", "memory":
		return storage.NewMemory(), nil
	case "file":
		path := s.Path
		if home, err := os.UserHomeDir(); err == nil && len(path) > 1 && path[:2] == "~/" {
			path = filepath.Join(home, path[2:])
		}
		return storage.NewFile(path), nil
	case "keyring":
		service := s.Service
		if service == "" {
			service = "vaultpath"
		}
		return storage.NewKeyring(service), nil
	case "aws":
		return storage.NewAWS(ctx, storage.AWSConfig{
			SecretName: s.SecretName,
			Region:     s.Region,
			Endpoint:   s.Endpoint,
		})
	case "gcp":
		return storage.NewGCP(ctx, storage.GCPConfig{
			ProjectID:             s.ProjectID,
			SecretName:            s.SecretName,
			ServiceAccountKeyPath: s.ServiceAccountKeyPath,
		})
	case "azure":
		return storage.NewAzure(storage.AzureConfig{
			VaultURL:     s.VaultURL,
			SecretName:   s.SecretName,
			TenantID:     s.TenantID,
			ClientID:     s.ClientID,
			ClientSecret: s.ClientSecret,
		})
	default:
		return nil, errors.ConfigError{
			Field:   "storage.backend",
			Value:   s.Backend,
			Message: "unknown storage backend",
		}
	}
}

// Save writes the config back to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode profile file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o600)
}
