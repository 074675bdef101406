package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/systmms/vaultpath/internal/errors"
)

// AzureClientAPI is the subset of the azsecrets client used by the
// backend. Declared as an interface so tests can inject a mock.
type AzureClientAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
	SetSecret(ctx context.Context, name string, parameters azsecrets.SetSecretParameters, options *azsecrets.SetSecretOptions) (azsecrets.SetSecretResponse, error)
}

// AzureConfig configures the Azure Key Vault backend. With no explicit
// credential fields the default credential chain applies (environment,
// workload identity, managed identity, CLI).
type AzureConfig struct {
	VaultURL     string
	SecretName   string
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Azure stores the whole configuration map as one JSON document in an
// Azure Key Vault secret.
type Azure struct {
	cfg    AzureConfig
	client AzureClientAPI
}

// AzureOption configures the Azure backend.
type AzureOption func(*Azure)

// WithAzureClient sets a custom client, for tests.
func WithAzureClient(client AzureClientAPI) AzureOption {
	return func(a *Azure) { a.client = client }
}

// NewAzure creates an Azure Key Vault backend.
func NewAzure(cfg AzureConfig, opts ...AzureOption) (*Azure, error) {
	if cfg.VaultURL == "" {
		return nil, errors.ConfigError{
			Field:      "vault_url",
			Message:    "vault_url is required for the Azure storage backend",
			Suggestion: "Provide the Key Vault URL (e.g., https://my-vault.vault.azure.net/)",
		}
	}
	if _, err := url.Parse(cfg.VaultURL); err != nil {
		return nil, errors.ConfigError{
			Field:      "vault_url",
			Value:      cfg.VaultURL,
			Message:    "invalid vault_url",
			Suggestion: "Use format: https://vault-name.vault.azure.net/",
		}
	}

	a := &Azure{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.client == nil {
		cred, err := azureCredential(cfg)
		if err != nil {
			return nil, errors.StorageError{Backend: "azure", Op: "init", Err: err}
		}
		client, err := azsecrets.NewClient(cfg.VaultURL, cred, nil)
		if err != nil {
			return nil, errors.StorageError{Backend: "azure", Op: "init", Err: err}
		}
		a.client = client
	}

	return a, nil
}

func azureCredential(cfg AzureConfig) (azcore.TokenCredential, error) {
	if cfg.TenantID != "" && cfg.ClientID != "" && cfg.ClientSecret != "" {
		return azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	}
	return azidentity.NewDefaultAzureCredential(nil)
}

func (a *Azure) Get(ctx context.Context, key Key) (string, error) {
	values, err := a.load(ctx)
	if err != nil {
		return "", err
	}
	return values[string(key)], nil
}

func (a *Azure) Set(ctx context.Context, key Key, value string) error {
	values, err := a.load(ctx)
	if err != nil {
		return err
	}
	values[string(key)] = value
	return a.save(ctx, values)
}

func (a *Azure) Delete(ctx context.Context, key Key) error {
	values, err := a.load(ctx)
	if err != nil {
		return err
	}
	delete(values, string(key))
	return a.save(ctx, values)
}

func (a *Azure) load(ctx context.Context) (map[string]string, error) {
	resp, err := a.client.GetSecret(ctx, a.cfg.SecretName, "", nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if stderrors.As(err, &respErr) && respErr.StatusCode == 404 {
			return make(map[string]string), nil
		}
		return nil, errors.StorageError{Backend: "azure", Op: "get", Err: err}
	}
	if resp.Value == nil {
		return make(map[string]string), nil
	}

	values := make(map[string]string)
	if err := json.Unmarshal([]byte(*resp.Value), &values); err != nil {
		return nil, errors.StorageError{Backend: "azure", Op: "decode", Err: err}
	}
	return values, nil
}

func (a *Azure) save(ctx context.Context, values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return errors.StorageError{Backend: "azure", Op: "encode", Err: err}
	}

	_, err = a.client.SetSecret(ctx, a.cfg.SecretName, azsecrets.SetSecretParameters{
		Value: to.Ptr(string(data)),
	}, nil)
	if err != nil {
		return errors.StorageError{Backend: "azure", Op: "put", Err: err}
	}
	return nil
}
