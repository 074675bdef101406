package storage

import (
	"context"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAzureClient struct {
	value *string
}

func (m *mockAzureClient) GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	if m.value == nil {
		return azsecrets.GetSecretResponse{}, &azcore.ResponseError{StatusCode: http.StatusNotFound}
	}
	return azsecrets.GetSecretResponse{Secret: azsecrets.Secret{Value: m.value}}, nil
}

func (m *mockAzureClient) SetSecret(ctx context.Context, name string, parameters azsecrets.SetSecretParameters, options *azsecrets.SetSecretOptions) (azsecrets.SetSecretResponse, error) {
	m.value = parameters.Value
	return azsecrets.SetSecretResponse{}, nil
}

func TestAzureStorage(t *testing.T) {
	t.Parallel()

	s, err := NewAzure(
		AzureConfig{VaultURL: "https://my-vault.vault.azure.net/", SecretName: "vaultpath-config"},
		WithAzureClient(&mockAzureClient{}))
	require.NoError(t, err)

	exerciseStorage(t, s)
}

func TestAzureStorageExistingSecret(t *testing.T) {
	t.Parallel()

	mock := &mockAzureClient{value: to.Ptr(`{"appKey":"key-material"}`)}
	s, err := NewAzure(
		AzureConfig{VaultURL: "https://my-vault.vault.azure.net/", SecretName: "vaultpath-config"},
		WithAzureClient(mock))
	require.NoError(t, err)

	v, err := s.Get(context.Background(), KeyAppKey)
	require.NoError(t, err)
	assert.Equal(t, "key-material", v)
}

func TestAzureStorageRequiresVaultURL(t *testing.T) {
	t.Parallel()

	_, err := NewAzure(AzureConfig{SecretName: "vaultpath-config"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vault_url")
}
