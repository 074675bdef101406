package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/systmms/vaultpath/internal/errors"
)

// GCPConfig configures the Google Secret Manager backend.
type GCPConfig struct {
	ProjectID             string
	SecretName            string
	ServiceAccountKeyPath string
}

// GCP stores the whole configuration map as one JSON document in a Google
// Secret Manager secret, one version per save.
type GCP struct {
	cfg    GCPConfig
	client *secretmanager.Client
}

// NewGCP creates a Google Secret Manager backend. Credentials come from
// the ambient environment unless a service account key path is set.
func NewGCP(ctx context.Context, cfg GCPConfig) (*GCP, error) {
	if cfg.ProjectID == "" {
		cfg.ProjectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if cfg.ProjectID == "" {
		return nil, errors.ConfigError{
			Field:      "project_id",
			Message:    "project_id is required for the GCP storage backend",
			Suggestion: "Set project_id in the profile or the GOOGLE_CLOUD_PROJECT environment variable",
		}
	}

	var clientOpts []option.ClientOption
	if cfg.ServiceAccountKeyPath != "" {
		path := cfg.ServiceAccountKeyPath
		if strings.HasPrefix(path, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, errors.StorageError{Backend: "gcp", Op: "init", Err: err}
			}
			path = filepath.Join(home, path[2:])
		}
		clientOpts = append(clientOpts, option.WithCredentialsFile(path))
	}

	client, err := secretmanager.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, errors.StorageError{Backend: "gcp", Op: "init", Err: err}
	}

	return &GCP{cfg: cfg, client: client}, nil
}

// Close releases the underlying gRPC connection.
func (g *GCP) Close() error {
	return g.client.Close()
}

func (g *GCP) Get(ctx context.Context, key Key) (string, error) {
	values, err := g.load(ctx)
	if err != nil {
		return "", err
	}
	return values[string(key)], nil
}

func (g *GCP) Set(ctx context.Context, key Key, value string) error {
	values, err := g.load(ctx)
	if err != nil {
		return err
	}
	values[string(key)] = value
	return g.save(ctx, values)
}

func (g *GCP) Delete(ctx context.Context, key Key) error {
	values, err := g.load(ctx)
	if err != nil {
		return err
	}
	delete(values, string(key))
	return g.save(ctx, values)
}

func (g *GCP) secretResource() string {
	return fmt.Sprintf("projects/%s/secrets/%s", g.cfg.ProjectID, g.cfg.SecretName)
}

func (g *GCP) load(ctx context.Context) (map[string]string, error) {
	resp, err := g.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: g.secretResource() + "/versions/latest",
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return make(map[string]string), nil
		}
		return nil, errors.StorageError{Backend: "gcp", Op: "get", Err: err}
	}

	values := make(map[string]string)
	if err := json.Unmarshal(resp.Payload.Data, &values); err != nil {
		return nil, errors.StorageError{Backend: "gcp", Op: "decode", Err: err}
	}
	return values, nil
}

func (g *GCP) save(ctx context.Context, values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return errors.StorageError{Backend: "gcp", Op: "encode", Err: err}
	}

	if err := g.ensureSecret(ctx); err != nil {
		return err
	}

	_, err = g.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  g.secretResource(),
		Payload: &secretmanagerpb.SecretPayload{Data: data},
	})
	if err != nil {
		return errors.StorageError{Backend: "gcp", Op: "put", Err: err}
	}
	return nil
}

func (g *GCP) ensureSecret(ctx context.Context) error {
	_, err := g.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   "projects/" + g.cfg.ProjectID,
		SecretId: g.cfg.SecretName,
		Secret: &secretmanagerpb.Secret{
			Replication: &secretmanagerpb.Replication{
				Replication: &secretmanagerpb.Replication_Automatic_{
					Automatic: &secretmanagerpb.Replication_Automatic{},
				},
			},
		},
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return errors.StorageError{Backend: "gcp", Op: "create", Err: err}
	}
	return nil
}
