package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/systmms/vaultpath/internal/errors"
)

// SecretsManagerClientAPI is the subset of the AWS Secrets Manager client
// used by the backend. Declared as an interface so tests can inject a mock.
type SecretsManagerClientAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
}

// AWSConfig configures the AWS Secrets Manager backend. Endpoint and the
// static credential pair exist for LocalStack and tests.
type AWSConfig struct {
	SecretName      string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// AWS stores the whole configuration map as one JSON document in an AWS
// Secrets Manager secret.
type AWS struct {
	cfg    AWSConfig
	client SecretsManagerClientAPI
}

// AWSOption configures the AWS backend.
type AWSOption func(*AWS)

// WithSecretsManagerClient sets a custom client, for tests.
func WithSecretsManagerClient(client SecretsManagerClientAPI) AWSOption {
	return func(a *AWS) { a.client = client }
}

// NewAWS creates an AWS Secrets Manager backend.
func NewAWS(ctx context.Context, cfg AWSConfig, opts ...AWSOption) (*AWS, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	a := &AWS{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.client == nil {
		configOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			configOpts = append(configOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			))
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
		if err != nil {
			return nil, errors.StorageError{Backend: "aws", Op: "init", Err: err}
		}

		var clientOpts []func(*secretsmanager.Options)
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			})
		}
		a.client = secretsmanager.NewFromConfig(awsCfg, clientOpts...)
	}

	return a, nil
}

func (a *AWS) Get(ctx context.Context, key Key) (string, error) {
	values, err := a.load(ctx)
	if err != nil {
		return "", err
	}
	return values[string(key)], nil
}

func (a *AWS) Set(ctx context.Context, key Key, value string) error {
	values, err := a.load(ctx)
	if err != nil {
		return err
	}
	values[string(key)] = value
	return a.save(ctx, values)
}

func (a *AWS) Delete(ctx context.Context, key Key) error {
	values, err := a.load(ctx)
	if err != nil {
		return err
	}
	delete(values, string(key))
	return a.save(ctx, values)
}

func (a *AWS) load(ctx context.Context) (map[string]string, error) {
	out, err := a.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(a.cfg.SecretName),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if stderrors.As(err, &notFound) {
			return make(map[string]string), nil
		}
		return nil, errors.StorageError{Backend: "aws", Op: "get", Err: err}
	}

	var raw string
	switch {
	case out.SecretString != nil:
		raw = *out.SecretString
	case out.SecretBinary != nil:
		raw = string(out.SecretBinary)
	default:
		return make(map[string]string), nil
	}

	values := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, errors.StorageError{Backend: "aws", Op: "decode", Err: err}
	}
	return values, nil
}

func (a *AWS) save(ctx context.Context, values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return errors.StorageError{Backend: "aws", Op: "encode", Err: err}
	}

	_, err = a.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(a.cfg.SecretName),
		SecretString: aws.String(string(data)),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if !stderrors.As(err, &notFound) {
			return errors.StorageError{Backend: "aws", Op: "put", Err: err}
		}
		_, err = a.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
			Name:         aws.String(a.cfg.SecretName),
			SecretString: aws.String(string(data)),
		})
		if err != nil {
			return errors.StorageError{Backend: "aws", Op: "create", Err: err}
		}
	}
	return nil
}
