package cloud

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/SaiNageswarS/gcs-transfer/logger"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// SecretStore lists and reads Secret Manager secrets by full resource name
// ("projects/<id>/secrets/<name>").
type SecretStore interface {
	ListSecretNames(ctx context.Context, projectID string) ([]string, error)
	AccessLatest(ctx context.Context, secretName string) (string, error)
	Close() error
}

type gcpSecretStore struct {
	client *secretmanager.Client
}

func NewSecretStore(ctx context.Context, credentialsFile string) (SecretStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	return &gcpSecretStore{client: client}, nil
}

func (s *gcpSecretStore) ListSecretNames(ctx context.Context, projectID string) ([]string, error) {
	it := s.client.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{
		Parent: fmt.Sprintf("projects/%s", projectID),
	})

	var names []string
	for {
		secret, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, secret.Name)
	}
	return names, nil
}

func (s *gcpSecretStore) AccessLatest(ctx context.Context, secretName string) (string, error) {
	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("%s/versions/latest", secretName),
	})
	if err != nil {
		return "", err
	}
	return string(result.GetPayload().GetData()), nil
}

func (s *gcpSecretStore) Close() error {
	return s.client.Close()
}

// LoadSecretsIntoEnv exports the latest version of every secret in the project
// as an environment variable named after the secret. Secrets that cannot be
// read are logged and skipped.
func LoadSecretsIntoEnv(ctx context.Context, store SecretStore, projectID string) error {
	if projectID == "" {
		return errors.New("gcp_project_id config not set")
	}

	logger.Info("Loading GCP Secret Manager secrets into environment variables.")

	names, err := store.ListSecretNames(ctx, projectID)
	if err != nil {
		logger.Error("failed to list secrets", zap.Error(err))
		return err
	}

	var secretList []string
	for _, name := range names {
		value, err := store.AccessLatest(ctx, name)
		if err != nil {
			logger.Error("Failed to access secret version", zap.String("secret", name), zap.Error(err))
			continue
		}

		secretName := name[strings.LastIndex(name, "/")+1:]
		if err := os.Setenv(secretName, value); err != nil {
			return err
		}
		secretList = append(secretList, secretName)
	}

	logger.Info("Successfully loaded GCP secrets into environment variables.", zap.Strings("secrets", secretList))
	return nil
}
