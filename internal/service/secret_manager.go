package service

import (
	"context"
	"fmt"

	"jobhire/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretManagerService stores per-user credentials for auto-apply
// integrations (job boards, resume services) in Google Secret Manager.
type SecretManagerService interface {
	StoreUserCredential(ctx context.Context, userID, integration, secret string) error
	GetUserCredential(ctx context.Context, userID, integration string) (string, error)
	DeleteUserCredential(ctx context.Context, userID, integration string) error
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretManagerService(ctx context.Context, cfg *config.Config) (SecretManagerService, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP project ID is not set")
	}

	var opts []option.ClientOption
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &secretManagerService{
		client:    client,
		projectID: cfg.GCPProjectID,
	}, nil
}

func (s *secretManagerService) secretName(userID, integration string) string {
	return fmt.Sprintf("user-%s-%s-credential", userID, integration)
}

func (s *secretManagerService) StoreUserCredential(ctx context.Context, userID, integration, secret string) error {
	name := s.secretName(userID, integration)
	path := fmt.Sprintf("projects/%s/secrets/%s", s.projectID, name)

	_, err := s.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: path})
	if err != nil {
		createReq := &secretmanagerpb.CreateSecretRequest{
			Parent:   fmt.Sprintf("projects/%s", s.projectID),
			SecretId: name,
			Secret: &secretmanagerpb.Secret{
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{
						Automatic: &secretmanagerpb.Replication_Automatic{},
					},
				},
			},
		}
		if _, err := s.client.CreateSecret(ctx, createReq); err != nil {
			return fmt.Errorf("failed to create secret: %w", err)
		}
	}

	addVersionReq := &secretmanagerpb.AddSecretVersionRequest{
		Parent: path,
		Payload: &secretmanagerpb.SecretPayload{
			Data: []byte(secret),
		},
	}
	if _, err := s.client.AddSecretVersion(ctx, addVersionReq); err != nil {
		return fmt.Errorf("failed to add secret version: %w", err)
	}
	return nil
}

func (s *secretManagerService) GetUserCredential(ctx context.Context, userID, integration string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, s.secretName(userID, integration))

	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}
	return string(result.Payload.Data), nil
}

func (s *secretManagerService) DeleteUserCredential(ctx context.Context, userID, integration string) error {
	path := fmt.Sprintf("projects/%s/secrets/%s", s.projectID, s.secretName(userID, integration))

	if err := s.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{Name: path}); err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}
