// Package gsm reads secrets from Google Secret Manager.
package gsm

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/option"
	secretmanager "google.golang.org/api/secretmanager/v1"
)

type Store struct {
	project string
	svc     *secretmanager.Service
}

// New creates a Store for project. Without options the client uses
// Application Default Credentials.
func New(ctx context.Context, project string, opts ...option.ClientOption) (*Store, error) {
	svc, err := secretmanager.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return &Store{project: project, svc: svc}, nil
}

// AccessLatest returns the latest version of the named secret.
func (s *Store) AccessLatest(ctx context.Context, name string) (string, error) {
	resp, err := s.svc.Projects.Secrets.Versions.Access(s.versionName(name)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	if resp.Payload == nil {
		return "", fmt.Errorf("secret %s has no payload", name)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Payload.Data)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret %s: %w", name, err)
	}
	return string(data), nil
}

func (s *Store) versionName(name string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.project, name)
}
