package secrets

import (
	"context"
	"fmt"

	sdk "github.com/bitwarden/sdk-go"

	"gatemini/pkg/logging"
)

// BWSProvider resolves references as Bitwarden Secrets Manager secret IDs.
// It is registered under alias "bws" only when secrets.providers.bws.enabled
// is true in config.yaml; the access token is never logged.
type BWSProvider struct {
	client sdk.BitwardenClientInterface
	orgID  string
}

// NewBWSProvider logs in to Bitwarden Secrets Manager with accessToken and
// returns a provider that resolves references as secret UUIDs.
func NewBWSProvider(accessToken, orgID string) (*BWSProvider, error) {
	client, err := sdk.NewBitwardenClient(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create bitwarden client: %w", err)
	}
	if err := client.AccessTokenLogin(accessToken, nil); err != nil {
		client.Close()
		return nil, fmt.Errorf("bitwarden access token login: %w", err)
	}
	logging.Info("Secrets-BWS", "logged in to Bitwarden Secrets Manager for org %s", orgID)
	return &BWSProvider{client: client, orgID: orgID}, nil
}

func (p *BWSProvider) Name() string {
	return "bws"
}

func (p *BWSProvider) Resolve(_ context.Context, reference string) (string, error) {
	resp, err := p.client.Secrets().Get(reference)
	if err != nil {
		return "", fmt.Errorf("bitwarden secret %q: %w", reference, err)
	}
	return resp.Value, nil
}

// Close releases the underlying Bitwarden client. Called once at daemon
// shutdown, never per-resolution.
func (p *BWSProvider) Close() {
	p.client.Close()
}
