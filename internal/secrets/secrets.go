package secrets

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"helloasso-export/internal/domain"
)

// Bundle holds the HelloAsso credentials loaded from the secret store.
// Values live only in process memory and must never be logged.
type Bundle struct {
	APIBaseURL   string
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// Names identifies the four secrets backing a Bundle. Each entry is either a
// short secret id resolved against the project or a full resource path.
type Names struct {
	APIURL       string
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// versionAccessor is the slice of the Secret Manager client the provider uses.
type versionAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// Provider reads credential secrets through a single Secret Manager client.
type Provider struct {
	access    versionAccessor
	closeFn   func() error
	projectID string
	names     Names
}

// NewProvider creates a Secret Manager backed provider. It assumes Application
// Default Credentials are configured.
func NewProvider(ctx context.Context, projectID string, names Names, opts ...option.ClientOption) (*Provider, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secrets: create client: %w", err)
	}
	return &Provider{access: client, closeFn: client.Close, projectID: projectID, names: names}, nil
}

// Bundle resolves all four credential secrets. Any access failure is an
// AuthError: the credentials are static configuration, so a missing or
// unreadable secret cannot be recovered within a run.
func (p *Provider) Bundle(ctx context.Context) (*Bundle, error) {
	apiURL, err := p.value(ctx, p.names.APIURL)
	if err != nil {
		return nil, err
	}
	tokenURL, err := p.value(ctx, p.names.TokenURL)
	if err != nil {
		return nil, err
	}
	clientID, err := p.value(ctx, p.names.ClientID)
	if err != nil {
		return nil, err
	}
	clientSecret, err := p.value(ctx, p.names.ClientSecret)
	if err != nil {
		return nil, err
	}
	return &Bundle{
		APIBaseURL:   apiURL,
		TokenURL:     tokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}, nil
}

// Close releases the underlying client connection.
func (p *Provider) Close() error {
	if p.closeFn == nil {
		return nil
	}
	return p.closeFn()
}

func (p *Provider) value(ctx context.Context, name string) (string, error) {
	resp, err := p.access.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resolveName(p.projectID, name),
	})
	if err != nil {
		return "", domain.Errorf(domain.KindAuth, "access secret %s: %w", name, err)
	}
	// Payloads added with gcloud often carry a trailing newline.
	value := strings.TrimSpace(string(resp.GetPayload().GetData()))
	if value == "" {
		return "", domain.Errorf(domain.KindAuth, "secret %s has an empty payload", name)
	}
	return value, nil
}

// resolveName expands a short secret id into a full version resource path.
// Full paths pass through, gaining "/versions/latest" when no version is
// pinned.
func resolveName(projectID, name string) string {
	if strings.Contains(name, "/versions/") {
		return name
	}
	if strings.HasPrefix(name, "projects/") {
		return name + "/versions/latest"
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, name)
}
