package pipeline

import (
	"context"
	"time"

	"helloasso-export/internal/domain"
	"helloasso-export/internal/helloasso"
	"helloasso-export/internal/secrets"
)

// CredentialSource resolves the HelloAsso credentials for one run.
type CredentialSource interface {
	Bundle(ctx context.Context) (*secrets.Bundle, error)
}

// PaymentsSource retrieves every payment of a period from the HelloAsso API.
type PaymentsSource interface {
	FetchAll(ctx context.Context, period domain.Period) ([]helloasso.Payment, error)
}

// PaymentsFactory builds a payments source from resolved credentials. The API
// endpoints come out of the secret store, so the source cannot exist before
// the credential step has run.
type PaymentsFactory func(bundle *secrets.Bundle) PaymentsSource

// ArtifactStore persists the rendered document and issues retrieval links.
type ArtifactStore interface {
	Put(ctx context.Context, period domain.Period, doc []byte) (string, error)
	SignedURL(key string) (string, time.Time, error)
}
