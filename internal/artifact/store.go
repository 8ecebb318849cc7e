package artifact

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"helloasso-export/internal/domain"
)

const (
	// fileName is the fixed object basename; the period directory above it
	// makes the full key unique per month.
	fileName = "payments.csv"

	contentType = "text/csv; charset=utf-8"

	uploadTimeout = 2 * time.Minute
)

// ObjectKey returns the deterministic storage key for a period's export:
// [<prefix>/]<YYYY-MM>/payments.csv. Re-running a period always targets the
// same object.
func ObjectKey(prefix string, period domain.Period) string {
	return path.Join(prefix, period.String(), fileName)
}

// Store persists export documents in a GCS bucket and issues time-limited
// retrieval links.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
	ttl    time.Duration
}

// NewStore creates a store on the given bucket. It assumes Application
// Default Credentials are configured. ttl bounds the validity of the signed
// URLs issued by SignedURL.
func NewStore(ctx context.Context, bucket, prefix string, ttl time.Duration, opts ...option.ClientOption) (*Store, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("artifact: create storage client: %w", err)
	}
	return &Store{client: client, bucket: bucket, prefix: prefix, ttl: ttl}, nil
}

// Put uploads the document under the period's deterministic key, overwriting
// any previous export of the same period. Returns the object key.
func (s *Store) Put(ctx context.Context, period domain.Period, doc []byte) (string, error) {
	key := ObjectKey(s.prefix, period)

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(doc); err != nil {
		_ = w.Close()
		return "", domain.Errorf(domain.KindArtifact, "upload %s: %w", key, err)
	}
	// Close finalizes the upload; most failures surface here.
	if err := w.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return "", domain.Errorf(domain.KindArtifact, "upload %s: bucket %s not found: %w", key, s.bucket, err)
		}
		return "", domain.Errorf(domain.KindArtifact, "finalize upload %s: %w", key, err)
	}
	return key, nil
}

// SignedURL issues a V4 GET link for a stored export, valid for the
// configured TTL from now.
func (s *Store) SignedURL(key string) (string, time.Time, error) {
	expires := time.Now().Add(s.ttl)
	url, err := s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: expires,
	})
	if err != nil {
		return "", time.Time{}, domain.Errorf(domain.KindArtifact, "sign %s: %w", key, err)
	}
	return url, expires, nil
}

// Close releases the underlying client connection.
func (s *Store) Close() error {
	return s.client.Close()
}
