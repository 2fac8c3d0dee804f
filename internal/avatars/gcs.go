package avatars

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

type GCSOptions struct {
	Bucket          string
	CredentialsFile string
	PublicURL       string
}

// GCSStore writes avatars to a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	opts   GCSOptions
}

func NewGCSStore(ctx context.Context, opts GCSOptions) (*GCSStore, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}

	return &GCSStore{client: client, opts: opts}, nil
}

func (s *GCSStore) Upload(ctx context.Context, userID uuid.UUID, filename, contentType string, body io.Reader) (string, error) {
	if !IsImage(contentType) {
		return "", ErrUnsupportedType
	}

	key := ObjectKey(userID, filename, contentType)
	w := s.client.Bucket(s.opts.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, body); err != nil {
		w.Close()
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing %s: %w", key, err)
	}

	return gcsObjectURL(s.opts, key), nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func gcsObjectURL(opts GCSOptions, key string) string {
	if opts.PublicURL != "" {
		return joinURL(opts.PublicURL, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", opts.Bucket, key)
}
