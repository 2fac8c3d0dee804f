// Package avatars uploads user profile images to object storage and returns
// their public URLs.
package avatars

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/go-contacts/pkg/config"
)

var ErrUnsupportedType = errors.New("avatar must be an image")

// Store persists an avatar and returns the URL it is served from.
type Store interface {
	Upload(ctx context.Context, userID uuid.UUID, filename, contentType string, body io.Reader) (string, error)
}

// New builds the store selected by cfg.Provider.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Provider {
	case "", "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			PublicURL:       cfg.PublicURL,
		})
	case "gcs":
		return NewGCSStore(ctx, GCSOptions{
			Bucket:          cfg.Bucket,
			CredentialsFile: cfg.GCSCredentials,
			PublicURL:       cfg.PublicURL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
}

// IsImage reports whether contentType names an image media type.
func IsImage(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}

// ObjectKey returns avatars/<user id>/<random id><ext>. The extension comes
// from the uploaded filename, or from the content type when the name has none.
func ObjectKey(userID uuid.UUID, filename, contentType string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, `\`, "/"))))
	if !validExt(ext) {
		ext = ""
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), ext)
}

func validExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 {
		return false
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
