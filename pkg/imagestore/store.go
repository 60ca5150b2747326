// Package imagestore uploads trip cover images and returns the URL they are
// served from.
package imagestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/NomadCrew/tripsync-backend/config"
	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/gabriel-vasile/mimetype"
)

// Store persists an object and reports its public URL.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

var allowedMimes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Sniff detects the content type of data and rejects anything but a common
// web image format. It returns the MIME type and a file extension.
func Sniff(data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", apperrors.ValidationFailed("empty image", "no bytes to store")
	}
	detected := mimetype.Detect(data).String()
	ext, ok := allowedMimes[detected]
	if !ok {
		return "", "", apperrors.ValidationFailed("unsupported image type", fmt.Sprintf("MIME type %s is not allowed", detected))
	}
	return detected, ext, nil
}

// GroupImageKey is where a trip's cover image lives.
func GroupImageKey(tripID, ext string) string {
	return fmt.Sprintf("group-images/%s/cover%s", tripID, ext)
}

// validateKey rejects storage keys containing path traversal segments.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty storage key")
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return fmt.Errorf("path traversal detected in storage key")
		}
	}
	return nil
}

// disabled is used when no provider is configured.
type disabled struct{}

func (disabled) Put(context.Context, string, []byte, string) (string, error) {
	return "", apperrors.NotConfigured("image storage")
}

// New builds the store selected by cfg.Provider.
func New(ctx context.Context, cfg config.StorageConfig, ext config.ExternalServices) (Store, error) {
	switch cfg.Provider {
	case config.StorageProviderR2:
		return NewR2Store(ctx, cfg.R2AccountID, cfg.Bucket, cfg.R2AccessKeyID, cfg.R2SecretAccessKey, cfg.PublicBaseURL)
	case config.StorageProviderSupabase:
		return NewSupabaseStore(ext.SupabaseURL, ext.SupabaseServiceKey, cfg.Bucket)
	case config.StorageProviderNone, "":
		return disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
