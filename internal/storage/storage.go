package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("upload too large")
)

// ObjectStore persists uploaded objects and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
}

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageExtension returns the canonical extension for an accepted image content type.
func ImageExtension(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := imageTypes[ct]
	if !ok {
		return "", ErrUnsupportedType
	}
	return ext, nil
}

// ObjectName builds a collision-free name for an upload, keeping the
// original extension only when it agrees with the sniffed type.
func ObjectName(original, contentType string) (string, error) {
	ext, err := ImageExtension(contentType)
	if err != nil {
		return "", err
	}
	if orig := strings.ToLower(path.Ext(original)); orig == ".jpeg" && ext == ".jpg" {
		ext = orig
	}
	return uuid.NewString() + ext, nil
}
