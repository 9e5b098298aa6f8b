package storage

import (
	"context"
	"mime/multipart"
	"strings"
)

// FileStore persists uploaded files and serves back opaque URLs. Implementations
// own path layout; callers only keep the returned URL.
type FileStore interface {
	Upload(ctx context.Context, file *multipart.FileHeader, destinationRoot string) (string, error)
	Delete(url string) error
}

// IsSizeValid reports whether the file fits within maxMB megabytes.
func IsSizeValid(file *multipart.FileHeader, maxMB int64) bool {
	return file.Size <= maxMB<<20
}

// IsTypeValid reports whether the file's declared content type belongs to the
// given category, e.g. category "image" accepts "image/png".
func IsTypeValid(file *multipart.FileHeader, category string) bool {
	contentType := file.Header.Get("Content-Type")
	return strings.HasPrefix(contentType, category+"/")
}
