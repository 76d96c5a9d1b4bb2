// Package object stores binary blobs (archived screenshots) under string keys.
package object

import (
	"context"
	"fmt"
	"io"
	"path"

	"codm-backend/internal/shared/util"
)

// Store saves and retrieves blobs by key. Keys use forward slashes.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ScreenshotKey builds the archive key for one uploaded screenshot. Owners are
// hashed so raw identities never appear in paths; anonymous uploads share one
// namespace.
func ScreenshotKey(ownerID, batchID string, index int, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	return path.Join("screenshots", util.OwnerNamespace(ownerID), batchID, fmt.Sprintf("%d_%s", index, name)), nil
}
