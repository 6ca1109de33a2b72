// Package contentstore talks to the content-addressed blob store that holds
// scene payloads and render results.
package contentstore

import (
	"context"
)

// ObjectInfo is the metadata the store reports for a blob
type ObjectInfo struct {
	Hash           string `json:"Hash"`
	NumLinks       int    `json:"NumLinks"`
	BlockSize      int64  `json:"BlockSize"`
	LinksSize      int64  `json:"LinksSize"`
	DataSize       int64  `json:"DataSize"`
	CumulativeSize int64  `json:"CumulativeSize"`
}

// Store uploads and downloads immutable blobs by content hash.
// Implementations keep no state between calls.
type Store interface {
	// Upload stores data and returns its content hash.
	// Failures are reported as *domain.UploadError.
	Upload(ctx context.Context, data []byte) (string, error)

	// Download fetches the blob with the given hash into dest, creating parent
	// directories. Either dest is complete or it does not exist.
	// Failures are reported as *domain.DownloadError.
	Download(ctx context.Context, hash, dest string) error

	// Stat returns metadata for hash, or nil when the store does not know it.
	Stat(ctx context.Context, hash string) (*ObjectInfo, error)
}
