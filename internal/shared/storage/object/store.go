package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving and retrieving invoice documents.
type ObjectStore interface {
	// Save stores the reader contents under the given file name and returns
	// the storage key. The key, not the name, identifies the object afterwards.
	Save(ctx context.Context, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	// SaveWithKey stores data at an exact storage key.
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	// Open returns a reader over a stored object.
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// Download copies a stored object to a local file path.
	Download(ctx context.Context, storageKey string, localPath string) error
}
