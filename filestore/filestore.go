package filestore

import (
	"context"
	"errors"
	"io"

	"github.com/danthegoodman1/tablekit/utils"
)

// ErrNotFound is returned by ReadFile for missing keys, whatever the
// backing store's native miss looks like.
var ErrNotFound = errors.New("file not found")

type (
	// FileStore holds exported files under slash-separated keys. Keys carry
	// the partition path, so stores must tolerate multiple segments.
	FileStore interface {
		// WriteFile stores the stream under key, replacing any existing file.
		WriteFile(ctx context.Context, key string, r io.Reader) error

		// ReadFile returns the whole file, ErrNotFound when the key is
		// unknown.
		ReadFile(ctx context.Context, key string) ([]byte, error)
	}
)

// FromEnv picks the store exports write to: local disk when
// EXPORT_DISK_PATH is set, S3 otherwise.
func FromEnv() FileStore {
	if utils.EXPORT_DISK_PATH != "" {
		return NewDiskFileStore(utils.EXPORT_DISK_PATH)
	}
	return &S3FileStore{}
}
