package blobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/sirupsen/logrus"
)

// ErrBlobNotFound is returned when the requested key does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// BlobInfo describes a stored blob without carrying its payload.
type BlobInfo struct {
	Key     string
	Size    int64
	Updated *time.Time
}

// BlobStore is a flat key/value abstraction over the configured storage
// backend. Keys are slash separated paths; hierarchy is purely a naming
// convention, so listing by prefix is the only grouping primitive.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]*BlobInfo, error)
}

// New returns the driver selected by blob_store.driver_name.
func New(app *config.AppConfig, logger *logrus.Logger) (BlobStore, error) {
	switch app.BlobStore.DriverName {
	case config.BlobDriverRedis:
		return NewRedisBlobStore(app, logger), nil
	case config.BlobDriverNatsKV:
		return NewNatsKvBlobStore(app, logger), nil
	case config.BlobDriverMemory:
		return NewMemoryBlobStore(), nil
	}
	return nil, fmt.Errorf("unsupported blob store driver: %s", app.BlobStore.DriverName)
}
