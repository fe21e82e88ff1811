package blobstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

// NatsKvBlobStore keeps blobs in a JetStream key/value bucket, one key per
// path. NATS restricts key characters, so file names must stay within
// [-/_=.a-zA-Z0-9].
type NatsKvBlobStore struct {
	app    *config.AppConfig
	js     jetstream.JetStream
	logger *logrus.Entry
}

func NewNatsKvBlobStore(app *config.AppConfig, logger *logrus.Logger) *NatsKvBlobStore {
	return &NatsKvBlobStore{
		app:    app,
		js:     app.JetStream,
		logger: logger.WithField("service", "blobstore"),
	}
}

func (s *NatsKvBlobStore) bucket(ctx context.Context) (jetstream.KeyValue, error) {
	kv, err := s.js.KeyValue(ctx, s.app.BlobStore.Bucket)
	switch {
	case errors.Is(err, jetstream.ErrBucketNotFound):
		return s.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:   s.app.BlobStore.Bucket,
			Replicas: s.app.NatsInfo.NumReplicas,
		})
	case err != nil:
		return nil, err
	}
	return kv, nil
}

func (s *NatsKvBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	kv, err := s.js.KeyValue(ctx, s.app.BlobStore.Bucket)
	switch {
	case errors.Is(err, jetstream.ErrBucketNotFound):
		return nil, ErrBlobNotFound
	case err != nil:
		return nil, err
	}

	entry, err := kv.Get(ctx, key)
	switch {
	case errors.Is(err, jetstream.ErrKeyNotFound):
		return nil, ErrBlobNotFound
	case err != nil:
		return nil, err
	}

	return entry.Value(), nil
}

func (s *NatsKvBlobStore) Put(ctx context.Context, key string, data []byte) error {
	kv, err := s.bucket(ctx)
	if err != nil {
		return fmt.Errorf("could not get blob bucket: %w", err)
	}

	_, err = kv.Put(ctx, key, data)
	return err
}

func (s *NatsKvBlobStore) Delete(ctx context.Context, key string) error {
	kv, err := s.js.KeyValue(ctx, s.app.BlobStore.Bucket)
	switch {
	case errors.Is(err, jetstream.ErrBucketNotFound):
		return ErrBlobNotFound
	case err != nil:
		return err
	}

	// a missing key must report ErrBlobNotFound, Purge alone would not
	_, err = kv.Get(ctx, key)
	switch {
	case errors.Is(err, jetstream.ErrKeyNotFound):
		return ErrBlobNotFound
	case err != nil:
		return err
	}

	return kv.Purge(ctx, key)
}

func (s *NatsKvBlobStore) List(ctx context.Context, prefix string) ([]*BlobInfo, error) {
	kv, err := s.js.KeyValue(ctx, s.app.BlobStore.Bucket)
	switch {
	case errors.Is(err, jetstream.ErrBucketNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}

	keys, err := kv.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	var infos []*BlobInfo
	for key := range keys.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		entry, err := kv.Get(ctx, key)
		if err != nil || entry == nil {
			continue
		}
		created := entry.Created()
		infos = append(infos, &BlobInfo{
			Key:     key,
			Size:    int64(len(entry.Value())),
			Updated: &created,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Key < infos[j].Key
	})
	return infos, nil
}
