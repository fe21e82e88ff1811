package blobstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisBlobPrefix = "csim:blobstore"

const (
	redisBlobFieldData    = "data"
	redisBlobFieldUpdated = "updated"
)

// RedisBlobStore stores each blob as a hash carrying the payload plus its
// last update time. Listing relies on SCAN, never KEYS, so it stays safe on
// shared servers.
type RedisBlobStore struct {
	rc     *redis.Client
	bucket string
	logger *logrus.Entry
}

func NewRedisBlobStore(app *config.AppConfig, logger *logrus.Logger) *RedisBlobStore {
	return &RedisBlobStore{
		rc:     app.RDS,
		bucket: app.BlobStore.Bucket,
		logger: logger.WithField("service", "blobstore"),
	}
}

func (s *RedisBlobStore) formatKey(key string) string {
	return fmt.Sprintf("%s:%s:%s", redisBlobPrefix, s.bucket, key)
}

func (s *RedisBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rc.HGet(ctx, s.formatKey(key), redisBlobFieldData).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrBlobNotFound
	case err != nil:
		return nil, err
	}
	return data, nil
}

func (s *RedisBlobStore) Put(ctx context.Context, key string, data []byte) error {
	fields := map[string]interface{}{
		redisBlobFieldData:    data,
		redisBlobFieldUpdated: time.Now().UTC().Format(time.RFC3339Nano),
	}
	return s.rc.HSet(ctx, s.formatKey(key), fields).Err()
}

func (s *RedisBlobStore) Delete(ctx context.Context, key string) error {
	deleted, err := s.rc.Del(ctx, s.formatKey(key)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrBlobNotFound
	}
	return nil
}

func (s *RedisBlobStore) List(ctx context.Context, prefix string) ([]*BlobInfo, error) {
	keyPrefix := s.formatKey("")
	match := s.formatKey(prefix) + "*"

	var infos []*BlobInfo
	iter := s.rc.Scan(ctx, 0, match, 0).Iterator()
	for iter.Next(ctx) {
		fullKey := iter.Val()
		fields, err := s.rc.HGetAll(ctx, fullKey).Result()
		if err != nil {
			s.logger.WithError(err).Warnln("failed to read blob hash:", fullKey)
			continue
		}
		if len(fields) == 0 {
			continue
		}

		info := &BlobInfo{
			Key:  strings.TrimPrefix(fullKey, keyPrefix),
			Size: int64(len(fields[redisBlobFieldData])),
		}
		if v, ok := fields[redisBlobFieldUpdated]; ok {
			if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
				info.Updated = &t
			}
		}
		infos = append(infos, info)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Key < infos[j].Key
	})
	return infos, nil
}
