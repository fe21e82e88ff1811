package blobstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryBlob struct {
	data    []byte
	updated time.Time
}

// MemoryBlobStore keeps all blobs in process memory. It backs unit tests and
// single node deployments that can live without durable storage.
type MemoryBlobStore struct {
	lock  sync.RWMutex
	blobs map[string]*memoryBlob
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		blobs: make(map[string]*memoryBlob),
	}
}

func (s *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	b, ok := s.blobs[key]
	if !ok {
		return nil, ErrBlobNotFound
	}

	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

func (s *MemoryBlobStore) Put(_ context.Context, key string, data []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.blobs[key] = &memoryBlob{
		data:    stored,
		updated: time.Now().UTC(),
	}
	return nil
}

func (s *MemoryBlobStore) Delete(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.blobs[key]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, key)
	return nil
}

func (s *MemoryBlobStore) List(_ context.Context, prefix string) ([]*BlobInfo, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	var infos []*BlobInfo
	for key, b := range s.blobs {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		updated := b.updated
		infos = append(infos, &BlobInfo{
			Key:     key,
			Size:    int64(len(b.data)),
			Updated: &updated,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Key < infos[j].Key
	})
	return infos, nil
}
