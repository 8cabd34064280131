package blobstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type memObject struct {
	content      []byte
	metadata     map[string]string
	lastModified time.Time
}

// MemoryStore is an in-memory Store used by tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]memObject

	// FailOps, when set, makes the named operations return an error. Keys
	// are "list", "get", "put", "copy", "delete".
	FailOps map[string]error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

// Seed inserts an object with an explicit modification time.
func (s *MemoryStore) Seed(key string, content []byte, lastModified time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memObject{content: content, lastModified: lastModified}
}

// Metadata returns the metadata stored with key, if any.
func (s *MemoryStore) Metadata(key string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj, ok := s.objects[key]; ok {
		return obj.metadata
	}
	return nil
}

// Keys returns every stored key, sorted.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *MemoryStore) failure(op string) error {
	if s.FailOps == nil {
		return nil
	}
	return s.FailOps[op]
}

// List returns info for every object under prefix.
func (s *MemoryStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := s.failure("list"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var infos []ObjectInfo
	for k, obj := range s.objects {
		if strings.HasPrefix(k, prefix) {
			infos = append(infos, ObjectInfo{
				Key:          k,
				SizeBytes:    int64(len(obj.content)),
				LastModified: obj.lastModified,
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// Get returns the content at key.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.failure("get"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	return append([]byte(nil), obj.content...), nil
}

// Put writes content at key with optional metadata.
func (s *MemoryStore) Put(ctx context.Context, key string, content []byte, metadata map[string]string) error {
	if err := s.failure("put"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memObject{
		content:      append([]byte(nil), content...),
		metadata:     metadata,
		lastModified: time.Now().UTC(),
	}
	return nil
}

// Copy duplicates srcKey to dstKey with metadata.
func (s *MemoryStore) Copy(ctx context.Context, srcKey, dstKey string, metadata map[string]string) error {
	if err := s.failure("copy"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.objects[srcKey]
	if !ok {
		return fmt.Errorf("object not found: %s", srcKey)
	}
	s.objects[dstKey] = memObject{
		content:      append([]byte(nil), src.content...),
		metadata:     metadata,
		lastModified: time.Now().UTC(),
	}
	return nil
}

// Delete removes the object at key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := s.failure("delete"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("object not found: %s", key)
	}
	delete(s.objects, key)
	return nil
}

// Exists reports whether key is present.
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}
