package storage

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory object store used by the standalone docs binary
// and unit tests. Semantics mirror MinIOStore.
type MemoryStore struct {
	mu            sync.RWMutex
	objects       map[string]memObject
	bucket        string
	publicBaseURL string
}

type memObject struct {
	data        []byte
	contentType string
}

func NewMemoryStore(bucket, publicBaseURL string) *MemoryStore {
	return &MemoryStore{
		objects:       make(map[string]memObject),
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *MemoryStore) Upload(ctx context.Context, path string, reader io.Reader, size int64, contentType string, overwrite bool) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !overwrite {
		if _, ok := s.objects[path]; ok {
			return ErrObjectExists
		}
	}
	s.objects[path] = memObject{data: data, contentType: contentType}
	return nil
}

func (s *MemoryStore) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[path]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *MemoryStore) Stat(ctx context.Context, path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[path]; !ok {
		return ErrObjectNotFound
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var paths []string
	for p := range s.objects {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *MemoryStore) Remove(ctx context.Context, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		delete(s.objects, p)
	}
	return nil
}

func (s *MemoryStore) PublicURL(path string) string {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return s.publicBaseURL + "/" + url.PathEscape(s.bucket) + "/" + strings.Join(segs, "/")
}
