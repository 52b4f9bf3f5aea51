package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"storyforge-backend/internal/infrastructure/storage"
)

// =====================================================
// OBJECT STORE
// =====================================================

type ObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	// FailUploads làm Upload trả lỗi (test retry/failure paths)
	FailUploads error
}

var _ storage.ObjectStore = (*ObjectStore)(nil)

func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[string][]byte)}
}

func (s *ObjectStore) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUploads != nil {
		return "", s.FailUploads
	}
	s.objects[key] = append([]byte{}, data...)
	return "http://objects.test/" + key, nil
}

func (s *ObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *ObjectStore) DeleteByPrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			delete(s.objects, k)
		}
	}
	return nil
}

func (s *ObjectStore) PresignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("http://objects.test/%s?expires=%d", key, int(expiry.Seconds())), nil
}

// Keys trả về các key đang lưu, đã sort
func (s *ObjectStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *ObjectStore) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

// =====================================================
// EXPORT ENQUEUER
// =====================================================

type EnqueuedExport struct {
	ExportID string
	Delay    time.Duration
}

type Enqueuer struct {
	mu    sync.Mutex
	Tasks []EnqueuedExport
	Err   error
}

func (e *Enqueuer) EnqueueExport(_ context.Context, exportID string, delay time.Duration) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return "", e.Err
	}
	e.Tasks = append(e.Tasks, EnqueuedExport{ExportID: exportID, Delay: delay})
	return fmt.Sprintf("task-%d", len(e.Tasks)), nil
}
