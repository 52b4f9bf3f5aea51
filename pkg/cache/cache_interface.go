package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Take when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// Cache interface định nghĩa contract cho cache layer
// Cho phép swap implementation (Redis, in-memory cho tests)
type Cache interface {
	// Get lấy data từ cache và unmarshal vào dest
	// Returns: (found bool, error)
	// - found = true: cache hit, data đã unmarshal vào dest
	// - found = false: cache miss, dest không bị thay đổi
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set lưu data vào cache với TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Take đọc rồi xóa key trong một lần (single-use tokens)
	// Returns ErrCacheMiss nếu key không tồn tại
	Take(ctx context.Context, key string, dest interface{}) error

	// Delete xóa các keys khỏi cache
	Delete(ctx context.Context, keys ...string) error

	// Exists kiểm tra key còn tồn tại
	Exists(ctx context.Context, key string) (bool, error)

	// Ping kiểm tra connection
	Ping(ctx context.Context) error
}
