package cache

import (
	"context"
	"time"
)

// Cache interface định nghĩa contract cho key-value store (Redis).
// Chỉ dùng cho dữ liệu ngắn hạn: đếm số lần login sai, blacklist token.
// Không cache entity (book/review) ở đây.
type Cache interface {
	// Set lưu value (JSON-encoded) với TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete xóa các keys
	Delete(ctx context.Context, keys ...string) error

	Exists(ctx context.Context, key string) (bool, error)

	// Increment tăng counter, trả về giá trị sau khi tăng
	Increment(ctx context.Context, key string) (int64, error)

	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Ping kiểm tra connection
	Ping(ctx context.Context) error
}
