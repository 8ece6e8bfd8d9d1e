package memstore

import (
	"context"
	"sync"
	"time"

	"bookreview-backend/internal/shared"
	"bookreview-backend/pkg/cache"
)

// Cache là cache.Cache trong memory. TTL chỉ được ghi lại, không tự hết hạn.
type Cache struct {
	mu     sync.Mutex
	values map[string]interface{}
	ttls   map[string]time.Duration
	Err    error
}

func NewCache() *Cache {
	return &Cache{
		values: make(map[string]interface{}),
		ttls:   make(map[string]time.Duration),
	}
}

var _ cache.Cache = (*Cache)(nil)

func (c *Cache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.values[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	for _, k := range keys {
		delete(c.values, k)
		delete(c.ttls, k)
	}
	return nil
}

func (c *Cache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return false, c.Err
	}
	_, ok := c.values[key]
	return ok, nil
}

func (c *Cache) Increment(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return 0, c.Err
	}
	n, _ := c.values[key].(int64)
	n++
	c.values[key] = n
	return n, nil
}

func (c *Cache) Expire(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.ttls[key] = ttl
	return nil
}

func (c *Cache) Ping(context.Context) error {
	return c.Err
}

// TTL trả về TTL đã set cho key (0 nếu không có)
func (c *Cache) TTL(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttls[key]
}

// ========================================
// TASK ENQUEUER
// ========================================

type Task struct {
	Type    string
	Payload interface{}
}

// Enqueuer ghi lại task thay vì gửi sang asynq
type Enqueuer struct {
	mu    sync.Mutex
	Tasks []Task
	Err   error
}

var _ shared.TaskEnqueuer = (*Enqueuer)(nil)

func (e *Enqueuer) Enqueue(_ context.Context, taskType string, payload interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.Tasks = append(e.Tasks, Task{Type: taskType, Payload: payload})
	return nil
}

// OfType lọc các task đã enqueue theo type
func (e *Enqueuer) OfType(taskType string) []Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Task
	for _, t := range e.Tasks {
		if t.Type == taskType {
			out = append(out, t)
		}
	}
	return out
}
