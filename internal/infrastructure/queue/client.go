package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/shared"
)

// taskOption: queue + retry cho từng loại task
type taskOption struct {
	queue    string
	maxRetry int
	timeout  time.Duration
}

var taskOptions = map[string]taskOption{
	shared.TypeProcessBookCover:  {queue: shared.QueueHigh, maxRetry: 3, timeout: 2 * time.Minute},
	shared.TypeReconcileCounters: {queue: shared.QueueDefault, maxRetry: 2, timeout: 10 * time.Minute},
	shared.TypeDeleteBookCover:   {queue: shared.QueueLow, maxRetry: 5, timeout: time.Minute},
}

// Client bọc asynq.Client, implement shared.TaskEnqueuer
type Client struct {
	client *asynq.Client
}

var _ shared.TaskEnqueuer = (*Client)(nil)

func NewClient(opt asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(opt)}
}

// Enqueue marshal payload sang JSON và đẩy vào queue tương ứng với taskType
func (c *Client) Enqueue(ctx context.Context, taskType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", taskType, err)
	}

	task := asynq.NewTask(taskType, data)
	info, err := c.client.EnqueueContext(ctx, task, Options(taskType)...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}

	log.Debug().
		Str("task_id", info.ID).
		Str("type", taskType).
		Str("queue", info.Queue).
		Msg("Task enqueued")
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Options trả về asynq options của taskType; type lạ vào queue default
func Options(taskType string) []asynq.Option {
	opt, ok := taskOptions[taskType]
	if !ok {
		return []asynq.Option{asynq.Queue(shared.QueueDefault)}
	}
	return []asynq.Option{
		asynq.Queue(opt.queue),
		asynq.MaxRetry(opt.maxRetry),
		asynq.Timeout(opt.timeout),
	}
}

// Priorities cho asynq.Config.Queues của worker
func Priorities() map[string]int {
	return map[string]int{
		shared.QueueHigh:    6,
		shared.QueueDefault: 3,
		shared.QueueLow:     1,
	}
}
