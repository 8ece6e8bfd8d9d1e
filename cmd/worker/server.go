package main

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/infrastructure/queue"
	"bookreview-backend/pkg/container"
)

const workerConcurrency = 10

// startAsynqServer tạo server, đăng ký handlers và chạy ở background
func startAsynqServer(c *container.Container) *asynq.Server {
	mux := asynq.NewServeMux()
	registerHandlers(mux, c)

	srv := asynq.NewServer(
		c.RedisOpt,
		asynq.Config{
			Queues:      queue.Priorities(),
			Concurrency: workerConcurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				log.Error().
					Err(err).
					Str("type", task.Type()).
					Int("retried", retried).
					Int("max_retry", maxRetry).
					Msg("Task failed")
			}),
		},
	)

	// Start (không phải Run): không tự bắt signal, main lo shutdown
	if err := srv.Start(mux); err != nil {
		log.Fatal().Err(err).Msg("Failed to start asynq server")
	}
	log.Info().Int("concurrency", workerConcurrency).Msg("Asynq server started")

	return srv
}

// startScheduler đăng ký cron jobs rồi chạy scheduler
func startScheduler(c *container.Container) *queue.Scheduler {
	scheduler := queue.NewScheduler(c.RedisOpt, c.Config.Jobs)

	if err := scheduler.RegisterJobs(); err != nil {
		log.Fatal().Err(err).Msg("Failed to register scheduled jobs")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	return scheduler
}
