package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/config"
	"bookreview-backend/internal/shared"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(opt asynq.RedisConnOpt, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		opt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

// RegisterJobs đăng ký các cron job
func (s *Scheduler) RegisterJobs() error {
	return s.registerReconcileCountersJob()
}

// ================================================
// JOB: Reconcile user counters (mặc định @every 6h)
// ================================================
// Payload rỗng = toàn bộ users. Sửa lệch books_count/reviews_count nếu có.
func (s *Scheduler) registerReconcileCountersJob() error {
	payload, err := json.Marshal(shared.ReconcileCountersPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeReconcileCounters, payload)

	entryID, err := s.scheduler.Register(s.jobConfig.ReconcileCountersCron, task, Options(shared.TypeReconcileCounters)...)
	if err != nil {
		log.Error().Err(err).Str("cron", s.jobConfig.ReconcileCountersCron).Msg("Failed to register ReconcileCounters job")
		return err
	}

	log.Info().
		Str("entry_id", entryID).
		Str("cron", s.jobConfig.ReconcileCountersCron).
		Msg("Registered ReconcileCounters job")
	return nil
}

// Start chạy scheduler ở background
func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
