package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/domains/user"
	"bookreview-backend/internal/shared"
)

// ReconcileCountersHandler đếm lại books_count/reviews_count.
// Payload có user_id thì chỉ reconcile user đó, không thì toàn bộ users.
type ReconcileCountersHandler struct {
	counters user.CounterSynchronizer
}

func NewReconcileCountersHandler(counters user.CounterSynchronizer) *ReconcileCountersHandler {
	return &ReconcileCountersHandler{counters: counters}
}

func (h *ReconcileCountersHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ReconcileCountersPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			log.Error().Err(err).Msg("Failed to unmarshal ReconcileCounters payload")
			return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	if payload.UserID == "" {
		n, err := h.counters.ReconcileAll(ctx)
		if err != nil {
			log.Error().Err(err).Int("reconciled", n).Msg("Failed to reconcile all user counters")
			return fmt.Errorf("reconcile all: %w", err)
		}
		return nil
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return fmt.Errorf("invalid user_id %q: %w", payload.UserID, asynq.SkipRetry)
	}

	counters, err := h.counters.Reconcile(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", payload.UserID).Msg("Failed to reconcile user counters")
		return fmt.Errorf("reconcile user: %w", err)
	}

	log.Info().
		Str("user_id", payload.UserID).
		Int("books_count", counters.BooksCount).
		Int("reviews_count", counters.ReviewsCount).
		Msg("User counters reconciled")

	return nil
}
