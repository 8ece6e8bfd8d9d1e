package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	bookService "bookreview-backend/internal/domains/book/service"
	"bookreview-backend/internal/shared"
)

// ProcessCoverHandler resize ảnh bìa gốc và gắn URL vào book
type ProcessCoverHandler struct {
	covers bookService.CoverServiceInterface
}

func NewProcessCoverHandler(covers bookService.CoverServiceInterface) *ProcessCoverHandler {
	return &ProcessCoverHandler{covers: covers}
}

// ProcessTask xử lý background job resize ảnh
func (h *ProcessCoverHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ProcessCoverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal ProcessCover payload")
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	bookID, err := uuid.Parse(payload.BookID)
	if err != nil || payload.ObjectKey == "" {
		return fmt.Errorf("invalid payload %+v: %w", payload, asynq.SkipRetry)
	}

	log.Info().
		Str("book_id", payload.BookID).
		Str("object_key", payload.ObjectKey).
		Msg("Processing book cover")

	if err := h.covers.ProcessCover(ctx, bookID, payload.ObjectKey); err != nil {
		log.Error().
			Err(err).
			Str("book_id", payload.BookID).
			Msg("Failed to process book cover")
		return fmt.Errorf("process cover: %w", err)
	}

	return nil
}
