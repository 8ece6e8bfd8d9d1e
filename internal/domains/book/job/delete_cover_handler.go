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

// DeleteCoverHandler xóa toàn bộ ảnh bìa của book đã bị xóa
type DeleteCoverHandler struct {
	covers bookService.CoverServiceInterface
}

func NewDeleteCoverHandler(covers bookService.CoverServiceInterface) *DeleteCoverHandler {
	return &DeleteCoverHandler{covers: covers}
}

func (h *DeleteCoverHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.DeleteCoverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal DeleteCover payload")
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	bookID, err := uuid.Parse(payload.BookID)
	if err != nil {
		return fmt.Errorf("invalid book_id %q: %w", payload.BookID, asynq.SkipRetry)
	}

	if err := h.covers.DeleteCovers(ctx, bookID); err != nil {
		log.Error().
			Err(err).
			Str("book_id", payload.BookID).
			Msg("Failed to delete book covers")
		return fmt.Errorf("delete covers: %w", err)
	}

	return nil
}
