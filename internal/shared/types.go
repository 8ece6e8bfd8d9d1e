package shared

import (
	"context"

	"github.com/google/uuid"
)

// ========================================
// BACKGROUND TASKS
// ========================================

const (
	TypeProcessBookCover  = "book:process_cover"
	TypeDeleteBookCover   = "book:delete_cover"
	TypeReconcileCounters = "user:reconcile_counters"

	QueueHigh    = "high"
	QueueDefault = "default"
	QueueLow     = "low"
)

// ProcessCoverPayload trỏ tới ảnh gốc đã upload, worker sẽ resize ảnh này.
type ProcessCoverPayload struct {
	BookID    string `json:"book_id"`
	ObjectKey string `json:"object_key"`
}

type DeleteCoverPayload struct {
	BookID string `json:"book_id"`
}

// ReconcileCountersPayload: UserID rỗng nghĩa là reconcile toàn bộ users.
type ReconcileCountersPayload struct {
	UserID string `json:"user_id,omitempty"`
}

// TaskEnqueuer is implemented by the asynq client wrapper.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload interface{}) error
}

// ========================================
// REQUEST ACTOR
// ========================================

// Actor là user đang thực hiện request (lấy từ JWT).
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// CanModify reports whether the actor may mutate an entity owned by ownerID.
func (a Actor) CanModify(ownerID uuid.UUID) bool {
	return a.IsAdmin || a.UserID == ownerID
}
