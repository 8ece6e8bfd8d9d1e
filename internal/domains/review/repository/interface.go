package repository

import (
	"context"

	"github.com/google/uuid"

	"bookreview-backend/internal/domains/review/model"
)

// =====================================================
// REVIEW REPOSITORY INTERFACE
// =====================================================

// ReviewRepository - mọi hàm đọc public chỉ trả về review active
type ReviewRepository interface {
	// ========================================
	// WRITE
	// ========================================

	// Create returns ErrAlreadyReviewed khi vi phạm unique index (book_id, user_id) WHERE is_active
	Create(ctx context.Context, review *model.Review) error

	// Update ghi rating/review_text/title/reading_status/spoiler_alert
	Update(ctx context.Context, review *model.Review) error

	// Deactivate chuyển review sang Deleted
	Deactivate(ctx context.Context, id uuid.UUID) error

	// DeactivateByBook chuyển mọi review active của book sang Deleted.
	// Trả về user_id của từng review vừa bị deactivate (lặp lại nếu một user có nhiều review).
	DeactivateByBook(ctx context.Context, bookID uuid.UUID) ([]uuid.UUID, error)

	// IncrementHelpful cộng 1 vote, trả về số vote mới
	IncrementHelpful(ctx context.Context, id uuid.UUID) (int, error)

	// ========================================
	// READ
	// ========================================

	FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Review, error)
	FindActiveByUserAndBook(ctx context.Context, userID, bookID uuid.UUID) (*model.Review, error)

	ListByBook(ctx context.Context, bookID uuid.UUID, q model.ListQuery) ([]model.Review, int, error)
	ListByUser(ctx context.Context, userID uuid.UUID, q model.ListQuery) ([]model.Review, int, error)

	// FindMostHelpful sắp theo helpful_votes giảm dần rồi created_at
	FindMostHelpful(ctx context.Context, bookID uuid.UUID, limit int) ([]model.Review, error)

	// ========================================
	// RATINGS
	// ========================================

	// ListActiveRatings trả về rating của mọi review active của book
	ListActiveRatings(ctx context.Context, bookID uuid.UUID) ([]int, error)

	// ListActiveRatingsByUser trả về rating của mọi review active do user viết
	ListActiveRatingsByUser(ctx context.Context, userID uuid.UUID) ([]int, error)

	// RatingDistributions: book_id -> (sao -> số review active), dùng cho report
	RatingDistributions(ctx context.Context) (map[uuid.UUID]map[int]int, error)
}
