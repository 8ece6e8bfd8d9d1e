package service

import (
	"context"

	"github.com/google/uuid"

	bookmodel "bookreview-backend/internal/domains/book/model"
	"bookreview-backend/internal/domains/review/model"
	"bookreview-backend/internal/domains/user"
	"bookreview-backend/internal/shared"
)

// =====================================================
// REVIEW SERVICE INTERFACE
// =====================================================

type ServiceInterface interface {
	// ========================================
	// LIFECYCLE
	// ========================================

	// Create tạo review cho một book active. Mỗi user chỉ có một review active/book.
	Create(ctx context.Context, userID uuid.UUID, req model.CreateReviewRequest) (*model.ReviewResponse, error)

	// Update chỉ cho tác giả hoặc admin. book_id/user_id không bao giờ đổi.
	Update(ctx context.Context, actor shared.Actor, reviewID uuid.UUID, req model.UpdateReviewRequest) (*model.ReviewResponse, error)

	// Delete soft-delete review, giảm reviews_count của tác giả
	Delete(ctx context.Context, actor shared.Actor, reviewID uuid.UUID) error

	// MarkHelpful cộng một vote. Tác giả không được vote cho review của chính mình.
	MarkHelpful(ctx context.Context, requesterID, reviewID uuid.UUID) (*model.HelpfulResponse, error)

	// ========================================
	// READS
	// ========================================

	Get(ctx context.Context, reviewID uuid.UUID) (*model.ReviewResponse, error)
	ListForBook(ctx context.Context, bookID uuid.UUID, q model.ListQuery) (*model.BookReviewsResponse, int, error)
	ListByUser(ctx context.Context, userID uuid.UUID, q model.ListQuery) (*model.UserReviewsResponse, int, error)
	ListMine(ctx context.Context, userID uuid.UUID, q model.ListQuery) ([]model.ReviewResponse, int, error)
	CheckMine(ctx context.Context, userID, bookID uuid.UUID) (*model.CheckReviewResponse, error)
	AverageForBook(ctx context.Context, bookID uuid.UUID) (*model.AverageRatingResponse, error)
	MostHelpful(ctx context.Context, bookID uuid.UUID, limit int) ([]model.ReviewResponse, error)
}

// BookLocker là phần của book repository mà review service cần
type BookLocker interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*bookmodel.Book, error)
	LockActiveByID(ctx context.Context, id uuid.UUID) (*bookmodel.Book, error)
}

// UserReader tra cứu tác giả cho trang review theo user
type UserReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}
