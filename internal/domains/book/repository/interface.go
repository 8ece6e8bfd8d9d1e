package repository

import (
	"context"

	"github.com/google/uuid"

	"bookreview-backend/internal/domains/book/model"
)

// BookRepository - Định nghĩa data access methods cho books.
// Các hàm Find*/List* chỉ trả về book đang active.
type BookRepository interface {
	// Create gán ID/timestamps cho b. Returns ErrISBNAlreadyExists khi trùng ISBN
	Create(ctx context.Context, b *model.Book) error

	// FindActiveByID returns ErrBookNotFound nếu không có hoặc đã bị xóa
	FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Book, error)

	// LockActiveByID giống FindActiveByID nhưng SELECT ... FOR UPDATE.
	// Chỉ có tác dụng khi gọi trong transaction.
	LockActiveByID(ctx context.Context, id uuid.UUID) (*model.Book, error)

	// Update ghi các field người dùng sửa được (không gồm owner/aggregate)
	Update(ctx context.Context, b *model.Book) error

	// Deactivate chuyển book sang Deleted
	Deactivate(ctx context.Context, id uuid.UUID) error

	// UpdateRatingAggregate ghi đè average_rating/total_reviews, bất kể trạng thái.
	// false nếu book không tồn tại.
	UpdateRatingAggregate(ctx context.Context, id uuid.UUID, average float64, total int) (bool, error)

	// SetCoverImage chỉ cập nhật book active; false nếu không có row nào
	SetCoverImage(ctx context.Context, id uuid.UUID, url string) (bool, error)

	// List trả về một trang book và tổng số book khớp filter
	List(ctx context.Context, filter model.BookFilter) ([]model.Book, int, error)

	FindPopular(ctx context.Context, limit int) ([]model.Book, error)
	FindRecent(ctx context.Context, limit int) ([]model.Book, error)

	// CountByGenre đếm book active theo genre
	CountByGenre(ctx context.Context) (map[model.Genre]int, error)

	// ListAllActive dùng cho report, sắp theo title
	ListAllActive(ctx context.Context) ([]model.Book, error)
}
