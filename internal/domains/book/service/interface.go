package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"bookreview-backend/internal/domains/book/model"
	"bookreview-backend/internal/domains/user"
	"bookreview-backend/internal/shared"
)

// ServiceInterface - Định nghĩa business logic methods
type ServiceInterface interface {
	Create(ctx context.Context, ownerID uuid.UUID, req model.CreateBookRequest) (*model.BookResponse, error)
	Update(ctx context.Context, actor shared.Actor, bookID uuid.UUID, req model.UpdateBookRequest) (*model.BookResponse, error)
	// Delete soft-delete book và cascade toàn bộ review của nó
	Delete(ctx context.Context, actor shared.Actor, bookID uuid.UUID) error

	Get(ctx context.Context, bookID uuid.UUID) (*model.BookResponse, error)
	List(ctx context.Context, filter model.BookFilter) ([]model.BookResponse, int, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) (*model.BooksByOwnerResponse, int, error)
	Genres(ctx context.Context) (*model.GenresResponse, error)
	Popular(ctx context.Context, limit int) ([]model.BookResponse, error)
	Recent(ctx context.Context, limit int) ([]model.BookResponse, error)
	Search(ctx context.Context, req model.SearchRequest, offset, limit int) ([]model.BookResponse, int, error)
}

// CoverServiceInterface quản lý ảnh bìa: upload đồng bộ, resize/xóa qua worker
type CoverServiceInterface interface {
	UploadCover(ctx context.Context, actor shared.Actor, bookID uuid.UUID, data []byte) (*model.CoverUploadResponse, error)
	ProcessCover(ctx context.Context, bookID uuid.UUID, objectKey string) error
	DeleteCovers(ctx context.Context, bookID uuid.UUID) error
}

// ReportServiceInterface xuất báo cáo cho admin
type ReportServiceInterface interface {
	// ExportRatings ghi file .xlsx (mỗi book active một dòng) vào w
	ExportRatings(ctx context.Context, w io.Writer) error
}

// ========================================
// COLLABORATORS
// ========================================

// ReviewCascader - phần của review repository dùng khi xóa book
type ReviewCascader interface {
	// DeactivateByBook trả về user_id của từng review vừa bị deactivate
	DeactivateByBook(ctx context.Context, bookID uuid.UUID) ([]uuid.UUID, error)
}

type OwnerReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// CoverStorage - *storage.MinIOStorage implement interface này
type CoverStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

// ImageProcessor - *storage.ImageProcessor implement interface này
type ImageProcessor interface {
	ValidateImage(data []byte) (string, error)
	ResizeCover(data []byte) ([]byte, error)
}

// RatingDistributionReader - book_id -> (sao -> số review active)
type RatingDistributionReader interface {
	RatingDistributions(ctx context.Context) (map[uuid.UUID]map[int]int, error)
}
