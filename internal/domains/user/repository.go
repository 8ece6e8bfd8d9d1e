package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository định nghĩa contract cho data access layer của users
type Repository interface {
	// ========================================
	// BASIC CRUD
	// ========================================

	// Create tạo user mới
	// Returns: ErrEmailAlreadyExists nếu email đã tồn tại
	Create(ctx context.Context, user *User) error

	// FindByID tìm user theo ID
	// Returns: ErrUserNotFound nếu không tìm thấy
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail tìm user theo email (dùng cho login)
	FindByEmail(ctx context.Context, email string) (*User, error)

	// UpdateDetails cập nhật name/email
	UpdateDetails(ctx context.Context, id uuid.UUID, name, email string) error

	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// ========================================
	// COUNTER CACHE
	// ========================================

	// AdjustCounter cộng delta vào counter một cách atomic, không bao giờ < 0
	AdjustCounter(ctx context.Context, id uuid.UUID, counter Counter, delta int) error

	// SetCounters ghi đè cả hai counter (dùng khi reconcile)
	SetCounters(ctx context.Context, id uuid.UUID, counters Counters) error

	// CountActive đếm books/reviews active thực tế của user
	CountActive(ctx context.Context, id uuid.UUID) (Counters, error)

	// ListIDsAfter trả về tối đa limit user ID lớn hơn afterID (keyset pagination)
	ListIDsAfter(ctx context.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error)
}
