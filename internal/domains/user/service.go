package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service định nghĩa business logic cho auth + profile
type Service interface {
	// Authentication
	Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	// Logout blacklist jti của token cho tới khi token hết hạn
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error

	// Profile
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateDetails(ctx context.Context, userID uuid.UUID, req UpdateDetailsRequest) (*UserDTO, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, req UpdatePasswordRequest) (*AuthResponse, error)
	GetStats(ctx context.Context, userID uuid.UUID) (*StatsResponse, error)
}

// CounterSynchronizer duy trì books_count / reviews_count bằng delta atomic
// khi book/review được tạo hoặc soft-delete. Giá trị không bao giờ âm.
type CounterSynchronizer interface {
	BookCreated(ctx context.Context, ownerID uuid.UUID) error
	BookDeleted(ctx context.Context, ownerID uuid.UUID) error
	ReviewCreated(ctx context.Context, authorID uuid.UUID) error
	ReviewDeleted(ctx context.Context, authorID uuid.UUID, n int) error

	// Reconcile tính lại counters từ dữ liệu thật và ghi đè cache
	Reconcile(ctx context.Context, userID uuid.UUID) (Counters, error)
	ReconcileAll(ctx context.Context) (int, error)
}
