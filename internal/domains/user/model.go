package user

import (
	"time"

	"github.com/google/uuid"

	"bookreview-backend/internal/shared/lifecycle"
)

// Role type với validation
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// User entity
// BooksCount / ReviewsCount là counter cache, luôn có thể tính lại bằng
// count(books active của user) và count(reviews active của user).
type User struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Role         Role            `json:"role"`
	State        lifecycle.State `json:"state"`
	BooksCount   int             `json:"books_count"`
	ReviewsCount int             `json:"reviews_count"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u.State.IsActive()
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Counter là tên cột counter cache trên bảng users.
type Counter string

const (
	CounterBooks   Counter = "books_count"
	CounterReviews Counter = "reviews_count"
)

// Counters là giá trị thực tế sau khi reconcile.
type Counters struct {
	BooksCount   int `json:"books_count"`
	ReviewsCount int `json:"reviews_count"`
}
