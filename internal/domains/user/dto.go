package user

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z\s]+$`)

// ========================================
// AUTH DTOs
// ========================================

type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r *SignupRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
}

func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(2, 50).Error("name must be between 2 and 50 characters"),
			validation.Match(namePattern).Error("name can only contain letters and spaces"),
		),
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			is.Email.Error("please provide a valid email address"),
			validation.Length(0, 254),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.Length(6, 128).Error("password must be between 6 and 128 characters"),
		),
		validation.Field(&r.ConfirmPassword,
			validation.Required.Error("please confirm your password"),
			validation.In(r.Password).Error("passwords do not match"),
		),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = normalizeEmail(r.Email)
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email, validation.Length(0, 254)),
		validation.Field(&r.Password, validation.Required, validation.Length(0, 128)),
	)
}

// AuthResponse trả về sau signup/login/updatepassword
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserDTO   `json:"user"`
}

// ========================================
// PROFILE DTOs
// ========================================

type UpdateDetailsRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

func (r *UpdateDetailsRequest) Normalize() {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	if r.Email != nil {
		email := normalizeEmail(*r.Email)
		r.Email = &email
	}
}

func (r UpdateDetailsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.NilOrNotEmpty,
			validation.Length(2, 50),
			validation.Match(namePattern).Error("name can only contain letters and spaces"),
		),
		validation.Field(&r.Email,
			validation.NilOrNotEmpty,
			is.Email,
			validation.Length(0, 254),
		),
	)
}

type UpdatePasswordRequest struct {
	CurrentPassword    string `json:"current_password"`
	NewPassword        string `json:"new_password"`
	ConfirmNewPassword string `json:"confirm_new_password"`
}

func (r UpdatePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required.Error("current password is required")),
		validation.Field(&r.NewPassword,
			validation.Required,
			validation.Length(6, 128).Error("new password must be between 6 and 128 characters"),
		),
		validation.Field(&r.ConfirmNewPassword,
			validation.Required,
			validation.In(r.NewPassword).Error("new passwords do not match"),
		),
	)
}

// UserDTO - public view của user (không có password)
type UserDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	BooksCount   int       `json:"books_count"`
	ReviewsCount int       `json:"reviews_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func ToUserDTO(u *User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		BooksCount:   u.BooksCount,
		ReviewsCount: u.ReviewsCount,
		CreatedAt:    u.CreatedAt,
	}
}

// StatsResponse - GET /auth/stats
type StatsResponse struct {
	Books              int         `json:"books"`
	Reviews            int         `json:"reviews"`
	AverageRating      float64     `json:"average_rating"`
	RatingDistribution map[int]int `json:"rating_distribution"`
	MemberSince        time.Time   `json:"member_since"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
