package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"bookreview-backend/internal/domains/rating"
	"bookreview-backend/internal/domains/user"
	"bookreview-backend/internal/shared/apperr"
	"bookreview-backend/internal/shared/lifecycle"
	"bookreview-backend/pkg/cache"
)

const bcryptCost = 12

// TokenIssuer ký access token; *jwt.Manager implement interface này
type TokenIssuer interface {
	GenerateAccessToken(userID, email, role string) (string, time.Time, error)
}

// RatingReader đọc rating của các review active mà user đã viết
type RatingReader interface {
	ListActiveRatingsByUser(ctx context.Context, userID uuid.UUID) ([]int, error)
}

// LoginThrottle cấu hình khóa login theo email
type LoginThrottle struct {
	MaxAttempts int
	LockWindow  time.Duration
}

// userService implement user.Service interface
type userService struct {
	repo     user.Repository
	counters user.CounterSynchronizer
	ratings  RatingReader
	tokens   TokenIssuer
	cache    cache.Cache
	throttle LoginThrottle
}

// NewUserService tạo service instance
// Inject dependencies qua constructor
func NewUserService(
	repo user.Repository,
	counters user.CounterSynchronizer,
	ratings RatingReader,
	tokens TokenIssuer,
	cache cache.Cache,
	throttle LoginThrottle,
) user.Service {
	return &userService{
		repo:     repo,
		counters: counters,
		ratings:  ratings,
		tokens:   tokens,
		cache:    cache,
		throttle: throttle,
	}
}

// ========================================
// AUTHENTICATION
// ========================================

// Signup tạo user mới với role mặc định "user" và trả về token
func (s *userService) Signup(ctx context.Context, req user.SignupRequest) (*user.AuthResponse, error) {
	// Step 1: Normalize + validate
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}

	// Step 2: Hash password
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// Step 3: Persist. Unique index trên LOWER(email) là nguồn sự thật
	newUser := &user.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Role:         user.RoleUser,
		State:        lifecycle.Active,
	}
	if err := s.repo.Create(ctx, newUser); err != nil {
		if errors.Is(err, user.ErrEmailAlreadyExists) {
			return nil, user.NewEmailExistsError(req.Email)
		}
		return nil, apperr.Store("create user", err)
	}

	log.Info().Str("user_id", newUser.ID.String()).Msg("User signed up")

	return s.issueToken(newUser)
}

// Login xác thực email/password.
// Sau LoginMaxAttempts lần sai trong LockWindow, email bị khóa tới hết window.
func (s *userService) Login(ctx context.Context, req user.LoginRequest) (*user.AuthResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}

	// Step 1: Check lock
	if s.isLocked(ctx, req.Email) {
		return nil, user.NewTooManyAttemptsError()
	}

	// Step 2: Find user. Không phân biệt "email không tồn tại" và "sai password"
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.recordFailedLogin(ctx, req.Email)
			return nil, user.NewInvalidCredentialsError()
		}
		return nil, apperr.Store("find user by email", err)
	}

	// Step 3: Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailedLogin(ctx, req.Email)
		return nil, user.NewInvalidCredentialsError()
	}

	// Step 4: Check status
	if !u.IsActive() {
		return nil, user.NewUserInactiveError()
	}

	s.clearFailedLogins(ctx, req.Email)

	return s.issueToken(u)
}

// Logout blacklist jti cho tới lúc token hết hạn
func (s *userService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if tokenID == "" || ttl <= 0 {
		return nil
	}

	if err := s.cache.Set(ctx, cache.TokenBlacklistKey(tokenID), true, ttl); err != nil {
		return apperr.Store("blacklist token", err)
	}
	return nil
}

// ========================================
// PROFILE
// ========================================

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*user.UserDTO, error) {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	dto := user.ToUserDTO(u)
	return &dto, nil
}

// UpdateDetails chỉ cho đổi name/email; field nil giữ nguyên giá trị cũ
func (s *userService) UpdateDetails(ctx context.Context, userID uuid.UUID, req user.UpdateDetailsRequest) (*user.UserDTO, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}

	u, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = *req.Email
	}

	if err := s.repo.UpdateDetails(ctx, userID, u.Name, u.Email); err != nil {
		switch {
		case errors.Is(err, user.ErrEmailAlreadyExists):
			return nil, user.NewEmailExistsError(u.Email)
		case errors.Is(err, user.ErrUserNotFound):
			return nil, user.NewUserNotFoundError(userID.String())
		}
		return nil, apperr.Store("update user details", err)
	}

	dto := user.ToUserDTO(u)
	return &dto, nil
}

// UpdatePassword đổi password và cấp token mới
func (s *userService) UpdatePassword(ctx context.Context, userID uuid.UUID, req user.UpdatePasswordRequest) (*user.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}

	u, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return nil, user.NewWrongPasswordError()
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(passwordHash)); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, user.NewUserNotFoundError(userID.String())
		}
		return nil, apperr.Store("update password", err)
	}
	u.PasswordHash = string(passwordHash)

	log.Info().Str("user_id", userID.String()).Msg("User password updated")

	return s.issueToken(u)
}

// GetStats trả về thống kê của user. Counter cache được reconcile trước
// để số liệu trả về luôn khớp dữ liệu thật.
func (s *userService) GetStats(ctx context.Context, userID uuid.UUID) (*user.StatsResponse, error) {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	counters, err := s.counters.Reconcile(ctx, userID)
	if err != nil {
		return nil, err
	}

	ratings, err := s.ratings.ListActiveRatingsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Store("load user ratings", err)
	}
	summary := rating.Summarize(ratings)

	return &user.StatsResponse{
		Books:              counters.BooksCount,
		Reviews:            counters.ReviewsCount,
		AverageRating:      summary.AverageRating,
		RatingDistribution: summary.Distribution,
		MemberSince:        u.CreatedAt,
	}, nil
}

// ========================================
// HELPERS
// ========================================

func (s *userService) findUser(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, user.NewUserNotFoundError(userID.String())
		}
		return nil, apperr.Store("find user", err)
	}
	if !u.IsActive() {
		return nil, user.NewUserNotFoundError(userID.String())
	}
	return u, nil
}

func (s *userService) issueToken(u *user.User) (*user.AuthResponse, error) {
	token, expiresAt, err := s.tokens.GenerateAccessToken(u.ID.String(), u.Email, u.Role.String())
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	return &user.AuthResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        user.ToUserDTO(u),
	}, nil
}

// isLocked: Redis lỗi thì cho qua (fail open), chỉ log warning
func (s *userService) isLocked(ctx context.Context, email string) bool {
	locked, err := s.cache.Exists(ctx, cache.LoginLockKey(email))
	if err != nil {
		log.Warn().Err(err).Msg("Login throttle check failed")
		return false
	}
	return locked
}

func (s *userService) recordFailedLogin(ctx context.Context, email string) {
	key := cache.LoginAttemptsKey(email)

	attempts, err := s.cache.Increment(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to record login attempt")
		return
	}

	// Lần sai đầu tiên mở window
	if attempts == 1 {
		if err := s.cache.Expire(ctx, key, s.throttle.LockWindow); err != nil {
			log.Warn().Err(err).Msg("Failed to set login attempt window")
		}
	}

	if attempts >= int64(s.throttle.MaxAttempts) {
		if err := s.cache.Set(ctx, cache.LoginLockKey(email), true, s.throttle.LockWindow); err != nil {
			log.Warn().Err(err).Msg("Failed to lock login")
			return
		}
		_ = s.cache.Delete(ctx, key)
		log.Warn().Str("email", email).Msg("Login locked after repeated failures")
	}
}

func (s *userService) clearFailedLogins(ctx context.Context, email string) {
	if err := s.cache.Delete(ctx, cache.LoginAttemptsKey(email)); err != nil {
		log.Warn().Err(err).Msg("Failed to clear login attempts")
	}
}
