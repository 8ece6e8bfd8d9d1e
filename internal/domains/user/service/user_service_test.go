package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookmodel "bookreview-backend/internal/domains/book/model"
	reviewmodel "bookreview-backend/internal/domains/review/model"
	"bookreview-backend/internal/domains/user"
	"bookreview-backend/internal/shared/apperr"
	"bookreview-backend/internal/shared/lifecycle"
	"bookreview-backend/internal/testutil/memstore"
	"bookreview-backend/pkg/cache"
)

type stubTokens struct {
	issued []string
}

func (s *stubTokens) GenerateAccessToken(userID, email, role string) (string, time.Time, error) {
	s.issued = append(s.issued, userID)
	return "token-for-" + email, time.Now().Add(time.Hour), nil
}

type userFixture struct {
	store  *memstore.Store
	cache  *memstore.Cache
	tokens *stubTokens
	svc    user.Service
}

func newUserFixture() *userFixture {
	store := memstore.New()
	c := memstore.NewCache()
	tokens := &stubTokens{}

	return &userFixture{
		store:  store,
		cache:  c,
		tokens: tokens,
		svc: NewUserService(
			store.Users(),
			NewCounterService(store.Users()),
			store.Reviews(),
			tokens,
			c,
			LoginThrottle{MaxAttempts: 3, LockWindow: 15 * time.Minute},
		),
	}
}

func signupReq(email string) user.SignupRequest {
	return user.SignupRequest{
		Name:            "Jane Reader",
		Email:           email,
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}
}

// ========================================
// AUTHENTICATION
// ========================================

func TestSignup(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	resp, err := f.svc.Signup(ctx, signupReq("  Jane@Example.COM "))
	require.NoError(t, err)
	assert.Equal(t, "token-for-jane@example.com", resp.AccessToken)
	assert.Equal(t, user.RoleUser, resp.User.Role)
	assert.Equal(t, "jane@example.com", resp.User.Email)

	stored := f.store.User(resp.User.ID)
	assert.NotEqual(t, "secret123", stored.PasswordHash)

	_, err = f.svc.Signup(ctx, signupReq("JANE@example.com"))
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindConflict, Code: user.ErrCodeEmailExists})
}

func TestSignupValidation(t *testing.T) {
	f := newUserFixture()

	req := signupReq("jane@example.com")
	req.ConfirmPassword = "different"

	_, err := f.svc.Signup(context.Background(), req)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, f.tokens.issued)
}

func TestLogin(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, signupReq("jane@example.com"))
	require.NoError(t, err)

	resp, err := f.svc.Login(ctx, user.LoginRequest{Email: "JANE@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Reader", resp.User.Name)

	_, err = f.svc.Login(ctx, user.LoginRequest{Email: "jane@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindUnauthorized, Code: user.ErrCodeInvalidCredentials})

	// Email không tồn tại trả cùng lỗi
	_, err = f.svc.Login(ctx, user.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindUnauthorized, Code: user.ErrCodeInvalidCredentials})
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, signupReq("jane@example.com"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = f.svc.Login(ctx, user.LoginRequest{Email: "jane@example.com", Password: "wrong-password"})
		require.ErrorIs(t, err, apperr.ErrUnauthorized)
	}

	assert.Equal(t, 15*time.Minute, f.cache.TTL(cache.LoginLockKey("jane@example.com")))

	// Password đúng vẫn bị chặn cho tới hết window
	_, err = f.svc.Login(ctx, user.LoginRequest{Email: "jane@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperr.ErrTooManyRequests)
}

func TestLoginFailsOpenWhenCacheDown(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, signupReq("jane@example.com"))
	require.NoError(t, err)

	f.cache.Err = errors.New("redis: connection refused")

	_, err = f.svc.Login(ctx, user.LoginRequest{Email: "jane@example.com", Password: "secret123"})
	assert.NoError(t, err)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	resp, err := f.svc.Signup(ctx, signupReq("jane@example.com"))
	require.NoError(t, err)
	f.store.Users().SetState(resp.User.ID, lifecycle.Deleted)

	_, err = f.svc.Login(ctx, user.LoginRequest{Email: "jane@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindUnauthorized, Code: user.ErrCodeUserInactive})
}

func TestLogoutBlacklistsToken(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.Logout(ctx, "jti-1", time.Now().Add(30*time.Minute)))

	blacklisted, err := f.cache.Exists(ctx, cache.TokenBlacklistKey("jti-1"))
	require.NoError(t, err)
	assert.True(t, blacklisted)
	assert.InDelta(t, (30 * time.Minute).Seconds(), f.cache.TTL(cache.TokenBlacklistKey("jti-1")).Seconds(), 5)

	// Token đã hết hạn: không cần blacklist
	require.NoError(t, f.svc.Logout(ctx, "jti-2", time.Now().Add(-time.Minute)))
	blacklisted, _ = f.cache.Exists(ctx, cache.TokenBlacklistKey("jti-2"))
	assert.False(t, blacklisted)
}

// ========================================
// PROFILE
// ========================================

func TestUpdateDetails(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	jane, err := f.svc.Signup(ctx, signupReq("jane@example.com"))
	require.NoError(t, err)
	_, err = f.svc.Signup(ctx, signupReq("john@example.com"))
	require.NoError(t, err)

	name := "Jane Doe"
	dto, err := f.svc.UpdateDetails(ctx, jane.User.ID, user.UpdateDetailsRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", dto.Name)
	assert.Equal(t, "jane@example.com", dto.Email)

	taken := "John@Example.com"
	_, err = f.svc.UpdateDetails(ctx, jane.User.ID, user.UpdateDetailsRequest{Email: &taken})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	bad := "Jane 2"
	_, err = f.svc.UpdateDetails(ctx, jane.User.ID, user.UpdateDetailsRequest{Name: &bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdatePassword(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	jane, err := f.svc.Signup(ctx, signupReq("jane@example.com"))
	require.NoError(t, err)

	_, err = f.svc.UpdatePassword(ctx, jane.User.ID, user.UpdatePasswordRequest{
		CurrentPassword: "not-it", NewPassword: "newsecret", ConfirmNewPassword: "newsecret",
	})
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindUnauthorized, Code: user.ErrCodeWrongPassword})

	_, err = f.svc.UpdatePassword(ctx, jane.User.ID, user.UpdatePasswordRequest{
		CurrentPassword: "secret123", NewPassword: "newsecret", ConfirmNewPassword: "newsecret",
	})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, user.LoginRequest{Email: "jane@example.com", Password: "newsecret"})
	assert.NoError(t, err)
}

func TestGetStatsReconcilesCounters(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	u := f.store.Users().Seed("Reader", "reader@example.com", user.RoleUser)

	b := &bookmodel.Book{Title: "T", Author: "A", Description: "Long enough text", Genre: bookmodel.GenreArt,
		PublishedYear: 2001, OwnerID: u.ID, State: lifecycle.Active}
	require.NoError(t, f.store.Books().Create(ctx, b))
	for _, stars := range []int{4, 5} {
		other := &bookmodel.Book{Title: "O", Author: "A", Description: "Long enough text", Genre: bookmodel.GenreArt,
			PublishedYear: 2001, OwnerID: u.ID, State: lifecycle.Active}
		require.NoError(t, f.store.Books().Create(ctx, other))
		require.NoError(t, f.store.Reviews().Create(ctx, &reviewmodel.Review{
			BookID: other.ID, UserID: u.ID, Rating: stars, ReviewText: "Good enough", State: lifecycle.Active,
		}))
	}

	// Counter cache đang lệch (0/0) vì dữ liệu được seed thẳng vào store
	stats, err := f.svc.GetStats(ctx, u.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Books)
	assert.Equal(t, 2, stats.Reviews)
	assert.Equal(t, 4.5, stats.AverageRating)
	assert.Equal(t, 1, stats.RatingDistribution[5])
	assert.Equal(t, 3, f.store.User(u.ID).BooksCount)
}

func TestGetProfileInactiveUser(t *testing.T) {
	f := newUserFixture()
	u := f.store.Users().Seed("Gone", "gone@example.com", user.RoleUser)
	f.store.Users().SetState(u.ID, lifecycle.Deleted)

	_, err := f.svc.GetProfile(context.Background(), u.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
