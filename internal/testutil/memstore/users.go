package memstore

import (
	"bytes"
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"bookreview-backend/internal/domains/user"
	"bookreview-backend/internal/shared/lifecycle"
)

type UserRepo struct{ s *Store }

var _ user.Repository = (*UserRepo)(nil)

// Seed tạo user active và trả về bản lưu
func (r *UserRepo) Seed(name, email string, role user.Role) user.User {
	u := &user.User{
		Name:         name,
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		State:        lifecycle.Active,
	}
	if err := r.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return *u
}

// SetState cho phép test tạo user đã bị khóa
func (r *UserRepo) SetState(id uuid.UUID, state lifecycle.State) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.users[id]
	u.State = state
	r.s.users[id] = u
}

func (r *UserRepo) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("CreateUser"); err != nil {
		return err
	}

	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return user.ErrEmailAlreadyExists
		}
	}

	u.ID = uuid.New()
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepo) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *UserRepo) UpdateDetails(_ context.Context, id uuid.UUID, name, email string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	for otherID, other := range r.s.users {
		if otherID != id && strings.EqualFold(other.Email, email) {
			return user.ErrEmailAlreadyExists
		}
	}

	u.Name = name
	u.Email = email
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	r.s.users[id] = u
	return nil
}

func (r *UserRepo) AdjustCounter(_ context.Context, id uuid.UUID, counter user.Counter, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("AdjustCounter"); err != nil {
		return err
	}

	u, ok := r.s.users[id]
	if !ok {
		return user.ErrUserNotFound
	}

	switch counter {
	case user.CounterBooks:
		u.BooksCount = max(u.BooksCount+delta, 0)
	case user.CounterReviews:
		u.ReviewsCount = max(u.ReviewsCount+delta, 0)
	}
	r.s.users[id] = u
	return nil
}

func (r *UserRepo) SetCounters(_ context.Context, id uuid.UUID, counters user.Counters) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.BooksCount = counters.BooksCount
	u.ReviewsCount = counters.ReviewsCount
	r.s.users[id] = u
	return nil
}

func (r *UserRepo) CountActive(_ context.Context, id uuid.UUID) (user.Counters, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var c user.Counters
	for _, b := range r.s.books {
		if b.OwnerID == id && b.IsActive() {
			c.BooksCount++
		}
	}
	for _, rv := range r.s.reviews {
		if rv.UserID == id && rv.IsActive() {
			c.ReviewsCount++
		}
	}
	return c, nil
}

func (r *UserRepo) ListIDsAfter(_ context.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(r.s.users))
	for id := range r.s.users {
		if bytes.Compare(id[:], afterID[:]) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}
