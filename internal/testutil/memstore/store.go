// Package memstore là bản in-memory của các repository, dùng cho test service.
// Hành vi bám theo bản Postgres: chỉ đọc row active, unique index một review
// active / (book, user), counter không âm, transaction rollback khi fn lỗi.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	bookmodel "bookreview-backend/internal/domains/book/model"
	reviewmodel "bookreview-backend/internal/domains/review/model"
	"bookreview-backend/internal/domains/user"
	"bookreview-backend/pkg/database"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Store giữ toàn bộ dữ liệu. Users/Books/Reviews là ba view trên cùng Store.
type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]user.User
	books    map[uuid.UUID]bookmodel.Book
	reviews  map[uuid.UUID]reviewmodel.Review
	tick     int
	failures map[string]error
}

func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]user.User),
		books:    make(map[uuid.UUID]bookmodel.Book),
		reviews:  make(map[uuid.UUID]reviewmodel.Review),
		failures: make(map[string]error),
	}
}

func (s *Store) Users() *UserRepo     { return &UserRepo{s} }
func (s *Store) Books() *BookRepo     { return &BookRepo{s} }
func (s *Store) Reviews() *ReviewRepo { return &ReviewRepo{s} }

// ========================================
// FAILURE INJECTION
// ========================================

// FailOn làm cho lần gọi op tiếp theo (vd "AdjustCounter") trả về err
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// fail phải được gọi khi đang giữ s.mu
func (s *Store) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

// now trả về thời điểm tăng dần để thứ tự created_at luôn xác định
func (s *Store) now() time.Time {
	s.tick++
	return baseTime.Add(time.Duration(s.tick) * time.Second)
}

// ========================================
// TRANSACTIONS
// ========================================

type snapshot struct {
	users   map[uuid.UUID]user.User
	books   map[uuid.UUID]bookmodel.Book
	reviews map[uuid.UUID]reviewmodel.Review
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		users:   cloneMap(s.users),
		books:   cloneMap(s.books),
		reviews: cloneMap(s.reviews),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.books = snap.books
	s.reviews = snap.reviews
}

// TxManager rollback toàn bộ Store nếu fn trả lỗi.
// Các transaction được chạy tuần tự, tương đương lock row của Postgres.
type TxManager struct {
	store *Store
	mu    sync.Mutex
}

func (s *Store) TxManager() *TxManager {
	return &TxManager{store: s}
}

var _ database.TxManager = (*TxManager)(nil)

type txKey struct{}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// ========================================
// INSPECTION
// ========================================

// User trả về row bất kể trạng thái
func (s *Store) User(id uuid.UUID) user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

func (s *Store) Book(id uuid.UUID) bookmodel.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books[id]
}

func (s *Store) Review(id uuid.UUID) reviewmodel.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reviews[id]
}

// ActiveReviewCount đếm review active của book
func (s *Store) ActiveReviewCount(bookID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reviews {
		if r.BookID == bookID && r.IsActive() {
			n++
		}
	}
	return n
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
